package evaluateeligibility

import (
	"context"
	"fmt"
	"time"

	"loan-eligibility-workers/internal/common/errors"
	"loan-eligibility-workers/internal/common/logger"
	"loan-eligibility-workers/internal/common/metrics"
	"loan-eligibility-workers/internal/common/validation"
	"loan-eligibility-workers/internal/eligibility"
	"loan-eligibility-workers/internal/store"
	"loan-eligibility-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "evaluate-eligibility"

// PairEvaluator evaluates and persists one pair.
type PairEvaluator interface {
	EvaluatePair(ctx context.Context, applicantID, productID string) (eligibility.PairResult, error)
}

type Handler struct {
	config       *Config
	service      PairEvaluator
	schema       map[string]interface{}
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(cfg *Config, service PairEvaluator, log logger.Logger) (*Handler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	schema, err := registry.MustDefault().InputSchema(TaskType)
	if err != nil {
		return nil, err
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       cfg,
		service:      service,
		schema:       schema,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing eligibility evaluation", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputValidationError(fmt.Sprintf("parse job variables: %v", err))
	}
	return h.ParseVariables(variables)
}

// ParseVariables validates raw job variables and extracts the pair ids.
func (h *Handler) ParseVariables(variables map[string]interface{}) (*Input, error) {
	result := validation.ValidateInput(variables, h.schema)
	if !result.Valid {
		return nil, errors.NewInputValidationError(fmt.Sprintf("Validation errors: %v", result.GetErrorMessages()))
	}

	applicantID, ok := validation.StringID(variables["applicantId"])
	if !ok {
		return nil, errors.NewInputValidationError("applicantId must be a non-empty string or integer")
	}
	productID, ok := validation.StringID(variables["productId"])
	if !ok {
		return nil, errors.NewInputValidationError("productId must be a non-empty string or integer")
	}

	return &Input{ApplicantID: applicantID, ProductID: productID}, nil
}

// Execute evaluates the pair. Errors are *errors.StandardError.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.service.EvaluatePair(ctx, input.ApplicantID, input.ProductID)
	if err != nil {
		return nil, store.Classify(err, input.ApplicantID, input.ProductID)
	}

	h.logger.Info("Eligibility evaluated", map[string]interface{}{
		"applicantId": input.ApplicantID,
		"productId":   input.ProductID,
		"matchId":     res.Match.MatchID,
		"eligible":    res.Verdict.Eligible,
		"matchScore":  res.Match.MatchScore,
		"softFailure": res.Verdict.SoftFailure,
	})

	return &Output{
		ApplicantID: input.ApplicantID,
		ProductID:   input.ProductID,
		Eligible:    res.Verdict.Eligible,
		Confidence:  res.Verdict.Confidence,
		Reason:      res.Verdict.Reason,
		MatchScore:  res.Match.MatchScore,
		MatchID:     res.Match.MatchID,
		SoftFailure: res.Verdict.SoftFailure,
		ParseStage:  string(res.Verdict.ParseStage),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
