package evaluatebatcheligibility

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

const TaskType = "evaluate-batch-eligibility"

// BatchEvaluator screens and evaluates a whole batch.
type BatchEvaluator interface {
	EvaluateBatch(ctx context.Context, batchID string) (eligibility.BatchResult, error)
}

type Handler struct {
	config       *Config
	service      BatchEvaluator
	schema       map[string]interface{}
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(cfg *Config, service BatchEvaluator, log logger.Logger) (*Handler, error) {
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

	h.logger.Info("Processing batch evaluation", map[string]interface{}{
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

	result := validation.ValidateInput(variables, h.schema)
	if !result.Valid {
		return nil, errors.NewInputValidationError(fmt.Sprintf("Validation errors: %v", result.GetErrorMessages()))
	}

	batchID, ok := validation.StringID(variables["batchId"])
	if !ok {
		return nil, errors.NewInputValidationError("batchId must be a non-empty string or integer")
	}
	return &Input{BatchID: batchID}, nil
}

// Execute runs the batch. A store failure aborts the job so the engine can
// retry it; completed pairs are upserted again on retry.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.service.EvaluateBatch(ctx, input.BatchID)
	if err != nil {
		return nil, store.Classify(err, "", "").WithMetadata("batchId", input.BatchID)
	}

	return &Output{
		BatchID:        res.BatchID,
		RunID:          res.RunID,
		PairsEvaluated: res.PairsEvaluated,
		PairsSkipped:   res.PairsSkipped,
		SoftFailures:   res.SoftFailures,
		Results:        res.Results,
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
		return
	}

	h.logger.Info("Batch evaluation completed", map[string]interface{}{
		"jobKey":         job.GetKey(),
		"batchId":        output.BatchID,
		"pairsEvaluated": output.PairsEvaluated,
		"pairsSkipped":   output.PairsSkipped,
	})
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
