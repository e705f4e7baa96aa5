package sendmatchnotifications

import (
	"context"
	"fmt"
	"time"

	"loan-eligibility-workers/internal/common/errors"
	"loan-eligibility-workers/internal/common/logger"
	"loan-eligibility-workers/internal/common/metrics"
	"loan-eligibility-workers/internal/common/validation"
	"loan-eligibility-workers/internal/notification"
	"loan-eligibility-workers/internal/store"
	"loan-eligibility-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "send-match-notifications"

// Notifier runs one notification pass.
type Notifier interface {
	SendDueNotifications(ctx context.Context, sel notification.Selector) ([]notification.Outcome, error)
}

type Handler struct {
	config       *Config
	notifier     Notifier
	schema       map[string]interface{}
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(cfg *Config, notifier Notifier, log logger.Logger) (*Handler, error) {
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
		notifier:     notifier,
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

	h.logger.Info("Processing match notifications", map[string]interface{}{
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

	input := &Input{}
	if v, present := variables["applicantId"]; present {
		id, ok := validation.StringID(v)
		if !ok {
			return nil, errors.NewInputValidationError("applicantId must be a non-empty string or integer")
		}
		input.ApplicantID = id
	}
	if v, present := variables["batchId"]; present {
		id, ok := validation.StringID(v)
		if !ok {
			return nil, errors.NewInputValidationError("batchId must be a non-empty string or integer")
		}
		input.BatchID = id
	}
	return input, nil
}

// Execute runs the pass. Per-applicant failures are reported in Results and
// do not fail the job; only target resolution errors do.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	outcomes, err := h.notifier.SendDueNotifications(ctx, notification.Selector{
		ApplicantID: input.ApplicantID,
		BatchID:     input.BatchID,
	})
	if err != nil {
		stdErr := store.Classify(err, input.ApplicantID, "")
		if input.BatchID != "" {
			stdErr = stdErr.WithMetadata("batchId", input.BatchID)
		}
		return nil, stdErr
	}

	out := &Output{ApplicantsProcessed: len(outcomes), Results: outcomes}
	for _, o := range outcomes {
		switch o.Status {
		case notification.StatusSent:
			out.Sent++
		case notification.StatusSkipped:
			out.Skipped++
		default:
			out.Failed++
		}
	}

	h.logger.Info("Notification pass finished", map[string]interface{}{
		"applicantId": input.ApplicantID,
		"batchId":     input.BatchID,
		"processed":   out.ApplicantsProcessed,
		"sent":        out.Sent,
		"skipped":     out.Skipped,
		"failed":      out.Failed,
	})
	return out, nil
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
