// Package eligibility turns an (applicant, product) pair into a verdict by
// asking an LLM provider, and owns the pre-screen that decides which pairs
// are worth asking about.
package eligibility

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "loan-eligibility-workers/internal/common/errors"
	"loan-eligibility-workers/internal/common/llm"
	"loan-eligibility-workers/internal/common/logger"
	"loan-eligibility-workers/internal/common/metrics"
	"loan-eligibility-workers/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	reasonNotConfigured = "API key not configured"
	reasonAPIErrorFmt   = "API error: %s"
)

var tracer = otel.Tracer("loan-eligibility-workers/eligibility")

// Evaluator asks a provider for a verdict. Provider failures never escape as
// errors; they become soft-failure verdicts.
type Evaluator struct {
	provider llm.Provider
	logger   logger.Logger
}

// NewEvaluator returns an evaluator over provider. A nil provider yields
// "API key not configured" soft failures.
func NewEvaluator(provider llm.Provider, log logger.Logger) *Evaluator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Evaluator{provider: provider, logger: log}
}

func (e *Evaluator) providerName() string {
	if e.provider == nil {
		return "none"
	}
	return e.provider.Name()
}

// Evaluate renders the prompt, submits it and parses the reply. The error is
// non-nil only when ctx was cancelled before the provider was reached.
func (e *Evaluator) Evaluate(ctx context.Context, a models.ApplicantProfile, p models.LoanProduct) (models.Verdict, error) {
	ctx, span := tracer.Start(ctx, "eligibility.evaluate")
	defer span.End()

	span.SetAttributes(
		attribute.String("applicant.id", a.ID),
		attribute.String("product.id", p.ID),
		attribute.String("llm.provider", e.providerName()),
	)

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.Verdict{}, err
	}

	log := e.logger.WithFields(map[string]interface{}{
		"applicantId": a.ID,
		"productId":   p.ID,
		"provider":    e.providerName(),
	})

	var (
		raw string
		err error
	)
	if e.provider == nil {
		err = &llm.Error{Kind: llm.KindNotConfigured, Provider: "none"}
	} else {
		start := time.Now()
		raw, err = e.provider.Evaluate(ctx, SystemPrompt, BuildPrompt(a, p))
		metrics.EligibilityProviderLatency.WithLabelValues(e.providerName()).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		verdict := softFailure(err)
		kind := string(llm.KindProviderUnavailable)
		var llmErr *llm.Error
		if errors.As(err, &llmErr) {
			kind = string(llmErr.Kind)
		}
		metrics.EligibilityProviderErrors.WithLabelValues(e.providerName(), kind).Inc()
		e.record(verdict)

		span.RecordError(err)
		span.SetAttributes(attribute.Bool("eligibility.soft_failure", true))
		code := apperrors.ErrCodeProviderUnavailable
		if errors.Is(err, llm.ErrNotConfigured) {
			code = apperrors.ErrCodeProviderNotConfigured
		}
		log.WithError(err).Warn("LLM evaluation soft-failed", map[string]interface{}{
			"errorCode": string(code),
			"reason":    verdict.Reason,
			"kind":      kind,
		})
		return verdict, nil
	}

	verdict := ParseVerdict(raw)
	e.record(verdict)

	span.SetAttributes(
		attribute.String("eligibility.parse_stage", string(verdict.ParseStage)),
		attribute.Bool("eligibility.eligible", verdict.Eligible),
		attribute.Float64("eligibility.confidence", verdict.Confidence),
	)

	if verdict.ParseStage != models.ParseStrict {
		log.Warn("LLM reply was not valid JSON", map[string]interface{}{
			"errorCode":  string(apperrors.ErrCodeParseDegraded),
			"parseStage": string(verdict.ParseStage),
			"preview":    logger.Truncate(raw, logger.PreviewLength),
		})
	} else {
		log.Debug("LLM evaluation parsed", map[string]interface{}{
			"eligible":   verdict.Eligible,
			"confidence": verdict.Confidence,
			"preview":    logger.Truncate(raw, logger.PreviewLength),
		})
	}

	return verdict, nil
}

func (e *Evaluator) record(v models.Verdict) {
	metrics.EligibilityVerdicts.WithLabelValues(
		e.providerName(),
		string(v.ParseStage),
		strconv.FormatBool(v.SoftFailure),
	).Inc()
}

func softFailure(err error) models.Verdict {
	v := models.Verdict{
		Eligible:    false,
		Confidence:  0,
		SoftFailure: true,
		ParseStage:  models.ParseNone,
	}

	if errors.Is(err, llm.ErrNotConfigured) {
		v.Reason = reasonNotConfigured
		return v
	}

	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		v.Reason = fmt.Sprintf(reasonAPIErrorFmt, llmErr.Cause())
		return v
	}
	v.Reason = fmt.Sprintf(reasonAPIErrorFmt, err.Error())
	return v
}
