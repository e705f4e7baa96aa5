package eligibility

import (
	"context"
	"fmt"

	"loan-eligibility-workers/internal/common/logger"
	"loan-eligibility-workers/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// MatchStore is the persistence the service needs.
type MatchStore interface {
	GetApplicant(ctx context.Context, applicantID string) (models.ApplicantProfile, error)
	GetProduct(ctx context.Context, productID string) (models.LoanProduct, error)
	ListBatchApplicants(ctx context.Context, batchID string) ([]models.ApplicantProfile, error)
	ListProducts(ctx context.Context) ([]models.LoanProduct, error)
	UpsertMatch(ctx context.Context, applicantID, productID string, v models.Verdict) (models.MatchRecord, error)
}

// PairResult is one evaluated and persisted pair.
type PairResult struct {
	Verdict models.Verdict
	Match   models.MatchRecord
}

// BatchPair summarises one pair of a batch run.
type BatchPair struct {
	ApplicantID    string  `json:"applicantId"`
	ProductID      string  `json:"productId"`
	Classification string  `json:"classification"`
	MatchID        int64   `json:"matchId,omitempty"`
	Eligible       bool    `json:"eligible"`
	MatchScore     float64 `json:"matchScore"`
	SoftFailure    bool    `json:"softFailure"`
}

// BatchResult is the summary of EvaluateBatch.
type BatchResult struct {
	RunID          string      `json:"runId"`
	BatchID        string      `json:"batchId"`
	PairsEvaluated int         `json:"pairsEvaluated"`
	PairsSkipped   int         `json:"pairsSkipped"`
	SoftFailures   int         `json:"softFailures"`
	Results        []BatchPair `json:"results"`
}

// Service evaluates pairs and persists their verdicts.
type Service struct {
	evaluator *Evaluator
	store     MatchStore
	logger    logger.Logger
}

func NewService(evaluator *Evaluator, store MatchStore, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{evaluator: evaluator, store: store, logger: log}
}

// EvaluatePair always consults the provider, then upserts the verdict.
// Lookup errors from the store are returned unchanged.
func (s *Service) EvaluatePair(ctx context.Context, applicantID, productID string) (PairResult, error) {
	applicant, err := s.store.GetApplicant(ctx, applicantID)
	if err != nil {
		return PairResult{}, err
	}
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return PairResult{}, err
	}

	verdict, err := s.evaluator.Evaluate(ctx, applicant, product)
	if err != nil {
		return PairResult{}, err
	}

	match, err := s.store.UpsertMatch(ctx, applicantID, productID, verdict)
	if err != nil {
		return PairResult{}, err
	}

	return PairResult{Verdict: verdict, Match: match}, nil
}

// EvaluateBatch screens every applicant of batchID against every product.
// Qualified pairs get the rule verdict, Borderline pairs go to the provider
// and Ineligible pairs are skipped without a record. Pairs run one at a time;
// the first store error aborts the run, and re-running is safe because
// upserts are idempotent per pair.
func (s *Service) EvaluateBatch(ctx context.Context, batchID string) (BatchResult, error) {
	ctx, span := tracer.Start(ctx, "eligibility.evaluate_batch")
	defer span.End()

	result := BatchResult{
		RunID:   uuid.NewString(),
		BatchID: batchID,
		Results: []BatchPair{},
	}
	span.SetAttributes(attribute.String("batch.id", batchID), attribute.String("run.id", result.RunID))

	log := s.logger.WithFields(map[string]interface{}{"batchId": batchID, "runId": result.RunID})

	applicants, err := s.store.ListBatchApplicants(ctx, batchID)
	if err != nil {
		return result, err
	}
	if len(applicants) == 0 {
		log.Info("No applicants in batch", nil)
		return result, nil
	}

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return result, err
	}

	for _, applicant := range applicants {
		for _, product := range products {
			if err := ctx.Err(); err != nil {
				return result, err
			}

			class := Screen(applicant, product)
			pair := BatchPair{
				ApplicantID:    applicant.ID,
				ProductID:      product.ID,
				Classification: class.String(),
			}

			var verdict models.Verdict
			switch class {
			case Ineligible:
				result.PairsSkipped++
				result.Results = append(result.Results, pair)
				continue
			case Qualified:
				verdict = QualifiedVerdict()
			default:
				verdict, err = s.evaluator.Evaluate(ctx, applicant, product)
				if err != nil {
					return result, err
				}
			}

			match, err := s.store.UpsertMatch(ctx, applicant.ID, product.ID, verdict)
			if err != nil {
				return result, fmt.Errorf("batch %s: %w", batchID, err)
			}

			result.PairsEvaluated++
			if verdict.SoftFailure {
				result.SoftFailures++
			}
			pair.MatchID = match.MatchID
			pair.Eligible = verdict.Eligible
			pair.MatchScore = match.MatchScore
			pair.SoftFailure = verdict.SoftFailure
			result.Results = append(result.Results, pair)
		}
	}

	span.SetAttributes(
		attribute.Int("pairs.evaluated", result.PairsEvaluated),
		attribute.Int("pairs.skipped", result.PairsSkipped),
		attribute.Int("pairs.soft_failures", result.SoftFailures),
	)
	log.Info("Batch evaluation finished", map[string]interface{}{
		"applicants":     len(applicants),
		"products":       len(products),
		"pairsEvaluated": result.PairsEvaluated,
		"pairsSkipped":   result.PairsSkipped,
		"softFailures":   result.SoftFailures,
	})

	return result, nil
}
