package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loan-eligibility-workers/internal/common/metrics"
	"loan-eligibility-workers/internal/models"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// UpsertMatch writes the verdict for (applicantID, productID) in a single
// statement. A repeat evaluation overwrites the verdict columns and leaves
// notified untouched.
func (s *Store) UpsertMatch(ctx context.Context, applicantID, productID string, v models.Verdict) (models.MatchRecord, error) {
	ctx, span := tracer.Start(ctx, "store.upsert_match")
	defer span.End()
	span.SetAttributes(attribute.String("applicant.id", applicantID), attribute.String("product.id", productID))

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rec := models.MatchRecord{
		ApplicantID: applicantID,
		ProductID:   productID,
		Eligible:    v.Eligible,
		Confidence:  models.ClampConfidence(v.Confidence),
		Reason:      v.Reason,
		Status:      models.StatusFor(v),
		MatchScore:  v.MatchScore(),
	}

	err := s.db.QueryRowContext(qctx, queryUpsertMatch,
		applicantID, productID, rec.Eligible, rec.Confidence, rec.Reason, string(rec.Status), rec.MatchScore,
	).Scan(&rec.MatchID, &rec.EvaluatedAt, &rec.Notified)
	if err != nil {
		metrics.MatchUpserts.WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.MatchRecord{}, storeErr("upsert_match", err)
	}

	metrics.MatchUpserts.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int64("match.id", rec.MatchID))
	s.logger.Debug("Match upserted", map[string]interface{}{
		"matchId":     rec.MatchID,
		"applicantId": applicantID,
		"productId":   productID,
		"matchScore":  rec.MatchScore,
		"status":      string(rec.Status),
	})
	return rec, nil
}

// ListPendingMatches returns the applicant's un-notified matches joined with
// product details, best score first.
func (s *Store) ListPendingMatches(ctx context.Context, applicantID string) ([]models.MatchDigestItem, error) {
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(qctx, queryPendingMatches, applicantID)
	if err != nil {
		return nil, storeErr("list_pending_matches", err)
	}
	defer rows.Close()

	items := []models.MatchDigestItem{}
	for rows.Next() {
		var (
			item      models.MatchDigestItem
			rate      sql.NullFloat64
			minAmount decimal.NullDecimal
			maxAmount decimal.NullDecimal
			term      sql.NullInt64
		)
		if err := rows.Scan(&item.MatchID, &item.ApplicantID, &item.ProductID, &item.MatchScore,
			&item.ProviderName, &item.ProductName, &rate, &minAmount, &maxAmount, &term); err != nil {
			return nil, storeErr("list_pending_matches", err)
		}
		item.InterestRate = nullFloat(rate)
		item.MinLoanAmount = nullDecimal(minAmount)
		item.MaxLoanAmount = nullDecimal(maxAmount)
		item.LoanTermMonths = nullInt(term)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list_pending_matches", err)
	}
	return items, nil
}

// MarkNotified flips notified on matchIDs and appends the log entry in one
// transaction. Matches already notified are left alone; the returned count is
// the number actually flipped.
func (s *Store) MarkNotified(ctx context.Context, entry models.NotificationLogEntry, matchIDs []int64) (int64, error) {
	ctx, span := tracer.Start(ctx, "store.mark_notified")
	defer span.End()
	span.SetAttributes(attribute.String("applicant.id", entry.ApplicantID), attribute.Int("matches", len(matchIDs)))

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(qctx, nil)
	if err != nil {
		return 0, storeErr("mark_notified", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	res, err := tx.ExecContext(qctx, queryMarkNotified, pq.Array(matchIDs))
	if err != nil {
		return 0, storeErr("mark_notified", err)
	}
	flipped, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("mark_notified", err)
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(qctx, queryInsertNotification,
		entry.NotificationID, entry.ApplicantID, entry.Subject, entry.Body,
		entry.Status, entry.MessageID, pq.Array(matchIDs), entry.CreatedAt,
	)
	if err != nil {
		return 0, storeErr("log_notification", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, storeErr("mark_notified", fmt.Errorf("commit: %w", err))
	}
	return flipped, nil
}
