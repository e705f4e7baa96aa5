package store

import (
	"context"
	"database/sql"
	"errors"

	"loan-eligibility-workers/internal/models"

	"github.com/shopspring/decimal"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// GetApplicant loads one applicant, from cache when possible.
func (s *Store) GetApplicant(ctx context.Context, applicantID string) (models.ApplicantProfile, error) {
	var a models.ApplicantProfile
	if s.cache.Get(ctx, applicantKey(applicantID), &a) {
		return a, nil
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	a, err := scanApplicant(s.db.QueryRowContext(qctx, queryGetApplicant, applicantID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ApplicantProfile{}, ErrApplicantNotFound
	}
	if err != nil {
		return models.ApplicantProfile{}, storeErr("get_applicant", err)
	}

	s.cache.Set(ctx, applicantKey(applicantID), a)
	return a, nil
}

// ListBatchApplicants returns every applicant uploaded with batchID.
func (s *Store) ListBatchApplicants(ctx context.Context, batchID string) ([]models.ApplicantProfile, error) {
	return s.listApplicants(ctx, "list_batch_applicants", queryBatchApplicants, batchID)
}

func (s *Store) listApplicants(ctx context.Context, op, query string, args ...interface{}) ([]models.ApplicantProfile, error) {
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(qctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	applicants := []models.ApplicantProfile{}
	for rows.Next() {
		a, err := scanApplicant(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		applicants = append(applicants, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return applicants, nil
}

func scanApplicant(row rowScanner) (models.ApplicantProfile, error) {
	var (
		a          models.ApplicantProfile
		income     decimal.NullDecimal
		credit     sql.NullInt64
		employment sql.NullString
		age        sql.NullInt64
		dti        sql.NullFloat64
		loans      sql.NullInt64
		batchID    sql.NullString
	)

	if err := row.Scan(&a.ID, &a.Email, &income, &credit, &employment, &age, &dti, &loans, &batchID); err != nil {
		return models.ApplicantProfile{}, err
	}

	a.MonthlyIncome = nullDecimal(income)
	a.CreditScore = nullInt(credit)
	if employment.Valid && employment.String != "" {
		status := models.ParseEmploymentStatus(employment.String)
		a.EmploymentStatus = &status
	}
	a.Age = nullInt(age)
	a.DebtToIncomeRatio = nullFloat(dti)
	a.ExistingLoans = nullInt(loans)
	a.BatchID = batchID.String
	return a, nil
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullDecimal(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}
