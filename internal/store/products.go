package store

import (
	"context"
	"database/sql"
	"errors"

	"loan-eligibility-workers/internal/models"

	"github.com/shopspring/decimal"
)

// GetProduct loads one loan product, from cache when possible.
func (s *Store) GetProduct(ctx context.Context, productID string) (models.LoanProduct, error) {
	var p models.LoanProduct
	if s.cache.Get(ctx, productKey(productID), &p) {
		return p, nil
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(s.db.QueryRowContext(qctx, queryGetProduct, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.LoanProduct{}, ErrProductNotFound
	}
	if err != nil {
		return models.LoanProduct{}, storeErr("get_product", err)
	}

	s.cache.Set(ctx, productKey(productID), p)
	return p, nil
}

// ListProducts returns the whole catalogue.
func (s *Store) ListProducts(ctx context.Context) ([]models.LoanProduct, error) {
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(qctx, queryListProducts)
	if err != nil {
		return nil, storeErr("list_products", err)
	}
	defer rows.Close()

	products := []models.LoanProduct{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, storeErr("list_products", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list_products", err)
	}
	return products, nil
}

func scanProduct(row rowScanner) (models.LoanProduct, error) {
	var (
		p         models.LoanProduct
		rate      sql.NullFloat64
		minAmount decimal.NullDecimal
		maxAmount decimal.NullDecimal
		term      sql.NullInt64
		minCredit sql.NullInt64
		minIncome decimal.NullDecimal
		maxDTI    sql.NullFloat64
	)

	err := row.Scan(&p.ID, &p.ProviderName, &p.ProductName, &rate, &minAmount,
		&maxAmount, &term, &minCredit, &minIncome, &maxDTI)
	if err != nil {
		return models.LoanProduct{}, err
	}

	p.InterestRate = nullFloat(rate)
	p.MinLoanAmount = nullDecimal(minAmount)
	p.MaxLoanAmount = nullDecimal(maxAmount)
	p.LoanTermMonths = nullInt(term)
	p.MinCreditScore = nullInt(minCredit)
	p.MinMonthlyIncome = nullDecimal(minIncome)
	p.MaxDebtToIncome = nullFloat(maxDTI)
	return p, nil
}
