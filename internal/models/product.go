// internal/models/product.go
package models

import "github.com/shopspring/decimal"

// LoanProduct is a lender's offer and its stated minimums.
type LoanProduct struct {
	ID               string           `json:"productId"`
	ProviderName     string           `json:"providerName"`
	ProductName      string           `json:"productName"`
	InterestRate     *float64         `json:"interestRate,omitempty"`
	MinLoanAmount    *decimal.Decimal `json:"minLoanAmount,omitempty"`
	MaxLoanAmount    *decimal.Decimal `json:"maxLoanAmount,omitempty"`
	LoanTermMonths   *int             `json:"loanTermMonths,omitempty"`
	MinCreditScore   *int             `json:"minCreditScore,omitempty"`
	MinMonthlyIncome *decimal.Decimal `json:"minMonthlyIncome,omitempty"`
	MaxDebtToIncome  *float64         `json:"maxDebtToIncome,omitempty"`
}
