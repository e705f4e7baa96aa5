// internal/models/applicant.go
package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// EmploymentStatus is the applicant's declared employment category.
type EmploymentStatus string

const (
	EmploymentEmployed     EmploymentStatus = "employed"
	EmploymentSelfEmployed EmploymentStatus = "self-employed"
	EmploymentUnemployed   EmploymentStatus = "unemployed"
	EmploymentRetired      EmploymentStatus = "retired"
	EmploymentUnknown      EmploymentStatus = "unknown"
)

// ParseEmploymentStatus normalises free-form store values. Anything outside
// the known set becomes EmploymentUnknown.
func ParseEmploymentStatus(s string) EmploymentStatus {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")

	switch EmploymentStatus(normalized) {
	case EmploymentEmployed, EmploymentSelfEmployed, EmploymentUnemployed, EmploymentRetired:
		return EmploymentStatus(normalized)
	case "selfemployed":
		return EmploymentSelfEmployed
	default:
		return EmploymentUnknown
	}
}

// ApplicantProfile is an applicant's financial snapshot. Nil pointers are
// fields the store holds as NULL.
type ApplicantProfile struct {
	ID                string            `json:"applicantId"`
	Email             string            `json:"email"`
	MonthlyIncome     *decimal.Decimal  `json:"monthlyIncome,omitempty"`
	CreditScore       *int              `json:"creditScore,omitempty"`
	EmploymentStatus  *EmploymentStatus `json:"employmentStatus,omitempty"`
	Age               *int              `json:"age,omitempty"`
	DebtToIncomeRatio *float64          `json:"debtToIncomeRatio,omitempty"`
	ExistingLoans     *int              `json:"existingLoans,omitempty"`
	BatchID           string            `json:"batchId,omitempty"`
}
