// internal/models/match.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchStatus distinguishes real determinations from provider soft failures.
type MatchStatus string

const (
	MatchStatusEvaluated   MatchStatus = "evaluated"
	MatchStatusSoftFailure MatchStatus = "soft_failure"
)

// StatusFor returns the stored status for a verdict.
func StatusFor(v Verdict) MatchStatus {
	if v.SoftFailure {
		return MatchStatusSoftFailure
	}
	return MatchStatusEvaluated
}

// MatchRecord is the persisted verdict for one (applicant, product) pair.
type MatchRecord struct {
	MatchID     int64       `json:"matchId"`
	ApplicantID string      `json:"applicantId"`
	ProductID   string      `json:"productId"`
	Eligible    bool        `json:"eligible"`
	Confidence  float64     `json:"confidence"`
	Reason      string      `json:"reason"`
	Status      MatchStatus `json:"status"`
	MatchScore  float64     `json:"matchScore"`
	EvaluatedAt time.Time   `json:"evaluatedAt"`
	Notified    bool        `json:"notified"`
}

// MatchDigestItem is an un-notified match joined with the product fields the
// digest email shows.
type MatchDigestItem struct {
	MatchID        int64            `json:"matchId"`
	ApplicantID    string           `json:"applicantId"`
	ProductID      string           `json:"productId"`
	MatchScore     float64          `json:"matchScore"`
	ProviderName   string           `json:"providerName"`
	ProductName    string           `json:"productName"`
	InterestRate   *float64         `json:"interestRate,omitempty"`
	MinLoanAmount  *decimal.Decimal `json:"minLoanAmount,omitempty"`
	MaxLoanAmount  *decimal.Decimal `json:"maxLoanAmount,omitempty"`
	LoanTermMonths *int             `json:"loanTermMonths,omitempty"`
}
