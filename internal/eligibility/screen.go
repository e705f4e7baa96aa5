package eligibility

import (
	"loan-eligibility-workers/internal/models"

	"github.com/shopspring/decimal"
)

// Tolerances for the pre-screen borderline band.
const (
	CreditScoreTolerance = 50
	IncomeTolerance      = 0.15
	DTITolerance         = 0.05
)

// QualifiedReason is stored for pairs that clear every stated minimum.
const QualifiedReason = "Meets all standard requirements"

// Classification is the pre-screen bucket for a pair.
type Classification int

const (
	Qualified Classification = iota
	Borderline
	Ineligible
)

func (c Classification) String() string {
	switch c {
	case Qualified:
		return "qualified"
	case Borderline:
		return "borderline"
	default:
		return "ineligible"
	}
}

// Screen compares the applicant against the product's stated minimums.
// A pair is Ineligible when any criterion misses by more than its tolerance,
// Borderline when any misses within tolerance or cannot be checked because
// the applicant value is missing, and Qualified otherwise.
func Screen(a models.ApplicantProfile, p models.LoanProduct) Classification {
	result := Qualified
	for _, c := range []Classification{
		screenCredit(a.CreditScore, p.MinCreditScore),
		screenIncome(a.MonthlyIncome, p.MinMonthlyIncome),
		screenDTI(a.DebtToIncomeRatio, p.MaxDebtToIncome),
	} {
		if c > result {
			result = c
		}
	}
	return result
}

// QualifiedVerdict is the rule-based verdict for a Qualified pair.
func QualifiedVerdict() models.Verdict {
	return models.Verdict{
		Eligible:   true,
		Confidence: 100,
		Reason:     QualifiedReason,
		ParseStage: models.ParseNone,
	}
}

func screenCredit(have, min *int) Classification {
	switch {
	case min == nil:
		return Qualified
	case have == nil:
		return Borderline
	case *have >= *min:
		return Qualified
	case *min-*have <= CreditScoreTolerance:
		return Borderline
	default:
		return Ineligible
	}
}

func screenIncome(have, min *decimal.Decimal) Classification {
	switch {
	case min == nil:
		return Qualified
	case have == nil:
		return Borderline
	case have.GreaterThanOrEqual(*min):
		return Qualified
	case have.GreaterThanOrEqual(min.Mul(decimal.NewFromFloat(1 - IncomeTolerance))):
		return Borderline
	default:
		return Ineligible
	}
}

func screenDTI(have, max *float64) Classification {
	switch {
	case max == nil:
		return Qualified
	case have == nil:
		return Borderline
	case *have <= *max:
		return Qualified
	case *have <= *max+DTITolerance:
		return Borderline
	default:
		return Ineligible
	}
}
