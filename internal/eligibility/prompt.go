package eligibility

import (
	"strconv"
	"strings"

	"loan-eligibility-workers/internal/models"

	"github.com/shopspring/decimal"
)

// NotProvided is rendered for any field the store holds as NULL.
const NotProvided = "Not provided"

// SystemPrompt frames the task for every provider.
const SystemPrompt = "You are a loan eligibility expert. Your task is to evaluate if a user with specific financial " +
	"characteristics would be eligible for a loan product, even if they are slightly below the standard requirements. " +
	"Consider factors like employment stability, debt-to-income ratio, and overall financial health. " +
	"Respond with a JSON object containing 'eligible' (boolean), 'confidence' (number between 0-100), and 'reason' (string)."

// BuildPrompt renders the applicant and product into the evaluation request.
// Field order is fixed.
func BuildPrompt(a models.ApplicantProfile, p models.LoanProduct) string {
	var b strings.Builder

	line := func(label, value string) {
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}

	b.WriteString("Evaluate if this user is eligible for this loan product:\n\n")

	b.WriteString("User Information:\n")
	line("Monthly Income", money(a.MonthlyIncome))
	line("Credit Score", integer(a.CreditScore))
	line("Employment Status", employment(a.EmploymentStatus))
	line("Age", integer(a.Age))
	line("Debt-to-Income Ratio", float(a.DebtToIncomeRatio))
	line("Existing Loans", integer(a.ExistingLoans))

	b.WriteString("\nLoan Product:\n")
	line("Provider", text(p.ProviderName))
	line("Product", text(p.ProductName))
	line("Interest Rate", withSuffix(float(p.InterestRate), "%"))
	line("Minimum Credit Score Requirement", integer(p.MinCreditScore))
	line("Minimum Monthly Income", money(p.MinMonthlyIncome))
	line("Maximum Debt-to-Income Ratio", float(p.MaxDebtToIncome))
	line("Loan Amount Range", money(p.MinLoanAmount)+" - "+money(p.MaxLoanAmount))
	line("Loan Term", withSuffix(integer(p.LoanTermMonths), " months"))

	b.WriteString("\nThe user is slightly below the standard requirements. Would you recommend approving them for this loan?\n")
	return b.String()
}

func money(d *decimal.Decimal) string {
	if d == nil {
		return NotProvided
	}
	return "$" + d.String()
}

func integer(i *int) string {
	if i == nil {
		return NotProvided
	}
	return strconv.Itoa(*i)
}

func float(f *float64) string {
	if f == nil {
		return NotProvided
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func employment(s *models.EmploymentStatus) string {
	if s == nil {
		return NotProvided
	}
	return string(*s)
}

func text(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotProvided
	}
	return s
}

func withSuffix(value, suffix string) string {
	if value == NotProvided {
		return value
	}
	return value + suffix
}
