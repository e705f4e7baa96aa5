package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"loan-eligibility-workers/internal/models"

	"github.com/shopspring/decimal"
)

const notAvailable = "N/A"

var digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background-color: #4a90e2; color: #fff; padding: 20px; text-align: center; }
.loan-card { border: 1px solid #ddd; border-radius: 5px; padding: 15px; margin-bottom: 15px; }
.loan-title { font-size: 18px; font-weight: bold; color: #4a90e2; }
.loan-provider { color: #666; margin-bottom: 10px; }
.loan-details { margin-bottom: 10px; }
.match-score { font-weight: bold; color: #2ecc71; }
.footer { font-size: 12px; color: #999; text-align: center; margin-top: 30px; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>Loan Eligibility Results</h1></div>
<p>Dear {{.Name}},</p>
<p>We're pleased to inform you that based on your financial profile, you may be eligible for the following loan products:</p>
{{range .Cards}}<div class="loan-card">
<div class="loan-title">{{.ProductName}}</div>
<div class="loan-provider">from {{.ProviderName}}</div>
<div class="loan-details">
<div>Interest Rate: {{.InterestRate}}</div>
<div>Loan Amount: {{.AmountRange}}</div>
<div>Term: {{.Term}}</div>
</div>
<div class="match-score">Match Score: {{.MatchScore}}</div>
</div>
{{end}}<p>These matches are based on the information you provided. To proceed with any of these options, please visit the lender's website or contact them directly.</p>
<p>If you have any questions about these recommendations, feel free to contact our support team.</p>
<p>Best regards,<br>Loan Eligibility Engine Team</p>
<div class="footer">
<p>This is an automated email. Please do not reply directly to this message.</p>
<p>&copy; Loan Eligibility Engine</p>
</div>
</div>
</body>
</html>
`))

type digestView struct {
	Name  string
	Cards []digestCard
}

type digestCard struct {
	ProductName  string
	ProviderName string
	InterestRate string
	AmountRange  string
	Term         string
	MatchScore   string
}

// Subject is the digest subject line for n matches.
func Subject(n int) string {
	noun := "options"
	if n == 1 {
		noun = "option"
	}
	return fmt.Sprintf("Good news! We've found %d loan %s for you", n, noun)
}

// RecipientName is the greeting name: the local part of the address.
func RecipientName(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}

// RenderDigest builds the HTML body listing items in the order given.
// All interpolated values are escaped.
func RenderDigest(email string, items []models.MatchDigestItem) (string, error) {
	view := digestView{Name: RecipientName(email), Cards: make([]digestCard, 0, len(items))}
	for _, item := range items {
		view.Cards = append(view.Cards, digestCard{
			ProductName:  item.ProductName,
			ProviderName: item.ProviderName,
			InterestRate: formatRate(item.InterestRate),
			AmountRange:  FormatCurrency(item.MinLoanAmount) + " - " + FormatCurrency(item.MaxLoanAmount),
			Term:         formatTerm(item.LoanTermMonths),
			MatchScore:   strconv.FormatFloat(models.ClampConfidence(item.MatchScore), 'f', 0, 64) + "%",
		})
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

// FormatCurrency renders whole dollars with thousands separators, e.g.
// $25,000. Nil renders N/A.
func FormatCurrency(d *decimal.Decimal) string {
	if d == nil {
		return notAvailable
	}

	digits := d.Round(0).Abs().String()
	var b strings.Builder
	if d.Round(0).IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatRate(rate *float64) string {
	if rate == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*rate, 'f', -1, 64) + "%"
}

func formatTerm(months *int) string {
	if months == nil {
		return notAvailable
	}
	return strconv.Itoa(*months) + " months"
}
