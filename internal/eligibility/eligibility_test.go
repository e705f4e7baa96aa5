package eligibility

import (
	"context"
	"errors"
	"strings"
	"testing"

	"loan-eligibility-workers/internal/common/llm"
	"loan-eligibility-workers/internal/common/logger"
	"loan-eligibility-workers/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func intPtr(i int) *int { return &i }

func floatPtr(f float64) *float64 { return &f }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func borderlineApplicant() models.ApplicantProfile {
	status := models.EmploymentEmployed
	return models.ApplicantProfile{
		ID:                "A-1",
		Email:             "jane.doe@example.com",
		MonthlyIncome:     decPtr("4800"),
		CreditScore:       intPtr(680),
		EmploymentStatus:  &status,
		Age:               intPtr(34),
		DebtToIncomeRatio: floatPtr(0.3),
		ExistingLoans:     intPtr(1),
	}
}

func standardProduct() models.LoanProduct {
	return models.LoanProduct{
		ID:               "P-1",
		ProviderName:     "Acme Bank",
		ProductName:      "Flex Personal",
		InterestRate:     floatPtr(7.5),
		MinLoanAmount:    decPtr("1000"),
		MaxLoanAmount:    decPtr("25000"),
		LoanTermMonths:   intPtr(36),
		MinCreditScore:   intPtr(700),
		MinMonthlyIncome: decPtr("5000"),
		MaxDebtToIncome:  floatPtr(0.4),
	}
}

type fakeProvider struct {
	reply  string
	err    error
	calls  int
	system string
	prompt string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Evaluate(_ context.Context, system, prompt string) (string, error) {
	f.calls++
	f.system = system
	f.prompt = prompt
	return f.reply, f.err
}

// ==========================
// Prompt
// ==========================

func TestBuildPrompt_FieldOrder(t *testing.T) {
	prompt := BuildPrompt(borderlineApplicant(), standardProduct())

	expected := []string{
		"Evaluate if this user is eligible for this loan product:",
		"User Information:",
		"Monthly Income: $4800",
		"Credit Score: 680",
		"Employment Status: employed",
		"Age: 34",
		"Debt-to-Income Ratio: 0.3",
		"Existing Loans: 1",
		"Loan Product:",
		"Provider: Acme Bank",
		"Product: Flex Personal",
		"Interest Rate: 7.5%",
		"Minimum Credit Score Requirement: 700",
		"Minimum Monthly Income: $5000",
		"Maximum Debt-to-Income Ratio: 0.4",
		"Loan Amount Range: $1000 - $25000",
		"Loan Term: 36 months",
		"The user is slightly below the standard requirements. Would you recommend approving them for this loan?",
	}

	last := -1
	for _, line := range expected {
		idx := strings.Index(prompt, line)
		require.GreaterOrEqual(t, idx, 0, "missing line %q", line)
		assert.Greater(t, idx, last, "line %q out of order", line)
		last = idx
	}
}

func TestBuildPrompt_MissingFields(t *testing.T) {
	prompt := BuildPrompt(models.ApplicantProfile{ID: "A-2"}, models.LoanProduct{ID: "P-2", ProviderName: "Acme"})

	assert.Contains(t, prompt, "Monthly Income: Not provided\n")
	assert.Contains(t, prompt, "Employment Status: Not provided\n")
	assert.Contains(t, prompt, "Interest Rate: Not provided\n")
	assert.Contains(t, prompt, "Loan Amount Range: Not provided - Not provided\n")
	assert.Contains(t, prompt, "Loan Term: Not provided\n")
	assert.Contains(t, prompt, "Product: Not provided\n")
}

// ==========================
// Parser
// ==========================

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		eligible   bool
		confidence float64
		reason     string
		stage      models.ParseStage
	}{
		{
			name:       "strict json",
			raw:        `{"eligible": true, "confidence": 72, "reason": "borderline but stable employment"}`,
			eligible:   true,
			confidence: 72,
			reason:     "borderline but stable employment",
			stage:      models.ParseStrict,
		},
		{
			name:       "strict json with string fields",
			raw:        `{"eligible": "true", "confidence": "65"}`,
			eligible:   true,
			confidence: 65,
			reason:     models.DefaultReason,
			stage:      models.ParseStrict,
		},
		{
			name:       "strict json clamps confidence",
			raw:        `{"eligible": false, "confidence": 140, "reason": "x"}`,
			confidence: 100,
			reason:     "x",
			stage:      models.ParseStrict,
		},
		{
			name:       "prose wrapped json",
			raw:        "Sure! Here is my answer:\n```json\n{\"eligible\": false, \"confidence\": 40, \"reason\": \"income too low\"}\n```",
			confidence: 40,
			reason:     "income too low",
			stage:      models.ParseTolerant,
		},
		{
			name:       "case insensitive keys",
			raw:        `"Eligible": TRUE, "CONFIDENCE": 55`,
			eligible:   true,
			confidence: 55,
			reason:     models.DefaultReason,
			stage:      models.ParseTolerant,
		},
		{
			name:   "nothing recognisable",
			raw:    "I cannot help with that.",
			reason: models.DefaultReason,
			stage:  models.ParseDefault,
		},
		{
			name:   "empty",
			raw:    "",
			reason: models.DefaultReason,
			stage:  models.ParseDefault,
		},
		{
			name:   "json array is not an object",
			raw:    `[1, 2, 3]`,
			reason: models.DefaultReason,
			stage:  models.ParseDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ParseVerdict(tt.raw)
			assert.Equal(t, tt.eligible, v.Eligible)
			assert.InDelta(t, tt.confidence, v.Confidence, 1e-9)
			assert.Equal(t, tt.reason, v.Reason)
			assert.Equal(t, tt.stage, v.ParseStage)
			assert.False(t, v.SoftFailure)
		})
	}
}

// ==========================
// Evaluator
// ==========================

func TestEvaluator_BorderlineApproval(t *testing.T) {
	provider := &fakeProvider{reply: `{"eligible": true, "confidence": 72, "reason": "stable employment offsets gap"}`}
	e := NewEvaluator(provider, logger.NewTestLogger(t))

	v, err := e.Evaluate(context.Background(), borderlineApplicant(), standardProduct())
	require.NoError(t, err)

	assert.True(t, v.Eligible)
	assert.Equal(t, 72.0, v.Confidence)
	assert.Equal(t, 72.0, v.MatchScore())
	assert.Equal(t, models.ParseStrict, v.ParseStage)
	assert.Equal(t, SystemPrompt, provider.system)
	assert.Contains(t, provider.prompt, "Credit Score: 680")
}

func TestEvaluator_ProviderUnavailableIsSoftFailure(t *testing.T) {
	provider := &fakeProvider{err: &llm.Error{
		Kind:     llm.KindProviderUnavailable,
		Provider: "fake",
		Err:      errors.New("dial tcp: connection refused"),
	}}
	core, logs := observer.New(zapcore.WarnLevel)
	e := NewEvaluator(provider, logger.NewZapAdapter(zap.New(core)))

	v, err := e.Evaluate(context.Background(), borderlineApplicant(), standardProduct())
	require.NoError(t, err)

	assert.False(t, v.Eligible)
	assert.Equal(t, 0.0, v.Confidence)
	assert.True(t, v.SoftFailure)
	assert.Equal(t, "API error: dial tcp: connection refused", v.Reason)
	assert.Equal(t, models.ParseNone, v.ParseStage)
	assert.Equal(t, 0.0, v.MatchScore())

	entries := logs.FilterMessage("LLM evaluation soft-failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "PROVIDER_UNAVAILABLE", entries[0].ContextMap()["errorCode"])
	assert.Equal(t, "P-1", entries[0].ContextMap()["productId"])
}

func TestEvaluator_NotConfigured(t *testing.T) {
	v, err := NewEvaluator(nil, nil).Evaluate(context.Background(), borderlineApplicant(), standardProduct())
	require.NoError(t, err)
	assert.True(t, v.SoftFailure)
	assert.Equal(t, "API key not configured", v.Reason)

	core, logs := observer.New(zapcore.WarnLevel)
	provider := &fakeProvider{err: &llm.Error{Kind: llm.KindNotConfigured, Provider: "fake"}}
	v, err = NewEvaluator(provider, logger.NewZapAdapter(zap.New(core))).Evaluate(context.Background(), borderlineApplicant(), standardProduct())
	require.NoError(t, err)
	assert.Equal(t, "API key not configured", v.Reason)

	entries := logs.FilterMessage("LLM evaluation soft-failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "PROVIDER_NOT_CONFIGURED", entries[0].ContextMap()["errorCode"])
}

func TestEvaluator_TolerantReply(t *testing.T) {
	provider := &fakeProvider{reply: `I think "eligible": false with "confidence": 30 because "reason": "high debt"`}
	core, logs := observer.New(zapcore.WarnLevel)
	v, err := NewEvaluator(provider, logger.NewZapAdapter(zap.New(core))).Evaluate(context.Background(), borderlineApplicant(), standardProduct())
	require.NoError(t, err)

	assert.False(t, v.Eligible)
	assert.Equal(t, 30.0, v.Confidence)
	assert.Equal(t, "high debt", v.Reason)
	assert.Equal(t, models.ParseTolerant, v.ParseStage)
	assert.Equal(t, 15.0, v.MatchScore())

	entries := logs.FilterMessage("LLM reply was not valid JSON").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "PARSE_DEGRADED", entries[0].ContextMap()["errorCode"])
	assert.Equal(t, "tolerant", entries[0].ContextMap()["parseStage"])
}

func TestEvaluator_CancelledContext(t *testing.T) {
	provider := &fakeProvider{reply: `{"eligible": true, "confidence": 90}`}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEvaluator(provider, nil).Evaluate(ctx, borderlineApplicant(), standardProduct())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, provider.calls)
}

// ==========================
// Pre-screen
// ==========================

func TestScreen(t *testing.T) {
	qualified := borderlineApplicant()
	qualified.CreditScore = intPtr(720)
	qualified.MonthlyIncome = decPtr("6000")

	farBelow := borderlineApplicant()
	farBelow.CreditScore = intPtr(600)

	lowIncome := borderlineApplicant()
	lowIncome.CreditScore = intPtr(720)
	lowIncome.MonthlyIncome = decPtr("4000")

	highDTI := qualified
	highDTI.DebtToIncomeRatio = floatPtr(0.43)

	missing := qualified
	missing.CreditScore = nil

	tests := []struct {
		name      string
		applicant models.ApplicantProfile
		product   models.LoanProduct
		want      Classification
	}{
		{name: "meets everything", applicant: qualified, product: standardProduct(), want: Qualified},
		{name: "slightly below", applicant: borderlineApplicant(), product: standardProduct(), want: Borderline},
		{name: "credit far below", applicant: farBelow, product: standardProduct(), want: Ineligible},
		{name: "income below tolerance", applicant: lowIncome, product: standardProduct(), want: Ineligible},
		{name: "dti within tolerance", applicant: highDTI, product: standardProduct(), want: Borderline},
		{name: "missing applicant value", applicant: missing, product: standardProduct(), want: Borderline},
		{name: "product without minimums", applicant: farBelow, product: models.LoanProduct{ID: "P-9"}, want: Qualified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Screen(tt.applicant, tt.product))
		})
	}
}

// ==========================
// Service
// ==========================

type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetApplicant(ctx context.Context, id string) (models.ApplicantProfile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.ApplicantProfile), args.Error(1)
}

func (m *mockStore) GetProduct(ctx context.Context, id string) (models.LoanProduct, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.LoanProduct), args.Error(1)
}

func (m *mockStore) ListBatchApplicants(ctx context.Context, batchID string) ([]models.ApplicantProfile, error) {
	args := m.Called(ctx, batchID)
	return args.Get(0).([]models.ApplicantProfile), args.Error(1)
}

func (m *mockStore) ListProducts(ctx context.Context) ([]models.LoanProduct, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.LoanProduct), args.Error(1)
}

func (m *mockStore) UpsertMatch(ctx context.Context, applicantID, productID string, v models.Verdict) (models.MatchRecord, error) {
	args := m.Called(ctx, applicantID, productID, v)
	return args.Get(0).(models.MatchRecord), args.Error(1)
}

func TestService_EvaluatePair(t *testing.T) {
	store := new(mockStore)
	provider := &fakeProvider{reply: `{"eligible": true, "confidence": 72, "reason": "ok"}`}
	svc := NewService(NewEvaluator(provider, nil), store, nil)

	store.On("GetApplicant", mock.Anything, "A-1").Return(borderlineApplicant(), nil)
	store.On("GetProduct", mock.Anything, "P-1").Return(standardProduct(), nil)
	store.On("UpsertMatch", mock.Anything, "A-1", "P-1", mock.MatchedBy(func(v models.Verdict) bool {
		return v.Eligible && v.Confidence == 72
	})).Return(models.MatchRecord{MatchID: 11, MatchScore: 72}, nil)

	res, err := svc.EvaluatePair(context.Background(), "A-1", "P-1")
	require.NoError(t, err)
	assert.Equal(t, int64(11), res.Match.MatchID)
	assert.Equal(t, 72.0, res.Match.MatchScore)
	store.AssertExpectations(t)
}

func TestService_EvaluatePair_LookupError(t *testing.T) {
	store := new(mockStore)
	notFound := errors.New("applicant not found")
	store.On("GetApplicant", mock.Anything, "A-404").Return(models.ApplicantProfile{}, notFound)

	provider := &fakeProvider{}
	_, err := NewService(NewEvaluator(provider, nil), store, nil).EvaluatePair(context.Background(), "A-404", "P-1")
	assert.ErrorIs(t, err, notFound)
	assert.Equal(t, 0, provider.calls)
	store.AssertNotCalled(t, "UpsertMatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_EvaluateBatch(t *testing.T) {
	store := new(mockStore)
	provider := &fakeProvider{reply: `{"eligible": false, "confidence": 40, "reason": "gap too wide"}`}
	svc := NewService(NewEvaluator(provider, nil), store, logger.NewNoOpLogger())

	strong := borderlineApplicant()
	strong.ID = "A-2"
	strong.CreditScore = intPtr(760)
	strong.MonthlyIncome = decPtr("9000")

	weak := borderlineApplicant()
	weak.ID = "A-3"
	weak.CreditScore = intPtr(550)

	store.On("ListBatchApplicants", mock.Anything, "B-1").
		Return([]models.ApplicantProfile{borderlineApplicant(), strong, weak}, nil)
	store.On("ListProducts", mock.Anything).Return([]models.LoanProduct{standardProduct()}, nil)
	store.On("UpsertMatch", mock.Anything, "A-1", "P-1", mock.Anything).
		Return(models.MatchRecord{MatchID: 1, MatchScore: 20}, nil)
	store.On("UpsertMatch", mock.Anything, "A-2", "P-1", QualifiedVerdict()).
		Return(models.MatchRecord{MatchID: 2, MatchScore: 100}, nil)

	res, err := svc.EvaluateBatch(context.Background(), "B-1")
	require.NoError(t, err)

	assert.Equal(t, "B-1", res.BatchID)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.PairsEvaluated)
	assert.Equal(t, 1, res.PairsSkipped)
	assert.Equal(t, 0, res.SoftFailures)
	assert.Equal(t, 1, provider.calls)
	require.Len(t, res.Results, 3)
	assert.Equal(t, "borderline", res.Results[0].Classification)
	assert.Equal(t, "qualified", res.Results[1].Classification)
	assert.Equal(t, "ineligible", res.Results[2].Classification)
	assert.Zero(t, res.Results[2].MatchID)
	store.AssertExpectations(t)
}

func TestService_EvaluateBatch_Empty(t *testing.T) {
	store := new(mockStore)
	store.On("ListBatchApplicants", mock.Anything, "B-0").Return([]models.ApplicantProfile{}, nil)

	res, err := NewService(NewEvaluator(&fakeProvider{}, nil), store, nil).EvaluateBatch(context.Background(), "B-0")
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	store.AssertNotCalled(t, "ListProducts", mock.Anything)
}

func TestService_EvaluateBatch_StoreErrorAborts(t *testing.T) {
	store := new(mockStore)
	boom := errors.New("connection reset")
	store.On("ListBatchApplicants", mock.Anything, "B-1").Return([]models.ApplicantProfile{borderlineApplicant()}, nil)
	store.On("ListProducts", mock.Anything).Return([]models.LoanProduct{standardProduct()}, nil)
	store.On("UpsertMatch", mock.Anything, "A-1", "P-1", mock.Anything).Return(models.MatchRecord{}, boom)

	_, err := NewService(NewEvaluator(&fakeProvider{reply: "{}"}, nil), store, nil).EvaluateBatch(context.Background(), "B-1")
	assert.ErrorIs(t, err, boom)
}
