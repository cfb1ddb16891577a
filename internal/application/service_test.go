package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-origination/internal/metrics"
	"github.com/iwvelando/loan-origination/pkg/loans"
	"github.com/iwvelando/loan-origination/pkg/risk"
	"github.com/iwvelando/loan-origination/pkg/testutil"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func float64Ptr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func newTestService(t *testing.T) (*Service, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(NewMemoryRepository(), Options{
		AnnualInterestRate: float64Ptr(28.75),
		Limits:             loans.Limits{MinPrincipal: 500, MaxPrincipal: 250000, MinTermMonths: 1, MaxTermMonths: 30},
		Now:                testutil.FixedClock(testutil.ReferenceNow),
		Metrics:            m,
	}, nil)
	return svc, m
}

func validRequest() SubmitRequest {
	return SubmitRequest{
		Personal: PersonalDetails{
			FirstName: "Thandi",
			LastName:  "Nkosi",
			Email:     "thandi@example.co.za",
			Phone:     "0821234567",
			IDNumber:  testutil.AdultIDNumber(),
		},
		Employment: EmploymentDetails{Status: "employed", Employer: "Acme", MonthsEmployed: 36},
		Financial:  FinancialDetails{MonthlyIncome: 30000, MonthlyExpenses: 10000},
		Loan:       LoanDetails{Principal: 10000, TermMonths: 30, Purpose: "home improvements"},
	}
}

func TestSubmit(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	app, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, app.ID)
	assert.Regexp(t, `^LN261015-[0-9A-F]{6}$`, app.Reference)
	assert.Equal(t, StatusSubmitted, app.Status)
	assert.Equal(t, "800101*******", app.Applicant.MaskedIDNumber)
	assert.Equal(t, 46, app.Applicant.Age)
	assert.Equal(t, time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC), app.Applicant.BirthDate)
	assert.Equal(t, loans.CalculateQuote(10000, 30, 28.75), app.Quote)
	assert.Equal(t, risk.BandLow, app.Risk.Band)
	assert.Equal(t, testutil.ReferenceNow, app.SubmittedAt)
	assert.Equal(t, []string{}, app.Documents)

	stored, err := svc.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app, stored)

	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.ApplicationsSubmitted.WithLabelValues("low")))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(m.IDValidations.WithLabelValues("valid")))
}

func TestSubmitUsesConfiguredZeroRate(t *testing.T) {
	svc := NewService(NewMemoryRepository(), Options{
		AnnualInterestRate: float64Ptr(0),
		Now:                testutil.FixedClock(testutil.ReferenceNow),
	}, nil)
	req := validRequest()
	req.Loan = LoanDetails{Principal: 12000, TermMonths: 12}

	app, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0.0, app.Quote.AnnualInterestRate)
	assert.Equal(t, 1000.0, app.Quote.MonthlyPayment)
	assert.Equal(t, 0.0, app.Quote.TotalInterest)
}

func TestSubmitDefaultsWhenUnset(t *testing.T) {
	svc := NewService(NewMemoryRepository(), Options{Now: testutil.FixedClock(testutil.ReferenceNow)}, nil)
	req := validRequest()
	req.Personal.IDNumber = "0801155009088"

	app, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 28.75, app.Quote.AnnualInterestRate)
	assert.Equal(t, 2008, app.Applicant.BirthDate.Year())
	assert.Equal(t, 18, app.Applicant.Age)
}

func TestSubmitUsesConfiguredZeroCenturyPivot(t *testing.T) {
	svc := NewService(NewMemoryRepository(), Options{
		CenturyPivot: intPtr(0),
		Now:          testutil.FixedClock(testutil.ReferenceNow),
	}, nil)
	req := validRequest()
	req.Personal.IDNumber = "0801155009088"

	app, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, time.Date(1908, time.January, 15, 0, 0, 0, 0, time.UTC), app.Applicant.BirthDate)
	assert.Equal(t, 118, app.Applicant.Age)
}

func TestSubmitDocuments(t *testing.T) {
	svc, _ := newTestService(t)
	req := validRequest()
	req.Documents = []string{"payslip-september.pdf", " bank-statement.pdf"}

	app, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"payslip-september.pdf", "bank-statement.pdf"}, app.Documents)

	req.Documents[0] = "changed.pdf"
	stored, err := svc.Get(context.Background(), app.ID)
	require.NoError(t, err)
	assert.Equal(t, "payslip-september.pdf", stored.Documents[0])
}

func TestSubmitRiskBands(t *testing.T) {
	tests := []struct {
		name      string
		income    float64
		expenses  float64
		principal float64
		term      int
		expected  risk.Band
	}{
		{"Low", 30000, 10000, 10000, 30, risk.BandLow},
		{"Medium on debt-to-income", 30000, 10000, 25000, 3, risk.BandMedium},
		{"High on debt-to-income", 15000, 5000, 25000, 3, risk.BandHigh},
		{"High without income", 0, 0, 10000, 30, risk.BandHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			req := validRequest()
			req.Financial = FinancialDetails{MonthlyIncome: tt.income, MonthlyExpenses: tt.expenses}
			req.Loan.Principal = tt.principal
			req.Loan.TermMonths = tt.term

			app, err := svc.Submit(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, app.Risk.Band)
		})
	}
}

func TestSubmitRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SubmitRequest)
		wantErr error
	}{
		{"Missing first name", func(r *SubmitRequest) { r.Personal.FirstName = "" }, ErrInvalidRequest},
		{"Bad email", func(r *SubmitRequest) { r.Personal.Email = "not-an-email" }, ErrInvalidRequest},
		{"ID number wrong length", func(r *SubmitRequest) { r.Personal.IDNumber = "80010150090" }, ErrInvalidRequest},
		{"Unknown employment status", func(r *SubmitRequest) { r.Employment.Status = "pirate" }, ErrInvalidRequest},
		{"Negative income", func(r *SubmitRequest) { r.Financial.MonthlyIncome = -1 }, ErrInvalidRequest},
		{"Zero term", func(r *SubmitRequest) { r.Loan.TermMonths = 0 }, ErrInvalidRequest},
		{"Bad checksum", func(r *SubmitRequest) { r.Personal.IDNumber = "8001015009088" }, ErrInvalidIDNumber},
		{"Applicant under 18", func(r *SubmitRequest) { r.Personal.IDNumber = "0901015009086" }, ErrInvalidIDNumber},
		{"Principal above limit", func(r *SubmitRequest) { r.Loan.Principal = 300000 }, loans.ErrInvalidPrincipal},
		{"Principal below limit", func(r *SubmitRequest) { r.Loan.Principal = 100 }, loans.ErrInvalidPrincipal},
		{"Term above limit", func(r *SubmitRequest) { r.Loan.TermMonths = 31 }, loans.ErrInvalidTerm},
		{"Empty document name", func(r *SubmitRequest) { r.Documents = []string{"payslip.pdf", ""} }, ErrInvalidRequest},
		{"Duplicate documents", func(r *SubmitRequest) { r.Documents = []string{"payslip.pdf", "payslip.pdf"} }, ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			req := validRequest()
			tt.mutate(&req)

			_, err := svc.Submit(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)

			apps, err := svc.List(context.Background(), "")
			require.NoError(t, err)
			assert.Empty(t, apps, "rejected submissions must not be stored")
		})
	}
}

func TestSubmitInvalidRequestNamesField(t *testing.T) {
	svc, _ := newTestService(t)
	req := validRequest()
	req.Personal.Email = ""

	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "personal.email is required")
}

func TestListNewestFirstWithFilter(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)
	second, err := svc.Submit(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, first.ID, StatusApproved)
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	approved, err := svc.List(ctx, StatusApproved)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, first.ID, approved[0].ID)
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		path    []Status
		wantErr error
	}{
		{"Submitted to under review", []Status{StatusUnderReview}, nil},
		{"Review then approve", []Status{StatusUnderReview, StatusApproved}, nil},
		{"Decline directly", []Status{StatusDeclined}, nil},
		{"Back to submitted", []Status{StatusUnderReview, StatusSubmitted}, ErrInvalidTransition},
		{"Approved is final", []Status{StatusApproved, StatusDeclined}, ErrInvalidTransition},
		{"Declined is final", []Status{StatusDeclined, StatusUnderReview}, ErrInvalidTransition},
		{"Same status", []Status{StatusSubmitted}, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			ctx := context.Background()
			app, err := svc.Submit(ctx, validRequest())
			require.NoError(t, err)

			for i, status := range tt.path {
				app, err = svc.UpdateStatus(ctx, app.ID, status)
				if i < len(tt.path)-1 {
					require.NoError(t, err)
				}
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.path[len(tt.path)-1], app.Status)
		})
	}
}

func TestUpdateStatusUnknownApplication(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.UpdateStatus(context.Background(), uuid.New(), StatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUnknownApplication(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummary(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	empty, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Total)
	assert.Equal(t, 0.0, empty.AverageRequested)
	assert.Equal(t, 0.0, empty.AverageTermMonths)
	assert.Equal(t, 0, empty.ByStatus[StatusSubmitted])

	low := validRequest()
	high := validRequest()
	high.Financial = FinancialDetails{MonthlyIncome: 15000, MonthlyExpenses: 5000}
	high.Loan = LoanDetails{Principal: 25000, TermMonths: 3}

	lowApp, err := svc.Submit(ctx, low)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, high)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, lowApp.ID, StatusApproved)
	require.NoError(t, err)

	summary, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.ByStatus[StatusSubmitted])
	assert.Equal(t, 1, summary.ByStatus[StatusApproved])
	assert.Equal(t, 0, summary.ByStatus[StatusDeclined])
	assert.Equal(t, 1, summary.ByRiskBand[risk.BandLow])
	assert.Equal(t, 1, summary.ByRiskBand[risk.BandHigh])
	assert.Equal(t, 35000.0, summary.TotalRequested)
	assert.Equal(t, 17500.0, summary.AverageRequested)
	assert.Equal(t, 16.5, summary.AverageTermMonths)
	assert.Equal(t, 10000.0, summary.ApprovedPrincipal)
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		parsed, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseStatus("pending")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
