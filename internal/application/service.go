package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/iwvelando/loan-origination/internal/metrics"
	"github.com/iwvelando/loan-origination/pkg/constants"
	"github.com/iwvelando/loan-origination/pkg/idnumber"
	"github.com/iwvelando/loan-origination/pkg/loans"
	"github.com/iwvelando/loan-origination/pkg/mathutil"
	"github.com/iwvelando/loan-origination/pkg/risk"
	"github.com/iwvelando/loan-origination/pkg/validation"
	"go.uber.org/zap"
)

// Options configures a Service. A nil AnnualInterestRate or CenturyPivot
// selects the product default; zero is a valid setting for both.
type Options struct {
	AnnualInterestRate *float64
	Limits             loans.Limits
	Thresholds         risk.Thresholds
	CenturyPivot       *int
	Now                func() time.Time
	Metrics            *metrics.Metrics
}

// Service handles application intake and review.
type Service struct {
	repo       Repository
	validate   *validator.Validate
	ids        *idnumber.Validator
	rate       float64
	limits     loans.Limits
	thresholds risk.Thresholds
	now        func() time.Time
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewService wires a Service over repo.
func NewService(repo Repository, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	rate := constants.DefaultAnnualInterestRate
	if opts.AnnualInterestRate != nil {
		rate = *opts.AnnualInterestRate
	}
	pivot := constants.DefaultCenturyPivot
	if opts.CenturyPivot != nil {
		pivot = *opts.CenturyPivot
	}
	if opts.Thresholds == (risk.Thresholds{}) {
		opts.Thresholds = risk.DefaultThresholds()
	}
	return &Service{
		repo:       repo,
		validate:   validation.New(),
		ids:        &idnumber.Validator{Now: opts.Now, CenturyPivot: pivot},
		rate:       rate,
		limits:     opts.Limits,
		thresholds: opts.Thresholds,
		now:        opts.Now,
		metrics:    opts.Metrics,
		logger:     logger,
	}
}

// Submit validates, prices and scores a completed application form and
// stores it as submitted.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (Application, error) {
	if err := s.validate.Struct(req); err != nil {
		return Application{}, fmt.Errorf("%w: %s", ErrInvalidRequest, validation.Describe(err))
	}

	idResult := s.ids.Validate(req.Personal.IDNumber)
	if s.metrics != nil {
		s.metrics.ObserveIDValidation(idResult.Valid)
	}
	if !idResult.Valid {
		s.logger.Info("application rejected on ID number",
			zap.String("op", "application.Submit"),
			zap.String("idNumber", idnumber.Mask(req.Personal.IDNumber)),
			zap.String("reason", idResult.Message),
		)
		return Application{}, fmt.Errorf("%w: %s", ErrInvalidIDNumber, idResult.Message)
	}

	quote, err := loans.NewQuote(req.Loan.Principal, req.Loan.TermMonths, s.rate, s.limits)
	if err != nil {
		return Application{}, err
	}
	if s.metrics != nil {
		s.metrics.ObserveQuote(quote.Principal)
	}

	assessment := s.thresholds.Assess(risk.Input{
		MonthlyIncome:     req.Financial.MonthlyIncome,
		MonthlyExpenses:   req.Financial.MonthlyExpenses,
		MonthlyInstalment: quote.TotalMonthlyInstalment,
	})

	now := s.now()
	id := uuid.New()
	app := Application{
		ID:        id,
		Reference: reference(id, now),
		Status:    StatusSubmitted,
		Applicant: Applicant{
			FirstName:      req.Personal.FirstName,
			LastName:       req.Personal.LastName,
			Email:          req.Personal.Email,
			Phone:          req.Personal.Phone,
			IDNumber:       req.Personal.IDNumber,
			MaskedIDNumber: idnumber.Mask(req.Personal.IDNumber),
			Gender:         idResult.Gender,
			Citizenship:    idResult.Citizenship,
			BirthDate:      *idResult.BirthDate,
			Age:            *idResult.Age,
		},
		Employment:  req.Employment,
		Financial:   req.Financial,
		Purpose:     req.Loan.Purpose,
		Quote:       quote,
		Risk:        assessment,
		Documents:   documents(req.Documents),
		SubmittedAt: now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, app); err != nil {
		return Application{}, fmt.Errorf("store application: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveApplication(string(assessment.Band))
	}

	s.logger.Info("application submitted",
		zap.String("op", "application.Submit"),
		zap.String("reference", app.Reference),
		zap.String("idNumber", app.Applicant.MaskedIDNumber),
		zap.Float64("principal", quote.Principal),
		zap.Int("termMonths", quote.TermMonths),
		zap.String("riskBand", string(assessment.Band)),
	)
	return app, nil
}

// Get returns one application.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Application, error) {
	return s.repo.Get(ctx, id)
}

// List returns applications newest first, filtered to status when it is set.
func (s *Service) List(ctx context.Context, status Status) ([]Application, error) {
	apps, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return apps, nil
	}
	filtered := make([]Application, 0, len(apps))
	for _, app := range apps {
		if app.Status == status {
			filtered = append(filtered, app)
		}
	}
	return filtered, nil
}

// UpdateStatus moves an application along the review workflow.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Application, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return Application{}, err
	}
	if !CanTransition(app.Status, status) {
		return Application{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, app.Status, status)
	}

	previous := app.Status
	app.Status = status
	app.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, app); err != nil {
		return Application{}, err
	}

	s.logger.Info("application status changed",
		zap.String("op", "application.UpdateStatus"),
		zap.String("reference", app.Reference),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
	)
	return app, nil
}

// Summary counts applications by status and risk band.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	apps, err := s.repo.List(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		Total:      len(apps),
		ByStatus:   make(map[Status]int, len(Statuses)),
		ByRiskBand: map[risk.Band]int{risk.BandLow: 0, risk.BandMedium: 0, risk.BandHigh: 0},
	}
	for _, status := range Statuses {
		summary.ByStatus[status] = 0
	}

	var totalTerm int
	for _, app := range apps {
		summary.ByStatus[app.Status]++
		summary.ByRiskBand[app.Risk.Band]++
		summary.TotalRequested += app.Quote.Principal
		totalTerm += app.Quote.TermMonths
		if app.Status == StatusApproved {
			summary.ApprovedPrincipal += app.Quote.Principal
		}
	}
	summary.TotalRequested = mathutil.Round(summary.TotalRequested)
	summary.ApprovedPrincipal = mathutil.Round(summary.ApprovedPrincipal)
	summary.AverageRequested = mathutil.Round(mathutil.SafeDivide(summary.TotalRequested, float64(summary.Total)))
	summary.AverageTermMonths = mathutil.Round(mathutil.SafeDivide(float64(totalTerm), float64(summary.Total)))
	return summary, nil
}

// documents copies the uploaded names so the stored application never
// aliases the request, and so an empty list encodes as [].
func documents(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, strings.TrimSpace(name))
	}
	return out
}

// reference is the short human-facing identifier quoted to applicants.
func reference(id uuid.UUID, at time.Time) string {
	return fmt.Sprintf("LN%s-%s", at.Format("060102"), strings.ToUpper(id.String()[:6]))
}
