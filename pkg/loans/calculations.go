// Package loans provides the loan cost calculator: amortized instalment, fee
// schedule, total cost of credit and the month-by-month repayment schedule.
package loans

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/loan-origination/pkg/constants"
	"github.com/iwvelando/loan-origination/pkg/mathutil"
	"go.uber.org/zap"
)

var (
	// ErrInvalidPrincipal is returned when the principal is not a positive amount within limits.
	ErrInvalidPrincipal = errors.New("invalid principal")
	// ErrInvalidTerm is returned when the term is shorter than one month or outside limits.
	ErrInvalidTerm = errors.New("invalid term")
	// ErrInvalidRate is returned when the annual interest rate is negative or not a number.
	ErrInvalidRate = errors.New("invalid interest rate")
)

// Quote holds the full cost of credit for one principal, term and rate.
type Quote struct {
	Principal              float64 `json:"principal" yaml:"principal"`
	TermMonths             int     `json:"termMonths" yaml:"termMonths"`
	AnnualInterestRate     float64 `json:"annualInterestRatePercent" yaml:"annualInterestRatePercent"`
	MonthlyPayment         float64 `json:"monthlyPayment" yaml:"monthlyPayment"`
	TotalInterest          float64 `json:"totalInterest" yaml:"totalInterest"`
	InitiationFee          float64 `json:"initiationFee" yaml:"initiationFee"`
	MonthlyServiceFee      float64 `json:"monthlyServiceFee" yaml:"monthlyServiceFee"`
	MonthlyInsurance       float64 `json:"monthlyInsurance" yaml:"monthlyInsurance"`
	TotalServiceFee        float64 `json:"totalServiceFee" yaml:"totalServiceFee"`
	TotalInsurance         float64 `json:"totalInsurance" yaml:"totalInsurance"`
	TotalMonthlyInstalment float64 `json:"totalMonthlyInstalment" yaml:"totalMonthlyInstalment"`
	TotalRepayment         float64 `json:"totalRepayment" yaml:"totalRepayment"`
}

// Limits bounds the requests accepted by NewQuote. Zero values disable the
// corresponding upper or lower bound beyond the basic sanity checks.
type Limits struct {
	MinPrincipal  float64
	MaxPrincipal  float64
	MinTermMonths int
	MaxTermMonths int
}

// MonthlyRate converts an annual percentage rate into the periodic monthly rate.
func MonthlyRate(annualInterestRate float64) float64 {
	return annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the standard amortization formula.
func CalculateMonthlyPayment(principal, annualInterestRate float64, termMonths int) float64 {
	periodicInterestRate := MonthlyRate(annualInterestRate)
	if periodicInterestRate == 0 {
		// For zero interest, simply divide the principal by term
		return principal / float64(termMonths)
	}

	growth := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	return principal * growth * periodicInterestRate / (growth - 1.00)
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualInterestRate float64) float64 {
	return remainingPrincipal * MonthlyRate(annualInterestRate)
}

// InitiationFee is the once-off origination charge, capped.
func InitiationFee(principal float64) float64 {
	return mathutil.Min(constants.InitiationFeeBase+constants.InitiationFeeRate*principal, constants.InitiationFeeCap)
}

// MonthlyInsurance is the monthly credit-life premium.
func MonthlyInsurance(principal float64) float64 {
	return constants.CreditLifeInsuranceRate * principal
}

// CalculateQuote computes the cost of credit. It has no failure path: any
// non-finite intermediate (a zero or negative term, for example) is reported
// as 0 so a malformed input degrades to a visible zero. Callers that accept
// user input should go through NewQuote instead.
func CalculateQuote(principal float64, termMonths int, annualInterestRate float64) Quote {
	months := float64(termMonths)
	monthlyPayment := CalculateMonthlyPayment(principal, annualInterestRate, termMonths)
	initiationFee := InitiationFee(principal)
	monthlyInsurance := MonthlyInsurance(principal)
	totalServiceFee := constants.MonthlyServiceFee * months
	totalInsurance := monthlyInsurance * months

	return Quote{
		Principal:              principal,
		TermMonths:             termMonths,
		AnnualInterestRate:     annualInterestRate,
		MonthlyPayment:         mathutil.Finite(monthlyPayment),
		TotalInterest:          mathutil.Finite(monthlyPayment*months - principal),
		InitiationFee:          mathutil.Finite(initiationFee),
		MonthlyServiceFee:      constants.MonthlyServiceFee,
		MonthlyInsurance:       mathutil.Finite(monthlyInsurance),
		TotalServiceFee:        mathutil.Finite(totalServiceFee),
		TotalInsurance:         mathutil.Finite(totalInsurance),
		TotalMonthlyInstalment: mathutil.Finite(monthlyPayment + constants.MonthlyServiceFee + monthlyInsurance),
		TotalRepayment:         mathutil.Finite(monthlyPayment*months + initiationFee + totalServiceFee + totalInsurance),
	}
}

// NewQuote checks the request against the basic contract and the given
// limits before computing the quote.
func NewQuote(principal float64, termMonths int, annualInterestRate float64, limits Limits) (Quote, error) {
	if err := limits.Check(principal, termMonths, annualInterestRate); err != nil {
		return Quote{}, err
	}
	return CalculateQuote(principal, termMonths, annualInterestRate), nil
}

// Check reports why a request falls outside the limits, or nil.
func (l Limits) Check(principal float64, termMonths int, annualInterestRate float64) error {
	if math.IsNaN(principal) || math.IsInf(principal, 0) || principal <= 0 {
		return fmt.Errorf("%w: %.2f must be greater than zero", ErrInvalidPrincipal, principal)
	}
	if l.MinPrincipal > 0 && principal < l.MinPrincipal {
		return fmt.Errorf("%w: %.2f is below the minimum of %.2f", ErrInvalidPrincipal, principal, l.MinPrincipal)
	}
	if l.MaxPrincipal > 0 && principal > l.MaxPrincipal {
		return fmt.Errorf("%w: %.2f exceeds the maximum of %.2f", ErrInvalidPrincipal, principal, l.MaxPrincipal)
	}

	minTerm := l.MinTermMonths
	if minTerm < 1 {
		minTerm = 1
	}
	if termMonths < minTerm {
		return fmt.Errorf("%w: %d months is below the minimum of %d", ErrInvalidTerm, termMonths, minTerm)
	}
	if l.MaxTermMonths > 0 && termMonths > l.MaxTermMonths {
		return fmt.Errorf("%w: %d months exceeds the maximum of %d", ErrInvalidTerm, termMonths, l.MaxTermMonths)
	}

	if math.IsNaN(annualInterestRate) || math.IsInf(annualInterestRate, 0) || annualInterestRate < 0 {
		return fmt.Errorf("%w: %.2f%% must not be negative", ErrInvalidRate, annualInterestRate)
	}
	return nil
}

// SchedulePayment holds the values for one month of the repayment schedule.
type SchedulePayment struct {
	Month              int     `json:"month" yaml:"month"`
	Payment            float64 `json:"payment" yaml:"payment"`
	Principal          float64 `json:"principal" yaml:"principal"`
	Interest           float64 `json:"interest" yaml:"interest"`
	ServiceFee         float64 `json:"serviceFee" yaml:"serviceFee"`
	Insurance          float64 `json:"insurance" yaml:"insurance"`
	Instalment         float64 `json:"instalment" yaml:"instalment"`
	RemainingPrincipal float64 `json:"remainingPrincipal" yaml:"remainingPrincipal"`
}

// ScheduleGenerator produces repayment schedules for quotes.
type ScheduleGenerator struct {
	logger *zap.Logger
}

// NewScheduleGenerator creates a new generator instance
func NewScheduleGenerator(logger *zap.Logger) *ScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGenerator{logger: logger}
}

// GenerateSchedule splits every monthly payment of the quote into interest
// and principal. The instalments plus the initiation fee add up to the
// quote's total repayment.
func (g *ScheduleGenerator) GenerateSchedule(q Quote) []SchedulePayment {
	if q.TermMonths < 1 || q.Principal <= 0 {
		g.logger.Debug(fmt.Sprintf("no schedule for a %d month term on %.2f", q.TermMonths, q.Principal),
			zap.String("op", "loans.GenerateSchedule"),
		)
		return nil
	}

	schedule := make([]SchedulePayment, 0, q.TermMonths)
	remaining := q.Principal

	for month := 1; month <= q.TermMonths; month++ {
		var current SchedulePayment
		current.Month = month
		current.Interest = CalculateInterestPayment(remaining, q.AnnualInterestRate)
		current.Principal = q.MonthlyPayment - current.Interest
		current.Payment = q.MonthlyPayment

		if month == q.TermMonths || mathutil.IsZero(mathutil.Round(remaining-current.Principal)) {
			// We will get machine error otherwise so just set to 0.
			current.Principal = remaining
			current.RemainingPrincipal = 0.00
			if month != q.TermMonths {
				g.logger.Debug(fmt.Sprintf("principal settled early in month %d of %d", month, q.TermMonths),
					zap.String("op", "loans.GenerateSchedule"),
				)
			}
		} else {
			current.RemainingPrincipal = remaining - current.Principal
		}

		current.ServiceFee = q.MonthlyServiceFee
		current.Insurance = q.MonthlyInsurance
		current.Instalment = current.Payment + current.ServiceFee + current.Insurance
		schedule = append(schedule, current)

		remaining = current.RemainingPrincipal
		if remaining == 0 {
			break
		}
	}

	return schedule
}
