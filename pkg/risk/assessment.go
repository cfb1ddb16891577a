// Package risk scores loan affordability from applicant income, expenses and
// the quoted instalment. It is pure arithmetic: no I/O, no side effects.
package risk

import (
	"fmt"

	"github.com/iwvelando/loan-origination/pkg/constants"
	"github.com/iwvelando/loan-origination/pkg/format"
	"github.com/iwvelando/loan-origination/pkg/mathutil"
)

// Band is the coarse risk classification shown on the admin dashboard.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// Input holds the monthly figures an assessment is based on.
type Input struct {
	MonthlyIncome     float64
	MonthlyExpenses   float64
	MonthlyInstalment float64
}

// Thresholds are the ratio limits separating the bands.
type Thresholds struct {
	HighDebtToIncome    float64 `mapstructure:"highDebtToIncome" yaml:"highDebtToIncome"`
	MediumDebtToIncome  float64 `mapstructure:"mediumDebtToIncome" yaml:"mediumDebtToIncome"`
	MediumAffordability float64 `mapstructure:"mediumAffordability" yaml:"mediumAffordability"`
}

// DefaultThresholds returns the standard band limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighDebtToIncome:    constants.DefaultHighRiskDebtToIncome,
		MediumDebtToIncome:  constants.DefaultMediumRiskDebtToIncome,
		MediumAffordability: constants.DefaultMediumRiskAffordability,
	}
}

// Assessment is the outcome of Assess.
type Assessment struct {
	DisposableIncome   float64  `json:"disposableIncome"`
	DebtToIncomeRatio  float64  `json:"debtToIncomeRatio"`
	AffordabilityRatio float64  `json:"affordabilityRatio"`
	Band               Band     `json:"band"`
	Reasons            []string `json:"reasons,omitempty"`
}

// Assess applies the rules in priority order. Any hard rule puts the
// application in the high band; soft rules only raise it to medium.
func (t Thresholds) Assess(in Input) Assessment {
	disposable := in.MonthlyIncome - in.MonthlyExpenses
	a := Assessment{
		DisposableIncome:   mathutil.Round(disposable),
		DebtToIncomeRatio:  mathutil.SafeDivide(in.MonthlyInstalment, in.MonthlyIncome),
		AffordabilityRatio: mathutil.SafeDivide(in.MonthlyInstalment, disposable),
		Band:               BandLow,
	}

	// Hard rules
	if in.MonthlyIncome <= 0 {
		a.Reasons = append(a.Reasons, "no declared monthly income")
	}
	if disposable <= in.MonthlyInstalment {
		a.Reasons = append(a.Reasons, fmt.Sprintf("disposable income %s does not cover the instalment %s",
			format.Currency(disposable), format.Currency(in.MonthlyInstalment)))
	}
	if a.DebtToIncomeRatio > t.HighDebtToIncome {
		a.Reasons = append(a.Reasons, fmt.Sprintf("instalment is %s of income, above %s",
			percent(a.DebtToIncomeRatio), percent(t.HighDebtToIncome)))
	}
	if len(a.Reasons) > 0 {
		a.Band = BandHigh
		return a
	}

	// Soft rules
	if a.DebtToIncomeRatio > t.MediumDebtToIncome {
		a.Reasons = append(a.Reasons, fmt.Sprintf("instalment is %s of income, above %s",
			percent(a.DebtToIncomeRatio), percent(t.MediumDebtToIncome)))
	}
	if a.AffordabilityRatio > t.MediumAffordability {
		a.Reasons = append(a.Reasons, fmt.Sprintf("instalment uses %s of disposable income, above %s",
			percent(a.AffordabilityRatio), percent(t.MediumAffordability)))
	}
	if len(a.Reasons) > 0 {
		a.Band = BandMedium
	}
	return a
}

// Assess scores in with the default thresholds.
func Assess(in Input) Assessment {
	return DefaultThresholds().Assess(in)
}

func percent(ratio float64) string {
	return format.Percent(ratio * constants.PercentageMultiplier)
}
