package risk

import (
	"math"
	"testing"
)

func TestAssess(t *testing.T) {
	tests := []struct {
		name        string
		input       Input
		band        Band
		reasonCount int
	}{
		{
			name:        "Comfortable applicant",
			input:       Input{MonthlyIncome: 40000, MonthlyExpenses: 15000, MonthlyInstalment: 4000},
			band:        BandLow,
			reasonCount: 0,
		},
		{
			name:        "Debt to income above medium threshold",
			input:       Input{MonthlyIncome: 20000, MonthlyExpenses: 2000, MonthlyInstalment: 6000},
			band:        BandMedium,
			reasonCount: 1,
		},
		{
			name:        "Instalment uses most of disposable income",
			input:       Input{MonthlyIncome: 20000, MonthlyExpenses: 14000, MonthlyInstalment: 4000},
			band:        BandMedium,
			reasonCount: 1,
		},
		{
			name:        "Debt to income above high threshold",
			input:       Input{MonthlyIncome: 20000, MonthlyExpenses: 1000, MonthlyInstalment: 9000},
			band:        BandHigh,
			reasonCount: 1,
		},
		{
			name:        "Disposable income does not cover instalment",
			input:       Input{MonthlyIncome: 20000, MonthlyExpenses: 18000, MonthlyInstalment: 3000},
			band:        BandHigh,
			reasonCount: 1,
		},
		{
			name:        "No income",
			input:       Input{MonthlyIncome: 0, MonthlyExpenses: 0, MonthlyInstalment: 1000},
			band:        BandHigh,
			reasonCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Assess(tt.input)
			if result.Band != tt.band {
				t.Errorf("Band = %s, expected %s (reasons %v)", result.Band, tt.band, result.Reasons)
			}
			if len(result.Reasons) != tt.reasonCount {
				t.Errorf("Reasons = %v, expected %d", result.Reasons, tt.reasonCount)
			}
		})
	}
}

func TestAssessRatios(t *testing.T) {
	result := Assess(Input{MonthlyIncome: 30000, MonthlyExpenses: 10000, MonthlyInstalment: 5000})

	if result.DisposableIncome != 20000 {
		t.Errorf("DisposableIncome = %v, expected 20000", result.DisposableIncome)
	}
	if math.Abs(result.DebtToIncomeRatio-5000.0/30000.0) > 1e-9 {
		t.Errorf("DebtToIncomeRatio = %v", result.DebtToIncomeRatio)
	}
	if math.Abs(result.AffordabilityRatio-0.25) > 1e-9 {
		t.Errorf("AffordabilityRatio = %v, expected 0.25", result.AffordabilityRatio)
	}
}

func TestCustomThresholds(t *testing.T) {
	strict := Thresholds{HighDebtToIncome: 0.10, MediumDebtToIncome: 0.05, MediumAffordability: 0.10}
	result := strict.Assess(Input{MonthlyIncome: 40000, MonthlyExpenses: 15000, MonthlyInstalment: 4000})
	if result.Band != BandMedium {
		t.Errorf("Band = %s, expected medium with strict thresholds", result.Band)
	}
}

func TestAssessReasonText(t *testing.T) {
	result := Assess(Input{MonthlyIncome: 10000, MonthlyExpenses: 9000, MonthlyInstalment: 1500})

	expected := []string{
		"disposable income R1,000.00 does not cover the instalment R1,500.00",
	}
	if len(result.Reasons) != len(expected) {
		t.Fatalf("Reasons = %v, expected %v", result.Reasons, expected)
	}
	for i := range expected {
		if result.Reasons[i] != expected[i] {
			t.Errorf("Reasons[%d] = %q, expected %q", i, result.Reasons[i], expected[i])
		}
	}

	medium := Assess(Input{MonthlyIncome: 10000, MonthlyExpenses: 2000, MonthlyInstalment: 3000})
	if medium.Band != BandMedium {
		t.Fatalf("Band = %s, expected medium", medium.Band)
	}
	if len(medium.Reasons) != 1 || medium.Reasons[0] != "instalment is 30.00% of income, above 25.00%" {
		t.Errorf("Reasons = %v", medium.Reasons)
	}
}
