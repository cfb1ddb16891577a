package testutil

import (
	"testing"
	"time"

	"github.com/iwvelando/loan-origination/pkg/idnumber"
)

func TestIDNumber(t *testing.T) {
	tests := []struct {
		name              string
		birthDate         time.Time
		sequence          int
		permanentResident bool
		expected          string
	}{
		{
			name:      "Male citizen born 1980",
			birthDate: time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC),
			sequence:  5009,
			expected:  "8001015009087",
		},
		{
			name:      "Female citizen born 1980",
			birthDate: time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC),
			sequence:  4999,
			expected:  "8001014999080",
		},
		{
			name:              "Male permanent resident born 1980",
			birthDate:         time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC),
			sequence:          5009,
			permanentResident: true,
			expected:          "8001015009186",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IDNumber(tt.birthDate, tt.sequence, tt.permanentResident)
			if got != tt.expected {
				t.Errorf("IDNumber() = %s, expected %s", got, tt.expected)
			}
		})
	}
}

func TestAdultIDNumberValidates(t *testing.T) {
	v := &idnumber.Validator{Now: FixedClock(ReferenceNow), CenturyPivot: 23}
	if result := v.Validate(AdultIDNumber()); !result.Valid {
		t.Errorf("AdultIDNumber() should validate, got %q", result.Message)
	}
}

func TestFixedClock(t *testing.T) {
	clock := FixedClock(ReferenceNow)
	if !clock().Equal(ReferenceNow) {
		t.Errorf("FixedClock() = %v, expected %v", clock(), ReferenceNow)
	}
}
