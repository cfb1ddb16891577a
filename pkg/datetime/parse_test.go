package datetime

import (
	"testing"
	"time"
)

func TestMustParseTime(t *testing.T) {
	result := MustParseTime(DateLayout, "1980-01-01")
	if result.Format(DateLayout) != "1980-01-01" {
		t.Errorf("MustParseTime() = %s, expected 1980-01-01", result.Format(DateLayout))
	}
}

func TestMustParseTimePanic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustParseTime() should have panicked on an invalid date")
		}
	}()
	MustParseTime(DateLayout, "1980-13-01")
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		name     string
		month    time.Month
		year     int
		expected int
	}{
		{"January", time.January, 2025, 31},
		{"April", time.April, 2025, 30},
		{"February leap year", time.February, 2000, 29},
		{"February common year", time.February, 2025, 28},
		{"February century non-leap", time.February, 1900, 28},
		{"December", time.December, 2025, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysInMonth(tt.month, tt.year); got != tt.expected {
				t.Errorf("DaysInMonth(%s, %d) = %d, expected %d", tt.month, tt.year, got, tt.expected)
			}
		})
	}
}

func TestAnniversaryPending(t *testing.T) {
	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		month    time.Month
		day      int
		expected bool
	}{
		{"Earlier this year", time.January, 15, false},
		{"Today", time.October, 15, false},
		{"Tomorrow", time.October, 16, true},
		{"December", time.December, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnniversaryPending(now, tt.month, tt.day); got != tt.expected {
				t.Errorf("AnniversaryPending(%s %d) = %v, expected %v", tt.month, tt.day, got, tt.expected)
			}
		})
	}
}
