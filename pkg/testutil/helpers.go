// Package testutil provides common utility functions for testing.
package testutil

import (
	"fmt"
	"time"

	"github.com/iwvelando/loan-origination/pkg/idnumber"
)

// ReferenceNow is the fixed clock used across package tests.
var ReferenceNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

// FixedClock returns a clock function that always reports now.
func FixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

// IDNumber builds a 13-digit ID number with a correct check digit for the
// given birth date and gender sequence. Citizens get citizenship digit 0,
// permanent residents 1. Panics on out-of-range input.
func IDNumber(birthDate time.Time, sequence int, permanentResident bool) string {
	citizenship := 0
	if permanentResident {
		citizenship = 1
	}
	first12 := fmt.Sprintf("%02d%02d%02d%04d%d8",
		birthDate.Year()%100, int(birthDate.Month()), birthDate.Day(), sequence, citizenship)
	check, err := idnumber.CheckDigit(first12)
	if err != nil {
		panic(err)
	}
	return fmt.Sprintf("%s%d", first12, check)
}

// AdultIDNumber returns a valid ID number for a male citizen born on
// 1 January 1980.
func AdultIDNumber() string {
	return IDNumber(time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC), 5009, false)
}
