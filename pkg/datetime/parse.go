// Package datetime provides date and time utility functions.
package datetime

import (
	"time"

	"github.com/iwvelando/loan-origination/pkg/constants"
)

const (
	// DateLayout is the format used for birth dates in messages and output.
	DateLayout = constants.DateLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// DaysInMonth returns the number of days in the given month of the given year.
func DaysInMonth(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AnniversaryPending reports whether the given month and day still lie ahead
// of now within now's calendar year.
func AnniversaryPending(now time.Time, month time.Month, day int) bool {
	anniversary := time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location())
	return anniversary.After(now)
}
