// Package idnumber validates 13-digit South African identity numbers and
// decodes the birth date, gender and citizenship status they carry.
//
// The layout is YYMMDD SSSS C A Z: date of birth, gender sequence,
// citizenship digit, a legacy digit and the check digit.
package idnumber

import (
	"fmt"
	"time"

	"github.com/iwvelando/loan-origination/pkg/constants"
	"github.com/iwvelando/loan-origination/pkg/datetime"
)

// Gender decoded from the gender sequence digits.
type Gender string

const (
	GenderFemale Gender = "female"
	GenderMale   Gender = "male"
)

// Citizenship decoded from the eleventh digit.
type Citizenship string

const (
	CitizenshipCitizen           Citizenship = "citizen"
	CitizenshipPermanentResident Citizenship = "permanent_resident"
)

// referenceLeapYear is used for the day-of-month check so that 29 February
// is accepted regardless of the encoded year.
const referenceLeapYear = 2000

// Result is the outcome of validating one ID number. Invalid results carry
// whichever attributes were decoded before the failing check.
type Result struct {
	Valid       bool        `json:"valid" yaml:"valid"`
	Message     string      `json:"message" yaml:"message"`
	Gender      Gender      `json:"gender,omitempty" yaml:"gender,omitempty"`
	Citizenship Citizenship `json:"citizenship,omitempty" yaml:"citizenship,omitempty"`
	BirthDate   *time.Time  `json:"birthDate,omitempty" yaml:"birthDate,omitempty"`
	Age         *int        `json:"age,omitempty" yaml:"age,omitempty"`
}

// Validator checks ID numbers against a clock and a century pivot.
type Validator struct {
	// Now returns the reference time for age checks. Defaults to time.Now.
	Now func() time.Time
	// CenturyPivot is the highest two-digit year resolved into the 2000s;
	// larger years resolve into the 1900s.
	CenturyPivot int
}

// New returns a Validator using the wall clock and the default century pivot.
func New() *Validator {
	return &Validator{Now: time.Now, CenturyPivot: constants.DefaultCenturyPivot}
}

// Validate checks id with the default Validator.
func Validate(id string) Result {
	return New().Validate(id)
}

// Validate runs every check in order and stops at the first failure. It
// never panics: any input string yields exactly one verdict.
func (v *Validator) Validate(id string) Result {
	for i := 0; i < len(id); i++ {
		if !isDigit(id[i]) {
			return invalid("ID number must contain only digits")
		}
	}

	if len(id) != constants.IDNumberLength {
		return invalid(fmt.Sprintf("ID number must be exactly %d digits, got %d", constants.IDNumberLength, len(id)))
	}

	year2 := number(id[0:2])
	month := number(id[2:4])
	day := number(id[4:6])

	if month < 1 || month > 12 {
		return invalid(fmt.Sprintf("invalid birth month %02d, must be between 01 and 12", month))
	}

	maxDay := datetime.DaysInMonth(time.Month(month), referenceLeapYear)
	if day < 1 || day > maxDay {
		return invalid(fmt.Sprintf("invalid birth day %02d for month %02d, must be between 01 and %02d", day, month, maxDay))
	}

	result := Result{}

	sequence := number(id[6:10])
	if sequence < 0 || sequence > constants.GenderSequenceMax {
		return invalid(fmt.Sprintf("invalid gender sequence %04d", sequence))
	}
	if sequence >= constants.GenderSequenceMaleThreshold {
		result.Gender = GenderMale
	} else {
		result.Gender = GenderFemale
	}

	switch id[10] {
	case '0':
		result.Citizenship = CitizenshipCitizen
	case '1':
		result.Citizenship = CitizenshipPermanentResident
	default:
		result.Message = fmt.Sprintf("invalid citizenship digit %c, must be 0 (citizen) or 1 (permanent resident)", id[10])
		return result
	}

	now := v.now()
	birthYear := v.resolveCentury(year2)
	birthDate := time.Date(birthYear, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	age := now.Year() - birthYear
	result.BirthDate = &birthDate
	result.Age = &age

	if age < constants.MinimumApplicantAge ||
		(age == constants.MinimumApplicantAge && datetime.AnniversaryPending(now, time.Month(month), day)) {
		result.Message = fmt.Sprintf("applicant must be at least %d years old: born %s, age %d",
			constants.MinimumApplicantAge, birthDate.Format(datetime.DateLayout), age)
		return result
	}

	expected := checkDigit(id[:constants.IDNumberLength-1])
	actual := int(id[constants.IDNumberLength-1] - '0')
	if expected != actual {
		result.Message = fmt.Sprintf("invalid checksum: expected check digit %d, got %d", expected, actual)
		return result
	}

	result.Valid = true
	result.Message = fmt.Sprintf("valid ID number (%s, %s)", result.Gender, citizenshipLabel(result.Citizenship))
	return result
}

// CheckDigit computes the check digit for the first twelve digits of an ID
// number.
func CheckDigit(first12 string) (int, error) {
	if len(first12) != constants.IDNumberLength-1 {
		return 0, fmt.Errorf("expected %d digits, got %d", constants.IDNumberLength-1, len(first12))
	}
	for i := 0; i < len(first12); i++ {
		if !isDigit(first12[i]) {
			return 0, fmt.Errorf("non-digit character at position %d", i+1)
		}
	}
	return checkDigit(first12), nil
}

// Mask hides everything after the date of birth so ID numbers can be logged.
func Mask(id string) string {
	if len(id) <= 6 {
		return id
	}
	masked := []byte(id)
	for i := 6; i < len(masked); i++ {
		masked[i] = '*'
	}
	return string(masked)
}

// checkDigit walks from the digit next to the check digit towards the front,
// doubling every other digit and folding results above 9.
func checkDigit(digits string) int {
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}

func (v *Validator) now() time.Time {
	if v.Now == nil {
		return time.Now()
	}
	return v.Now()
}

func (v *Validator) resolveCentury(year2 int) int {
	if year2 <= v.CenturyPivot {
		return 2000 + year2
	}
	return 1900 + year2
}

func citizenshipLabel(c Citizenship) string {
	if c == CitizenshipPermanentResident {
		return "permanent resident"
	}
	return string(c)
}

func invalid(message string) Result {
	return Result{Message: message}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func number(digits string) int {
	n := 0
	for i := 0; i < len(digits); i++ {
		n = n*10 + int(digits[i]-'0')
	}
	return n
}
