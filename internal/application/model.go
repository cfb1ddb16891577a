// Package application takes loan applications from submission through
// review. Submissions are gated on a valid ID number and the product limits,
// priced with the loan calculator and scored for affordability.
package application

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-origination/pkg/idnumber"
	"github.com/iwvelando/loan-origination/pkg/loans"
	"github.com/iwvelando/loan-origination/pkg/risk"
)

var (
	// ErrNotFound is returned when no application has the requested ID.
	ErrNotFound = errors.New("application not found")
	// ErrInvalidRequest is returned when a submission fails field validation.
	ErrInvalidRequest = errors.New("invalid application")
	// ErrInvalidIDNumber is returned when the applicant's ID number is rejected.
	ErrInvalidIDNumber = errors.New("invalid ID number")
	// ErrInvalidStatus is returned for an unknown status value.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Status is the review state of an application.
type Status string

const (
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusDeclined    Status = "declined"
)

// Statuses lists every status in workflow order.
var Statuses = []Status{StatusSubmitted, StatusUnderReview, StatusApproved, StatusDeclined}

var transitions = map[Status][]Status{
	StatusSubmitted:   {StatusUnderReview, StatusApproved, StatusDeclined},
	StatusUnderReview: {StatusApproved, StatusDeclined},
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, error) {
	for _, s := range Statuses {
		if string(s) == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
}

// CanTransition reports whether an application may move from one status to
// another. Approved and declined are final.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PersonalDetails is the first step of the application form.
type PersonalDetails struct {
	FirstName string `json:"firstName" validate:"required,max=60"`
	LastName  string `json:"lastName" validate:"required,max=60"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,min=10,max=15"`
	IDNumber  string `json:"idNumber" validate:"required,idnumber"`
}

// EmploymentDetails is the employment step of the application form.
type EmploymentDetails struct {
	Status         string `json:"status" validate:"required,oneof=employed self_employed unemployed retired student"`
	Employer       string `json:"employer,omitempty" validate:"omitempty,max=120"`
	MonthsEmployed int    `json:"monthsEmployed" validate:"gte=0"`
}

// FinancialDetails is the income and expenditure step.
type FinancialDetails struct {
	MonthlyIncome   float64 `json:"monthlyIncome" validate:"gte=0"`
	MonthlyExpenses float64 `json:"monthlyExpenses" validate:"gte=0"`
}

// LoanDetails is the amount and term requested.
type LoanDetails struct {
	Principal  float64 `json:"principal" validate:"gt=0"`
	TermMonths int     `json:"termMonths" validate:"gte=1"`
	Purpose    string  `json:"purpose,omitempty" validate:"omitempty,max=200"`
}

// SubmitRequest is the completed application form.
type SubmitRequest struct {
	Personal   PersonalDetails   `json:"personal"`
	Employment EmploymentDetails `json:"employment"`
	Financial  FinancialDetails  `json:"financial"`
	Loan       LoanDetails       `json:"loan"`
	// Documents names the supporting files uploaded with the form.
	Documents []string `json:"documents,omitempty" validate:"omitempty,max=10,unique,dive,required,max=120"`
}

// Applicant is the stored view of the applicant. The raw ID number never
// leaves the service; responses carry the masked form.
type Applicant struct {
	FirstName      string               `json:"firstName"`
	LastName       string               `json:"lastName"`
	Email          string               `json:"email"`
	Phone          string               `json:"phone"`
	IDNumber       string               `json:"-"`
	MaskedIDNumber string               `json:"idNumber"`
	Gender         idnumber.Gender      `json:"gender"`
	Citizenship    idnumber.Citizenship `json:"citizenship"`
	BirthDate      time.Time            `json:"birthDate"`
	Age            int                  `json:"age"`
}

// Application is one submitted loan application.
type Application struct {
	ID          uuid.UUID         `json:"id"`
	Reference   string            `json:"reference"`
	Status      Status            `json:"status"`
	Applicant   Applicant         `json:"applicant"`
	Employment  EmploymentDetails `json:"employment"`
	Financial   FinancialDetails  `json:"financial"`
	Purpose     string            `json:"purpose,omitempty"`
	Quote       loans.Quote       `json:"quote"`
	Risk        risk.Assessment   `json:"risk"`
	Documents   []string          `json:"documents"`
	SubmittedAt time.Time         `json:"submittedAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Summary is the live admin dashboard view over all applications.
type Summary struct {
	Total             int               `json:"total"`
	ByStatus          map[Status]int    `json:"byStatus"`
	ByRiskBand        map[risk.Band]int `json:"byRiskBand"`
	TotalRequested    float64           `json:"totalRequested"`
	AverageRequested  float64           `json:"averageRequested"`
	AverageTermMonths float64           `json:"averageTermMonths"`
	ApprovedPrincipal float64           `json:"approvedPrincipal"`
}
