// Package output provides utilities for formatting and displaying validation
// and quote results on the command line.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/loan-origination/pkg/constants"
	"github.com/iwvelando/loan-origination/pkg/idnumber"
	"github.com/iwvelando/loan-origination/pkg/loans"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// Report bundles whatever the CLI computed in one run. Nil sections are skipped.
type Report struct {
	IDNumber string                  `json:"idNumber,omitempty" yaml:"idNumber,omitempty"`
	ID       *idnumber.Result        `json:"idValidation,omitempty" yaml:"idValidation,omitempty"`
	Quote    *loans.Quote            `json:"quote,omitempty" yaml:"quote,omitempty"`
	Schedule []loans.SchedulePayment `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// Write renders the report in the named format.
func Write(w io.Writer, format string, report Report) error {
	switch format {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, report)
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatJSON:
		return JSONFormat(w, report)
	case constants.OutputFormatYAML:
		return YAMLFormat(w, report)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, report Report) error {
	p := message.NewPrinter(language.English)

	if report.ID != nil {
		_, _ = fmt.Fprintf(w, "--- ID number %s ---\n", report.IDNumber)
		verdict := "INVALID"
		if report.ID.Valid {
			verdict = "VALID"
		}
		_, _ = fmt.Fprintf(w, "Result      | %s\n", verdict)
		_, _ = fmt.Fprintf(w, "Message     | %s\n", report.ID.Message)
		if report.ID.BirthDate != nil {
			_, _ = fmt.Fprintf(w, "Birth date  | %s\n", report.ID.BirthDate.Format(constants.DateLayout))
		}
		if report.ID.Age != nil {
			_, _ = fmt.Fprintf(w, "Age         | %d\n", *report.ID.Age)
		}
		if report.ID.Gender != "" {
			_, _ = fmt.Fprintf(w, "Gender      | %s\n", report.ID.Gender)
		}
		if report.ID.Citizenship != "" {
			_, _ = fmt.Fprintf(w, "Citizenship | %s\n", report.ID.Citizenship)
		}
		if report.Quote != nil {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}

	if q := report.Quote; q != nil {
		_, _ = fmt.Fprintf(w, "--- Quote for R%s over %d months at %.2f%% ---\n",
			p.Sprintf("%.2f", q.Principal), q.TermMonths, q.AnnualInterestRate)
		rows := []struct {
			label  string
			amount float64
		}{
			{"Monthly payment      ", q.MonthlyPayment},
			{"Monthly service fee  ", q.MonthlyServiceFee},
			{"Monthly insurance    ", q.MonthlyInsurance},
			{"Monthly instalment   ", q.TotalMonthlyInstalment},
			{"Initiation fee       ", q.InitiationFee},
			{"Total interest       ", q.TotalInterest},
			{"Total service fees   ", q.TotalServiceFee},
			{"Total insurance      ", q.TotalInsurance},
			{"Total repayment      ", q.TotalRepayment},
		}
		for _, row := range rows {
			_, _ = p.Fprintf(w, "%s| R%.2f\n", row.label, row.amount)
		}
	}

	if len(report.Schedule) > 0 {
		_, _ = fmt.Fprintf(w, "\nMonth | Payment | Interest | Principal | Instalment | Remaining\n")
		_, _ = fmt.Fprintf(w, "_____ | _______ | ________ | _________ | __________ | _________\n")
		for _, payment := range report.Schedule {
			_, _ = p.Fprintf(w, "%5d | R%.2f | R%.2f | R%.2f | R%.2f | R%.2f\n",
				payment.Month, payment.Payment, payment.Interest, payment.Principal,
				payment.Instalment, payment.RemainingPrincipal)
		}
	}
	return nil
}

// CsvFormat outputs in comma-separated value format: one "field,value" row per
// result attribute followed by the schedule table when present.
func CsvFormat(w io.Writer, report Report) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"field", "value"}); err != nil {
		return err
	}
	if report.ID != nil {
		records := [][]string{
			{"id_number", report.IDNumber},
			{"id_valid", strconv.FormatBool(report.ID.Valid)},
			{"id_message", report.ID.Message},
			{"gender", string(report.ID.Gender)},
			{"citizenship", string(report.ID.Citizenship)},
		}
		if err := writer.WriteAll(records); err != nil {
			return err
		}
	}
	if q := report.Quote; q != nil {
		records := [][]string{
			{"principal", money(q.Principal)},
			{"term_months", strconv.Itoa(q.TermMonths)},
			{"annual_interest_rate", money(q.AnnualInterestRate)},
			{"monthly_payment", money(q.MonthlyPayment)},
			{"monthly_service_fee", money(q.MonthlyServiceFee)},
			{"monthly_insurance", money(q.MonthlyInsurance)},
			{"total_monthly_instalment", money(q.TotalMonthlyInstalment)},
			{"initiation_fee", money(q.InitiationFee)},
			{"total_interest", money(q.TotalInterest)},
			{"total_repayment", money(q.TotalRepayment)},
		}
		if err := writer.WriteAll(records); err != nil {
			return err
		}
	}

	if len(report.Schedule) > 0 {
		if err := writer.Write([]string{"month", "payment", "interest", "principal", "instalment", "remaining"}); err != nil {
			return err
		}
		for _, payment := range report.Schedule {
			record := []string{
				strconv.Itoa(payment.Month),
				money(payment.Payment),
				money(payment.Interest),
				money(payment.Principal),
				money(payment.Instalment),
				money(payment.RemainingPrincipal),
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// JSONFormat outputs the report as indented JSON.
func JSONFormat(w io.Writer, report Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// YAMLFormat outputs the report as YAML.
func YAMLFormat(w io.Writer, report Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		return err
	}
	return encoder.Close()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
