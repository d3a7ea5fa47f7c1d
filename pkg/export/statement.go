package export

import (
	"fmt"
	"time"

	"github.com/alvishnu/school-desk/internal/feeview"
)

// columns fixes the statement layout for both renderers. Widths are in mm
// and sum to the printable width of a landscape A4 page.
var columns = []struct {
	title string
	width float64
}{
	{"Student", 40},
	{"Roll No", 22},
	{"Class", 18},
	{"Fee Type", 34},
	{"Academic Year", 26},
	{"Total Amount", 26},
	{"Paid", 24},
	{"Remaining", 26},
	{"Last Payment", 28},
	{"Status", 33},
}

// Row is one line of a fee statement: either a fee with its running totals
// or a student-level status marker when no fee line applies.
type Row struct {
	Student      string
	RollNumber   string
	Class        string
	FeeType      string
	AcademicYear string
	Total        string
	Paid         string
	Remaining    string
	LastPayment  string
	Status       string
}

func (r Row) record() []string {
	return []string{
		r.Student, r.RollNumber, r.Class, r.FeeType, r.AcademicYear,
		r.Total, r.Paid, r.Remaining, r.LastPayment, r.Status,
	}
}

// Statement is an exportable fee statement covering the whole roster.
type Statement struct {
	Rows []Row
}

// FeeStatement flattens the aggregated fee view into one row per fee.
// Branches that failed to load contribute a single row carrying the failure
// reason, so an exported statement never silently omits a student.
func FeeStatement(branches []feeview.StudentFees) Statement {
	rows := make([]Row, 0, len(branches))
	for _, branch := range branches {
		base := Row{
			Student:    branch.Student.StudentName,
			RollNumber: branch.Student.RollNumber,
			Class:      branch.Student.Class,
		}

		switch branch.State {
		case feeview.Failed:
			base.Status = "load failed: " + branch.Reason
			rows = append(rows, base)
			continue
		case feeview.NotLoaded:
			base.Status = "not loaded"
			rows = append(rows, base)
			continue
		}

		if len(branch.Fees) == 0 {
			base.Status = "no fees"
			rows = append(rows, base)
			continue
		}

		for _, fee := range branch.Fees {
			row := base
			row.FeeType = fee.FeeTypeName
			row.AcademicYear = fee.AcademicYear
			row.Total = Currency(fee.TotalAmount)
			row.Paid = Currency(fee.TotalPaid)
			row.Remaining = Currency(fee.RemainingAmount)
			if len(fee.Payments) > 0 {
				row.LastPayment = ShortDate(fee.Payments[0].PaymentDate)
			} else {
				row.LastPayment = "no payments"
			}
			row.Status = "ok"
			rows = append(rows, row)
		}
	}
	return Statement{Rows: rows}
}

// Currency formats a monetary amount for statement display.
func Currency(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// ShortDate renders a wire timestamp as a calendar date, passing the raw
// value through when it does not parse.
func ShortDate(raw string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}
