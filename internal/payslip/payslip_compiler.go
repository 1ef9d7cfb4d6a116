package payslip

import (
	"strings"
	"time"

	"go-payroll/internal/compensation"
	paysliperrors "go-payroll/internal/payslip/errors"
	"go-payroll/internal/shared/money"

	"github.com/shopspring/decimal"
)

// CompileInput is everything besides the structure that shapes a payslip.
type CompileInput struct {
	EmployeeID         string
	Year               int
	Month              int
	LOPDays            int
	OverrideAllowances *decimal.Decimal
	OverrideDeductions *decimal.Decimal
}

// DaysInMonth returns the calendar length of month in year.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// PeriodStart is the date used to pick the structure for a period.
func PeriodStart(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}

// Compile turns an approved structure into a pending, unreleased payslip.
// It is pure: no ids, timestamps or I/O, so identical inputs give identical
// output.
//
// Every figure is rounded to cents as soon as it is produced. LOP is
// prorated over a fixed 30-day month regardless of the calendar.
func Compile(structure compensation.CompensationStructure, in CompileInput) (Payslip, error) {
	if in.Year < 1 || in.Month < 1 || in.Month > 12 {
		return Payslip{}, paysliperrors.ErrInvalidPeriod
	}
	days := DaysInMonth(in.Year, in.Month)
	if in.LOPDays < 0 || in.LOPDays > days {
		return Payslip{}, paysliperrors.ErrInvalidLOPDays
	}
	if !structure.IsApproved() {
		return Payslip{}, paysliperrors.ErrStructureNotApproved
	}
	if !strings.EqualFold(structure.EmployeeID.String(), in.EmployeeID) {
		return Payslip{}, paysliperrors.ErrEmployeeMismatch
	}
	if isNegative(in.OverrideAllowances) || isNegative(in.OverrideDeductions) {
		return Payslip{}, paysliperrors.ErrNegativeOverride
	}

	totalAllowances := structure.TotalAllowances()
	var overrideAllowances *decimal.Decimal
	if in.OverrideAllowances != nil {
		v := money.Round(*in.OverrideAllowances)
		overrideAllowances = &v
		totalAllowances = v
	}
	totalDeductions := structure.TotalDeductions()
	var overrideDeductions *decimal.Decimal
	if in.OverrideDeductions != nil {
		v := money.Round(*in.OverrideDeductions)
		overrideDeductions = &v
		totalDeductions = v
	}

	lopDays := decimal.NewFromInt(int64(in.LOPDays))

	monthlyBasic := money.Monthly(structure.Basic)
	monthlyHRA := money.Monthly(structure.HRA)
	monthlyAllowances := money.Monthly(totalAllowances)
	monthlyDeductions := money.Monthly(totalDeductions)
	totalPayable := money.Sum(monthlyBasic, monthlyHRA, monthlyAllowances)
	dailyRate := money.Round(totalPayable.Div(money.Thirty))
	// LOP prorates the unrounded daily rate; DailyRate is reported rounded.
	lopAmount := money.Round(totalPayable.Mul(lopDays).Div(money.Thirty))
	preTax := money.FloorZero(money.Round(totalPayable.Sub(lopAmount).Sub(monthlyDeductions)))
	tax := money.Percent(preTax, structure.TaxPercent)
	net := preTax.Sub(tax)

	p := Payslip{
		CompanyID:          structure.CompanyID,
		EmployeeID:         structure.EmployeeID,
		Year:               in.Year,
		Month:              in.Month,
		StructureID:        structure.ID,
		DaysInMonth:        days,
		LOPDays:            in.LOPDays,
		MonthlyBasic:       monthlyBasic,
		MonthlyHRA:         monthlyHRA,
		TotalAllowances:    totalAllowances,
		TotalDeductions:    totalDeductions,
		OverrideAllowances: overrideAllowances,
		OverrideDeductions: overrideDeductions,
		MonthlyAllowances:  monthlyAllowances,
		MonthlyDeductions:  monthlyDeductions,
		TotalPayable:       totalPayable,
		DailyRate:          dailyRate,
		LOPAmount:          lopAmount,
		PreTax:             preTax,
		TaxPercent:         structure.TaxPercent,
		Tax:                tax,
		Net:                net,
		Status:             StatusPending,
		Released:           false,
		Version:            1,
	}

	// Lines are snapshotted from the structure even when a total is
	// overridden; Breakdown.SnapshotMismatch exposes the difference.
	p.LineItems = append(p.LineItems, snapshotLines(LineKindAllowance, structure.Allowances())...)
	deductions := snapshotLines(LineKindDeduction, structure.Deductions())
	if lopAmount.IsPositive() {
		deductions = append(deductions, LineItem{
			Kind:      LineKindDeduction,
			Position:  len(deductions),
			Label:     LOPLabel,
			Amount:    lopAmount,
			Synthetic: true,
		})
	}
	p.LineItems = append(p.LineItems, deductions...)

	return p, nil
}

func snapshotLines(kind string, items []compensation.LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	for i, item := range items {
		out = append(out, LineItem{
			Kind:     kind,
			Position: i,
			Label:    item.Label,
			Amount:   money.Monthly(item.Amount),
		})
	}
	return out
}

func isNegative(d *decimal.Decimal) bool {
	return d != nil && d.IsNegative()
}
