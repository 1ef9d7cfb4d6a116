package payslip_test

import (
	"encoding/json"
	"testing"

	"go-payroll/internal/compensation"
	"go-payroll/internal/payslip"
	paysliperrors "go-payroll/internal/payslip/errors"
	"go-payroll/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func referenceStructure() compensation.CompensationStructure {
	return compensation.CompensationStructure{
		ID:         uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		CompanyID:  uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		EmployeeID: uuid.MustParse("33333333-3333-3333-3333-333333333333"),
		Basic:      dec("1200000"),
		HRA:        dec("0"),
		TaxPercent: dec("10"),
		Status:     compensation.StatusApproved,
		LineItems: []compensation.LineItem{
			{Kind: compensation.LineKindAllowance, Position: 0, Label: "Bonus", Amount: dec("12000")},
			{Kind: compensation.LineKindDeduction, Position: 0, Label: "PF", Amount: dec("12000")},
		},
	}
}

func referenceInput(lop int) payslip.CompileInput {
	return payslip.CompileInput{
		EmployeeID: "33333333-3333-3333-3333-333333333333",
		Year:       2024,
		Month:      3,
		LOPDays:    lop,
	}
}

func TestCompile_NoLOP(t *testing.T) {
	p, err := payslip.Compile(referenceStructure(), referenceInput(0))

	assert.NoError(t, err)
	assert.Equal(t, "100000.00", p.MonthlyBasic.StringFixed(2))
	assert.Equal(t, "0.00", p.MonthlyHRA.StringFixed(2))
	assert.Equal(t, "101000.00", p.TotalPayable.StringFixed(2))
	assert.Equal(t, "100000.00", p.PreTax.StringFixed(2))
	assert.Equal(t, "10000.00", p.Tax.StringFixed(2))
	assert.Equal(t, "90000.00", p.Net.StringFixed(2))
	assert.Equal(t, payslip.StatusPending, p.Status)
	assert.False(t, p.Released)
	assert.Equal(t, 31, p.DaysInMonth)

	deductions := p.Deductions()
	assert.Len(t, deductions, 1)
	assert.Equal(t, "PF", deductions[0].Label)
	assert.Equal(t, "1000.00", deductions[0].Amount.StringFixed(2))
	assert.Equal(t, "1000.00", p.Allowances()[0].Amount.StringFixed(2))
}

func TestCompile_WithLOP(t *testing.T) {
	p, err := payslip.Compile(referenceStructure(), referenceInput(5))

	assert.NoError(t, err)
	assert.Equal(t, "3366.67", p.DailyRate.StringFixed(2))
	assert.Equal(t, "16833.33", p.LOPAmount.StringFixed(2))
	assert.Equal(t, "83166.67", p.PreTax.StringFixed(2))
	assert.Equal(t, "8316.67", p.Tax.StringFixed(2))
	assert.Equal(t, "74850.00", p.Net.StringFixed(2))

	deductions := p.Deductions()
	assert.Len(t, deductions, 2)
	lop := deductions[1]
	assert.Equal(t, payslip.LOPLabel, lop.Label)
	assert.True(t, lop.Synthetic)
	assert.Equal(t, "16833.33", lop.Amount.StringFixed(2))
}

func TestCompile_PreTaxNeverNegative(t *testing.T) {
	s := referenceStructure()
	s.LineItems = append(s.LineItems, compensation.LineItem{
		Kind: compensation.LineKindDeduction, Position: 1, Label: "Loan", Amount: dec("5000000"),
	})

	for _, lop := range []int{0, 15, 31} {
		p, err := payslip.Compile(s, referenceInput(lop))
		assert.NoError(t, err)
		assert.True(t, p.PreTax.Equal(decimal.Zero), "lop=%d", lop)
		assert.True(t, p.Tax.Equal(decimal.Zero))
		assert.True(t, p.Net.Equal(decimal.Zero))
	}
}

func TestCompile_FullMonthLOP(t *testing.T) {
	s := referenceStructure()
	s.LineItems = nil

	p, err := payslip.Compile(s, referenceInput(30))

	assert.NoError(t, err)
	assert.True(t, p.LOPAmount.Equal(p.TotalPayable))
	assert.True(t, p.Net.IsZero())
}

func TestCompile_Deterministic(t *testing.T) {
	in := referenceInput(7)
	in.OverrideAllowances = decPtr("24000")

	first, err := payslip.Compile(referenceStructure(), in)
	assert.NoError(t, err)
	second, err := payslip.Compile(referenceStructure(), in)
	assert.NoError(t, err)

	a, err := json.Marshal(first)
	assert.NoError(t, err)
	b, err := json.Marshal(second)
	assert.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestCompile_OverrideKeepsLineSnapshot(t *testing.T) {
	in := referenceInput(0)
	in.OverrideAllowances = decPtr("24000")
	in.OverrideDeductions = decPtr("0")

	p, err := payslip.Compile(referenceStructure(), in)

	assert.NoError(t, err)
	assert.Equal(t, "2000.00", p.MonthlyAllowances.StringFixed(2))
	assert.Equal(t, "0.00", p.MonthlyDeductions.StringFixed(2))
	// lines still mirror the structure, not the override
	assert.Equal(t, "1000.00", p.Allowances()[0].Amount.StringFixed(2))
	assert.Equal(t, "1000.00", p.Deductions()[0].Amount.StringFixed(2))

	b := p.Breakdown()
	assert.True(t, b.AllowancesOverridden)
	assert.True(t, b.DeductionsOverridden)
	assert.True(t, b.SnapshotMismatch())
	assert.Equal(t, "102000.00", b.TotalPayable.StringFixed(2))
}

func TestCompile_NoMismatchWithoutOverride(t *testing.T) {
	p, err := payslip.Compile(referenceStructure(), referenceInput(3))

	assert.NoError(t, err)
	assert.False(t, p.Breakdown().SnapshotMismatch())
}

func TestCompile_Validation(t *testing.T) {
	pending := referenceStructure()
	pending.Status = compensation.StatusPending

	tests := []struct {
		name      string
		structure compensation.CompensationStructure
		mutate    func(*payslip.CompileInput)
		wantErr   error
	}{
		{"negative lop", referenceStructure(), func(in *payslip.CompileInput) { in.LOPDays = -1 }, paysliperrors.ErrInvalidLOPDays},
		{"lop beyond month", referenceStructure(), func(in *payslip.CompileInput) { in.Month = 2; in.LOPDays = 30 }, paysliperrors.ErrInvalidLOPDays},
		{"invalid month", referenceStructure(), func(in *payslip.CompileInput) { in.Month = 13 }, paysliperrors.ErrInvalidPeriod},
		{"structure not approved", pending, func(in *payslip.CompileInput) {}, paysliperrors.ErrStructureNotApproved},
		{"different employee", referenceStructure(), func(in *payslip.CompileInput) { in.EmployeeID = uuid.NewString() }, paysliperrors.ErrEmployeeMismatch},
		{"negative override", referenceStructure(), func(in *payslip.CompileInput) { in.OverrideDeductions = decPtr("-1") }, paysliperrors.ErrNegativeOverride},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := referenceInput(0)
			tt.mutate(&in)

			_, err := payslip.Compile(tt.structure, in)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestCompile_LeapFebruaryAllowsTwentyNineDays(t *testing.T) {
	in := referenceInput(29)
	in.Month = 2

	p, err := payslip.Compile(referenceStructure(), in)

	assert.NoError(t, err)
	assert.Equal(t, 29, p.DaysInMonth)
}
