// Package money holds the decimal helpers shared by compensation and payslip
// arithmetic. Amounts are kept as decimal.Decimal end to end and rounded to
// cents explicitly at every step that produces a displayed figure.
package money

import (
	"github.com/shopspring/decimal"
)

const Scale int32 = 2

var (
	Twelve  = decimal.NewFromInt(12)
	Thirty  = decimal.NewFromInt(30)
	Hundred = decimal.NewFromInt(100)
)

// Round rounds to cents, half away from zero (half-up for the non-negative
// amounts this service deals with).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// Monthly converts an annual amount to its rounded monthly share.
func Monthly(annual decimal.Decimal) decimal.Decimal {
	return Round(annual.Div(Twelve))
}

func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Percent returns round(amount * pct / 100).
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(pct).Div(Hundred))
}

func FloorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func Format(d decimal.Decimal) string {
	return d.StringFixed(Scale)
}
