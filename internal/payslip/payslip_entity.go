package payslip

import (
	"sort"
	"time"

	"go-payroll/internal/shared/money"
	"go-payroll/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending  = string(workflow.StatusPending)
	StatusApproved = string(workflow.StatusApproved)
)

const (
	LineKindAllowance = "ALLOWANCE"
	LineKindDeduction = "DEDUCTION"

	LOPLabel = "LOP"
)

// Payslip is the monthly snapshot compiled from an approved compensation
// structure. Released is one-way; a released payslip is immutable.
type Payslip struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_payslip_employee_period,priority:1"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_payslip_employee_period,priority:2"`
	Year        int       `gorm:"not null;uniqueIndex:uq_payslip_employee_period,priority:3"`
	Month       int       `gorm:"not null;uniqueIndex:uq_payslip_employee_period,priority:4"`
	StructureID uuid.UUID `gorm:"type:uuid;not null;index"`

	DaysInMonth int `gorm:"not null"`
	LOPDays     int `gorm:"column:lop_days;not null;default:0"`

	MonthlyBasic       decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	MonthlyHRA         decimal.Decimal  `gorm:"column:monthly_hra;type:numeric(14,2);not null"`
	TotalAllowances    decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	TotalDeductions    decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	OverrideAllowances *decimal.Decimal `gorm:"type:numeric(14,2)"`
	OverrideDeductions *decimal.Decimal `gorm:"type:numeric(14,2)"`
	MonthlyAllowances  decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	MonthlyDeductions  decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	TotalPayable       decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	DailyRate          decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	LOPAmount          decimal.Decimal  `gorm:"column:lop_amount;type:numeric(14,2);not null"`
	PreTax             decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	TaxPercent         decimal.Decimal  `gorm:"type:numeric(5,2);not null"`
	Tax                decimal.Decimal  `gorm:"type:numeric(14,2);not null"`
	Net                decimal.Decimal  `gorm:"type:numeric(14,2);not null"`

	Status     string `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Released   bool   `gorm:"not null;default:false"`
	ReleasedBy *string
	ReleasedAt *time.Time
	ApprovedBy *string
	ApprovedAt *time.Time
	CreatedBy  string `gorm:"type:varchar(64)"`
	Version    int64  `gorm:"not null;default:1"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	LineItems []LineItem `gorm:"foreignKey:PayslipID;constraint:OnDelete:CASCADE"`
}

func (Payslip) TableName() string {
	return "payslips"
}

type LineItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PayslipID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind      string          `gorm:"type:varchar(20);not null"`
	Position  int             `gorm:"not null"`
	Label     string          `gorm:"type:varchar(120);not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	// Synthetic marks lines the compiler adds, such as LOP.
	Synthetic bool `gorm:"not null;default:false"`
}

func (LineItem) TableName() string {
	return "payslip_line_items"
}

// State folds the released flag into the workflow status.
func (p Payslip) State() workflow.Status {
	if p.Released {
		return workflow.StatusReleased
	}
	return workflow.Status(p.Status)
}

func (p Payslip) Allowances() []LineItem {
	return p.linesOf(LineKindAllowance)
}

func (p Payslip) Deductions() []LineItem {
	return p.linesOf(LineKindDeduction)
}

func (p Payslip) linesOf(kind string) []LineItem {
	out := make([]LineItem, 0, len(p.LineItems))
	for _, item := range p.LineItems {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Breakdown is the full computation trail behind a payslip.
type Breakdown struct {
	DaysInMonth          int
	LOPDays              int
	MonthlyBasic         decimal.Decimal
	MonthlyHRA           decimal.Decimal
	TotalAllowances      decimal.Decimal
	TotalDeductions      decimal.Decimal
	AllowancesOverridden bool
	DeductionsOverridden bool
	MonthlyAllowances    decimal.Decimal
	MonthlyDeductions    decimal.Decimal
	TotalPayable         decimal.Decimal
	DailyRate            decimal.Decimal
	LOPAmount            decimal.Decimal
	PreTax               decimal.Decimal
	TaxPercent           decimal.Decimal
	Tax                  decimal.Decimal
	Net                  decimal.Decimal
	// Line sums of the snapshot, excluding synthetic lines.
	SnapshotAllowances decimal.Decimal
	SnapshotDeductions decimal.Decimal
}

// SnapshotMismatch reports whether the per-line snapshot disagrees with the
// monthly totals used in the computation. Overrides and per-line rounding
// both cause it.
func (b Breakdown) SnapshotMismatch() bool {
	return !b.SnapshotAllowances.Equal(b.MonthlyAllowances) || !b.SnapshotDeductions.Equal(b.MonthlyDeductions)
}

func (p Payslip) Breakdown() Breakdown {
	return Breakdown{
		DaysInMonth:          p.DaysInMonth,
		LOPDays:              p.LOPDays,
		MonthlyBasic:         p.MonthlyBasic,
		MonthlyHRA:           p.MonthlyHRA,
		TotalAllowances:      p.TotalAllowances,
		TotalDeductions:      p.TotalDeductions,
		AllowancesOverridden: p.OverrideAllowances != nil,
		DeductionsOverridden: p.OverrideDeductions != nil,
		MonthlyAllowances:    p.MonthlyAllowances,
		MonthlyDeductions:    p.MonthlyDeductions,
		TotalPayable:         p.TotalPayable,
		DailyRate:            p.DailyRate,
		LOPAmount:            p.LOPAmount,
		PreTax:               p.PreTax,
		TaxPercent:           p.TaxPercent,
		Tax:                  p.Tax,
		Net:                  p.Net,
		SnapshotAllowances:   snapshotSum(p.Allowances()),
		SnapshotDeductions:   snapshotSum(p.Deductions()),
	}
}

func snapshotSum(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if !item.Synthetic {
			total = total.Add(item.Amount)
		}
	}
	return money.Round(total)
}
