package compensation

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
)

// CompensationStructure is an employee's annual CTC for an effective window.
// EffectiveTo is inclusive; nil means open ended.
type CompensationStructure struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_compensation_employee_window"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_compensation_employee_window"`

	Basic      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	HRA        decimal.Decimal `gorm:"column:hra;type:numeric(14,2);not null;default:0"`
	TaxPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`

	EffectiveFrom time.Time  `gorm:"type:date;not null;index:idx_compensation_employee_window"`
	EffectiveTo   *time.Time `gorm:"type:date"`

	Status       string     `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	SupersedesID *uuid.UUID `gorm:"type:uuid;index"`
	Version      int64      `gorm:"not null;default:1"`

	CreatedBy  string  `gorm:"type:varchar(64);not null"`
	ApprovedBy *string `gorm:"type:varchar(64)"`
	ApprovedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	LineItems []LineItem `gorm:"foreignKey:StructureID;constraint:OnDelete:CASCADE"`
}

func (CompensationStructure) TableName() string {
	return "compensation_structures"
}

type LineItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StructureID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Kind        string          `gorm:"type:varchar(20);not null"`
	Position    int             `gorm:"not null;default:0"`
	Label       string          `gorm:"type:varchar(120);not null"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
}

func (LineItem) TableName() string {
	return "compensation_line_items"
}

// employeeRef is a read-only view of the employees table owned by the
// employee directory.
type employeeRef struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid"`
	FullName  string    `gorm:"column:full_name"`
}

func (employeeRef) TableName() string {
	return "employees"
}

func (s CompensationStructure) IsApproved() bool {
	return workflow.Status(s.Status) == workflow.StatusApproved
}

func (s CompensationStructure) Allowances() []LineItem {
	return s.linesOf(LineKindAllowance)
}

func (s CompensationStructure) Deductions() []LineItem {
	return s.linesOf(LineKindDeduction)
}

func (s CompensationStructure) linesOf(kind string) []LineItem {
	out := make([]LineItem, 0, len(s.LineItems))
	for _, item := range s.LineItems {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func (s CompensationStructure) TotalAllowances() decimal.Decimal {
	return sumLines(s.Allowances())
}

func (s CompensationStructure) TotalDeductions() decimal.Decimal {
	return sumLines(s.Deductions())
}

// GrossCTC is basic + HRA + allowances; deductions and tax are excluded.
func (s CompensationStructure) GrossCTC() decimal.Decimal {
	return money.Sum(s.Basic, s.HRA, s.TotalAllowances())
}

// Covers reports whether date falls inside the effective window. Both ends
// are inclusive.
func (s CompensationStructure) Covers(date time.Time) bool {
	d := truncateDate(date)
	if d.Before(s.EffectiveFrom) {
		return false
	}
	return s.EffectiveTo == nil || !d.After(*s.EffectiveTo)
}

func sumLines(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}
	return total
}

func truncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
