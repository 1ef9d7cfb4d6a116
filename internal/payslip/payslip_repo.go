package payslip

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-payroll/internal/tenant"

	"gorm.io/gorm"
)

var ErrStaleVersion = errors.New("payslip: stale version")

//go:generate mockgen -source=payslip_repo.go -destination=mock/payslip_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, p *Payslip) error
	FindByIDAndCompany(ctx context.Context, companyID string, id string) (*Payslip, error)
	FindAllByEmployee(ctx context.Context, companyID string, employeeID string, releasedOnly bool) ([]Payslip, error)
	ExistsForPeriod(ctx context.Context, companyID string, employeeID string, year, month int) (bool, error)
	Recompute(ctx context.Context, p *Payslip, expectedVersion int64) error
	UpdateState(ctx context.Context, p *Payslip, expectedVersion int64) error
	Delete(ctx context.Context, companyID string, id string) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("kind ASC, position ASC")
}

func (r *repository) Create(ctx context.Context, p *Payslip) error {
	return r.conn(ctx).Create(p).Error
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*Payslip, error) {
	var p Payslip
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("LineItems", orderedLines).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID string, employeeID string, releasedOnly bool) ([]Payslip, error) {
	db := r.conn(ctx).
		Scopes(tenant.EmployeeScope(companyID, employeeID))
	if releasedOnly {
		db = db.Where("released = ?", true)
	}

	var payslips []Payslip
	err := db.
		Preload("LineItems", orderedLines).
		Order("year DESC, month DESC").
		Find(&payslips).Error
	return payslips, err
}

func (r *repository) ExistsForPeriod(ctx context.Context, companyID string, employeeID string, year, month int) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&Payslip{}).
		Scopes(tenant.EmployeeScope(companyID, employeeID)).
		Where("year = ? AND month = ?", year, month).
		Count(&count).Error
	return count > 0, err
}

// Recompute replaces figures and line items of an unreleased payslip.
func (r *repository) Recompute(ctx context.Context, p *Payslip, expectedVersion int64) error {
	db := r.conn(ctx)

	res := db.Model(&Payslip{}).
		Scopes(tenant.Scope(p.CompanyID.String())).
		Where("id = ? AND version = ? AND released = ?", p.ID, expectedVersion, false).
		Updates(map[string]any{
			"structure_id":        p.StructureID,
			"days_in_month":       p.DaysInMonth,
			"lop_days":            p.LOPDays,
			"monthly_basic":       p.MonthlyBasic,
			"monthly_hra":         p.MonthlyHRA,
			"total_allowances":    p.TotalAllowances,
			"total_deductions":    p.TotalDeductions,
			"override_allowances": p.OverrideAllowances,
			"override_deductions": p.OverrideDeductions,
			"monthly_allowances":  p.MonthlyAllowances,
			"monthly_deductions":  p.MonthlyDeductions,
			"total_payable":       p.TotalPayable,
			"daily_rate":          p.DailyRate,
			"lop_amount":          p.LOPAmount,
			"pre_tax":             p.PreTax,
			"tax_percent":         p.TaxPercent,
			"tax":                 p.Tax,
			"net":                 p.Net,
			"version":             gorm.Expr("version + 1"),
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}

	if err := db.Where("payslip_id = ?", p.ID).Delete(&LineItem{}).Error; err != nil {
		return err
	}
	if len(p.LineItems) > 0 {
		if err := db.Create(&p.LineItems).Error; err != nil {
			return err
		}
	}

	p.Version = expectedVersion + 1
	return nil
}

// UpdateState persists a workflow transition guarded by version.
func (r *repository) UpdateState(ctx context.Context, p *Payslip, expectedVersion int64) error {
	res := r.conn(ctx).
		Model(&Payslip{}).
		Scopes(tenant.Scope(p.CompanyID.String())).
		Where("id = ? AND version = ? AND released = ?", p.ID, expectedVersion, false).
		Updates(map[string]any{
			"status":      p.Status,
			"released":    p.Released,
			"released_by": p.ReleasedBy,
			"released_at": p.ReleasedAt,
			"approved_by": p.ApprovedBy,
			"approved_at": p.ApprovedAt,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	p.Version = expectedVersion + 1
	return nil
}

func (r *repository) Delete(ctx context.Context, companyID string, id string) error {
	res := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("status = ? AND released = ?", StatusPending, false).
		Delete(&Payslip{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
