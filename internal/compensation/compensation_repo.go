package compensation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go-payroll/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleVersion is returned by versioned updates whose expected version no
// longer matches the stored row.
var ErrStaleVersion = errors.New("compensation: stale version")

//go:generate mockgen -source=compensation_repo.go -destination=mock/compensation_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, structure *CompensationStructure) error
	FindByIDAndCompany(ctx context.Context, companyID string, id string) (*CompensationStructure, error)
	FindAllByEmployee(ctx context.Context, companyID string, employeeID string) ([]CompensationStructure, error)
	FindApprovedCovering(ctx context.Context, companyID string, employeeID string, asOf time.Time) ([]CompensationStructure, error)
	HasOverlapping(ctx context.Context, companyID string, employeeID string, status string, from time.Time, to *time.Time, excludeIDs ...string) (bool, error)
	Approve(ctx context.Context, structure *CompensationStructure, expectedVersion int64) error
	CloseWindow(ctx context.Context, structure *CompensationStructure, expectedVersion int64) error
	Delete(ctx context.Context, companyID string, id string) error
	LockEmployee(ctx context.Context, companyID string, employeeID string) (bool, error)
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

// conn routes statements through the bound *sql.Tx when there is one.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, structure *CompensationStructure) error {
	return r.conn(ctx).Create(structure).Error
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*CompensationStructure, error) {
	var structure CompensationStructure
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("kind ASC, position ASC")
		}).
		First(&structure, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &structure, nil
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID string, employeeID string) ([]CompensationStructure, error) {
	var structures []CompensationStructure
	err := r.conn(ctx).
		Scopes(tenant.EmployeeScope(companyID, employeeID)).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("kind ASC, position ASC")
		}).
		Order("effective_from DESC").
		Find(&structures).Error
	return structures, err
}

func (r *repository) FindApprovedCovering(ctx context.Context, companyID string, employeeID string, asOf time.Time) ([]CompensationStructure, error) {
	var structures []CompensationStructure
	err := tenant.EmployeeScope(companyID, employeeID)(r.conn(ctx)).
		Where("status = ?", StatusApproved).
		Where("effective_from <= ?", asOf).
		Where("(effective_to IS NULL OR effective_to >= ?)", asOf).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("kind ASC, position ASC")
		}).
		Order("effective_from DESC").
		Find(&structures).Error
	return structures, err
}

func (r *repository) HasOverlapping(
	ctx context.Context,
	companyID string,
	employeeID string,
	status string,
	from time.Time,
	to *time.Time,
	excludeIDs ...string,
) (bool, error) {
	db := tenant.EmployeeScope(companyID, employeeID)(r.conn(ctx).Model(&CompensationStructure{})).
		Where("status = ?", status).
		Where("(effective_to IS NULL OR effective_to >= ?)", from)

	if to != nil {
		db = db.Where("effective_from <= ?", *to)
	}
	for _, id := range excludeIDs {
		if id != "" {
			db = db.Where("id <> ?", id)
		}
	}

	var count int64
	err := db.Count(&count).Error
	return count > 0, err
}

func (r *repository) Approve(ctx context.Context, structure *CompensationStructure, expectedVersion int64) error {
	res := r.conn(ctx).
		Model(&CompensationStructure{}).
		Scopes(tenant.Scope(structure.CompanyID.String())).
		Where("id = ? AND version = ?", structure.ID, expectedVersion).
		Updates(map[string]any{
			"status":      structure.Status,
			"approved_by": structure.ApprovedBy,
			"approved_at": structure.ApprovedAt,
			"version":     gorm.Expr("version + 1"),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	structure.Version = expectedVersion + 1
	return nil
}

func (r *repository) CloseWindow(ctx context.Context, structure *CompensationStructure, expectedVersion int64) error {
	res := r.conn(ctx).
		Model(&CompensationStructure{}).
		Scopes(tenant.Scope(structure.CompanyID.String())).
		Where("id = ? AND version = ? AND status = ?", structure.ID, expectedVersion, StatusApproved).
		Updates(map[string]any{
			"effective_to": structure.EffectiveTo,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	structure.Version = expectedVersion + 1
	return nil
}

func (r *repository) Delete(ctx context.Context, companyID string, id string) error {
	return r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("status = ?", StatusPending).
		Delete(&CompensationStructure{}, "id = ?", id).Error
}

// LockEmployee takes a row lock on the employee for the rest of the bound
// transaction. Every write that checks the approved-window invariant takes it
// first, so those checks run one at a time per employee. It reports false
// when the employee is not an active member of the company.
func (r *repository) LockEmployee(ctx context.Context, companyID string, employeeID string) (bool, error) {
	var refs []employeeRef
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ? AND company_id = ? AND deleted_at IS NULL", employeeID, companyID).
		Find(&refs).Error
	return len(refs) > 0, err
}
