package migration

import (
	"context"
	"fmt"
	"time"

	"go-payroll/internal/compensation"
	"go-payroll/internal/payslip"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// employee is the minimal shape the payroll module reads. On a shared
// database the HR core owns the table and AutoMigrate only adds what is
// missing.
type employee struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID      `gorm:"type:uuid;not null;index"`
	FullName  string         `gorm:"size:200"`
	Email     string         `gorm:"size:200"`
	CreatedAt time.Time      `gorm:"not null;default:now()"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (employee) TableName() string { return "employees" }

// outboxEvent mirrors the columns kafka.OutboxRepository reads and writes
// with plain SQL.
type outboxEvent struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RequestID     string     `gorm:"size:100"`
	CompanyID     *uuid.UUID `gorm:"type:uuid;index"`
	AggregateType string     `gorm:"size:50;not null"`
	AggregateID   string     `gorm:"size:100;not null"`
	EventType     string     `gorm:"size:100;not null"`
	Topic         string     `gorm:"size:150;not null"`
	Payload       []byte     `gorm:"type:jsonb;not null"`
	Status        string     `gorm:"size:20;not null;default:'pending';index:idx_outbox_status_next_retry,priority:1"`
	RetryCount    int        `gorm:"not null;default:0"`
	ErrorMessage  *string    `gorm:"size:500"`
	NextRetryAt   time.Time  `gorm:"not null;default:now();index:idx_outbox_status_next_retry,priority:2"`
	CreatedAt     time.Time  `gorm:"not null;default:now()"`
	UpdatedAt     time.Time  `gorm:"not null;default:now()"`
	ProcessedAt   *time.Time `gorm:"index"`
}

func (outboxEvent) TableName() string { return "outbox_events" }

// Models lists every table in dependency order.
func Models() []any {
	return []any{
		&employee{},
		&compensation.CompensationStructure{},
		&compensation.LineItem{},
		&payslip.Payslip{},
		&payslip.LineItem{},
		&outboxEvent{},
	}
}

// approvedWindowConstraint rejects two APPROVED structures of one employee
// whose inclusive date ranges intersect. Service checks run first; this
// catches whatever slips past them.
const approvedWindowConstraint = `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint WHERE conname = 'ex_compensation_approved_window'
	) THEN
		ALTER TABLE compensation_structures
			ADD CONSTRAINT ex_compensation_approved_window
			EXCLUDE USING gist (
				company_id WITH =,
				employee_id WITH =,
				daterange(effective_from, effective_to, '[]') WITH &&
			) WHERE (status = 'APPROVED');
	END IF;
END
$$`

// constraints run after AutoMigrate, in order. Each must be idempotent.
var constraints = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	approvedWindowConstraint,
}

func Run(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	log := logger.Named("migration")
	for _, m := range Models() {
		if err := db.WithContext(ctx).AutoMigrate(m); err != nil {
			return fmt.Errorf("migrate %T: %w", m, err)
		}
		log.Info("migrated", zap.String("model", fmt.Sprintf("%T", m)))
	}
	if err := applyConstraints(ctx, db); err != nil {
		return err
	}
	log.Info("constraints applied", zap.Int("count", len(constraints)))
	return nil
}

func applyConstraints(ctx context.Context, db *gorm.DB) error {
	for _, stmt := range constraints {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply constraint: %w", err)
		}
	}
	return nil
}
