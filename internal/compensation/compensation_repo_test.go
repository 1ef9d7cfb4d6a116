package compensation_test

import (
	"context"
	"database/sql"
	"testing"

	"go-payroll/internal/compensation"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newRepoWithMock(t *testing.T) (compensation.Repository, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)
	return compensation.NewRepository(gdb), db, mock
}

func TestRepository_LockEmployee(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.NewString()
	employeeID := uuid.NewString()

	t.Run("locks the row inside the bound tx", func(t *testing.T) {
		repo, db, mock := newRepoWithMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "id" FROM "employees" WHERE id = \$1 AND company_id = \$2 AND deleted_at IS NULL FOR UPDATE`).
			WithArgs(employeeID, companyID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(employeeID))
		mock.ExpectRollback()

		tx, err := db.Begin()
		assert.NoError(t, err)

		found, err := repo.WithTx(tx).LockEmployee(ctx, companyID, employeeID)

		assert.NoError(t, err)
		assert.True(t, found)
		assert.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing employee", func(t *testing.T) {
		repo, _, mock := newRepoWithMock(t)
		mock.ExpectQuery(`FROM "employees" .* FOR UPDATE`).
			WithArgs(employeeID, companyID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		found, err := repo.LockEmployee(ctx, companyID, employeeID)

		assert.NoError(t, err)
		assert.False(t, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_HasOverlapping(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.NewString()
	employeeID := uuid.NewString()
	excluded := uuid.NewString()

	t.Run("closed window bounds both ends inclusively", func(t *testing.T) {
		repo, _, mock := newRepoWithMock(t)
		from := date(2024, 1, 1)
		to := date(2024, 6, 30)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "compensation_structures" WHERE .*company_id = \$1 AND employee_id = \$2.* AND status = \$3 AND \(+effective_to IS NULL OR effective_to >= \$4\)+ AND effective_from <= \$5 AND id <> \$6$`).
			WithArgs(companyID, employeeID, compensation.StatusApproved, from, to, excluded).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		overlap, err := repo.HasOverlapping(ctx, companyID, employeeID, compensation.StatusApproved, from, &to, excluded)

		assert.NoError(t, err)
		assert.True(t, overlap)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("open ended window has no upper predicate", func(t *testing.T) {
		repo, _, mock := newRepoWithMock(t)
		from := date(2024, 7, 1)
		mock.ExpectQuery(`SELECT count\(\*\) FROM "compensation_structures" WHERE .*status = \$3 AND \(+effective_to IS NULL OR effective_to >= \$4\)+$`).
			WithArgs(companyID, employeeID, compensation.StatusPending, from).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		overlap, err := repo.HasOverlapping(ctx, companyID, employeeID, compensation.StatusPending, from, nil)

		assert.NoError(t, err)
		assert.False(t, overlap)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("successor starting the day after a closed window", func(t *testing.T) {
		// A predecessor closed on 2024-06-30 does not match effective_to >= 2024-07-01.
		// Empty exclusion ids add no predicate.
		repo, _, mock := newRepoWithMock(t)
		from := date(2024, 7, 1)
		mock.ExpectQuery(`effective_to >= \$4\)+ AND id <> \$5$`).
			WithArgs(companyID, employeeID, compensation.StatusApproved, from, excluded).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		overlap, err := repo.HasOverlapping(ctx, companyID, employeeID, compensation.StatusApproved, from, nil, "", excluded)

		assert.NoError(t, err)
		assert.False(t, overlap)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_FindApprovedCovering(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.NewString()
	employeeID := uuid.NewString()
	asOf := date(2024, 3, 1)

	repo, _, mock := newRepoWithMock(t)
	mock.ExpectQuery(`SELECT \* FROM "compensation_structures" WHERE .*company_id = \$1 AND employee_id = \$2.* AND status = \$3 AND effective_from <= \$4 AND \(+effective_to IS NULL OR effective_to >= \$5\)+ ORDER BY effective_from DESC`).
		WithArgs(companyID, employeeID, compensation.StatusApproved, asOf, asOf).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	structures, err := repo.FindApprovedCovering(ctx, companyID, employeeID, asOf)

	assert.NoError(t, err)
	assert.Empty(t, structures)
	assert.NoError(t, mock.ExpectationsWereMet())
}
