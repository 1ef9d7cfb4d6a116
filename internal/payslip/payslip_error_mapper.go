package payslip

import (
	"errors"
	"strings"

	paysliperrors "go-payroll/internal/payslip/errors"
	"go-payroll/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return paysliperrors.ErrPayslipNotFound
	}
	if errors.Is(err, ErrStaleVersion) {
		return paysliperrors.ErrConcurrentModification
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return paysliperrors.ErrPayslipExists
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "uq_payslip_employee_period") || strings.Contains(errMsg, "duplicate key value") {
		return paysliperrors.ErrPayslipExists
	}

	return apperror.Persistence(err)
}
