package compensation

import (
	"errors"
	"strings"

	compensationerrors "go-payroll/internal/compensation/errors"
	"go-payroll/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	uniqueViolation    = "23505"
	exclusionViolation = "23P01"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return compensationerrors.ErrCompensationNotFound
	}
	if errors.Is(err, ErrStaleVersion) {
		return compensationerrors.ErrConcurrentModification
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == uniqueViolation || pgErr.Code == exclusionViolation) {
		return compensationerrors.ErrApprovedOverlap
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") {
		return compensationerrors.ErrApprovedOverlap
	}

	return apperror.Persistence(err)
}
