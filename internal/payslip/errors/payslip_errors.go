package paysliperrors

import (
	"net/http"

	"go-payroll/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"year must be positive and month between 1 and 12",
		http.StatusBadRequest,
	)
	ErrInvalidLOPDays = apperror.New(
		apperror.CodeInvalidInput,
		"lop_days must be between 0 and the number of days in the month",
		http.StatusBadRequest,
	)
	ErrNegativeOverride = apperror.New(
		apperror.CodeInvalidInput,
		"override totals cannot be negative",
		http.StatusBadRequest,
	)
	ErrStructureNotApproved = apperror.New(
		apperror.CodeInvalidState,
		"compensation structure is not approved",
		http.StatusBadRequest,
	)
	ErrEmployeeMismatch = apperror.New(
		apperror.CodeInvalidInput,
		"compensation structure belongs to a different employee",
		http.StatusBadRequest,
	)
	ErrPayslipNotFound = apperror.New(
		apperror.CodeNotFound,
		"payslip not found",
		http.StatusNotFound,
	)
	ErrPayslipExists = apperror.New(
		apperror.CodeConflict,
		"payslip already exists for this employee and period",
		http.StatusConflict,
	)
	ErrConcurrentModification = apperror.New(
		apperror.CodeConflict,
		"payslip was modified concurrently, reload and retry",
		http.StatusConflict,
	)
	ErrPayslipReleased = apperror.New(
		apperror.CodeInvalidState,
		"payslip has been released and can no longer be changed",
		http.StatusBadRequest,
	)
	ErrRegenerateOnlyPending = apperror.New(
		apperror.CodeInvalidState,
		"payslip can only be regenerated while status is PENDING",
		http.StatusBadRequest,
	)
	ErrDeleteOnlyPending = apperror.New(
		apperror.CodeInvalidState,
		"payslip can only be deleted while status is PENDING",
		http.StatusBadRequest,
	)
	ErrForeignPayslips = apperror.New(
		apperror.CodeForbidden,
		"employees may only view their own payslips",
		http.StatusForbidden,
	)
)
