package compensationerrors

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
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"effective_from must be before effective_to",
		http.StatusBadRequest,
	)
	ErrNegativeAmount = apperror.New(
		apperror.CodeInvalidInput,
		"compensation amounts cannot be negative",
		http.StatusBadRequest,
	)
	ErrInvalidTaxPercent = apperror.New(
		apperror.CodeInvalidInput,
		"tax_percent must be between 0 and 100",
		http.StatusBadRequest,
	)
	ErrInvalidLineItem = apperror.New(
		apperror.CodeInvalidInput,
		"line item label is required",
		http.StatusBadRequest,
	)
	ErrEmployeeNotInCompany = apperror.New(
		apperror.CodeNotFound,
		"employee not found in this company",
		http.StatusNotFound,
	)
	ErrCompensationNotFound = apperror.New(
		apperror.CodeNotFound,
		"compensation structure not found",
		http.StatusNotFound,
	)
	ErrNoActiveCompensation = apperror.New(
		apperror.CodeNotFound,
		"no approved compensation structure covers this date",
		http.StatusNotFound,
	)
	ErrApprovedOverlap = apperror.New(
		apperror.CodeConflict,
		"employee already has an approved compensation structure in an overlapping period",
		http.StatusConflict,
	)
	ErrPendingOverlap = apperror.New(
		apperror.CodeConflict,
		"employee already has a pending compensation structure in an overlapping period",
		http.StatusConflict,
	)
	ErrAmbiguousActive = apperror.New(
		apperror.CodeConflict,
		"more than one approved compensation structure covers this date",
		http.StatusConflict,
	)
	ErrConcurrentModification = apperror.New(
		apperror.CodeConflict,
		"compensation structure was modified concurrently, reload and retry",
		http.StatusConflict,
	)
	ErrSupersedeOnlyApproved = apperror.New(
		apperror.CodeInvalidState,
		"only an approved compensation structure can be superseded",
		http.StatusBadRequest,
	)
	ErrSupersedeWindow = apperror.New(
		apperror.CodeInvalidInput,
		"superseding structure must start after the superseded one",
		http.StatusBadRequest,
	)
	ErrSupersededChanged = apperror.New(
		apperror.CodeConflict,
		"superseded compensation structure is no longer approved",
		http.StatusConflict,
	)
	ErrDeleteOnlyPending = apperror.New(
		apperror.CodeInvalidState,
		"compensation structure can only be deleted while status is PENDING",
		http.StatusBadRequest,
	)
)
