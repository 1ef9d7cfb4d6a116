package batcherrors

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
	ErrEmptyBatch = apperror.New(
		apperror.CodeInvalidInput,
		"employee_ids must contain at least one employee",
		http.StatusBadRequest,
	)
	ErrBatchTooLarge = apperror.New(
		apperror.CodeInvalidInput,
		"too many employees in one batch",
		http.StatusBadRequest,
	)
)
