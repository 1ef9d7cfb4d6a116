package apperror

import "net/http"

// Shared errors for failures that are not owned by a feature package.
var (
	ErrInvalidInput = New(CodeInvalidInput, "The provided input is invalid", http.StatusBadRequest)
	ErrUnauthorized = New(CodeUnauthorized, "Authentication is required", http.StatusUnauthorized)
	ErrForbidden    = New(CodeForbidden, "You do not have permission to access this resource", http.StatusForbidden)
	ErrNotFound     = New(CodeNotFound, "Resource not found", http.StatusNotFound)
	ErrPersistence  = New(CodePersistence, "Storage operation failed", http.StatusInternalServerError)
	ErrInternal     = New(CodeInternalError, "An unexpected error occurred", http.StatusInternalServerError)
)

func RequiredField(field string) *AppError {
	return New(CodeInvalidInput, field+" is required", http.StatusBadRequest)
}

func InvalidField(field string) *AppError {
	return New(CodeInvalidInput, field+" is invalid", http.StatusBadRequest)
}

// Persistence wraps an unexpected storage failure so the driver message
// never reaches the client. Errors that are already AppErrors pass through.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if As(err, &appErr) {
		return err
	}
	return Wrap(err, ErrPersistence.Code, ErrPersistence.Message, ErrPersistence.HTTPStatus)
}
