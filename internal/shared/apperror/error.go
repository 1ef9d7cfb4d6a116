package apperror

import (
	"errors"
	"fmt"
)

type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	// Err is the cause; it is never rendered to clients.
	Err error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        nil,
	}
}

// Wrap attaches a cause to a client-facing error. A nil err yields nil.
func Wrap(err error, code, message string, httpStatus int) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func As(err error, target **AppError) bool {
	return errors.As(err, target)
}

// CodeOf returns the code of the outermost AppError in the chain, or
// CodeInternalError when there is none.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

// KindOf classifies err; nil and foreign errors are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	return kindOfCode(CodeOf(err))
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }

func IsConflict(err error) bool { return KindOf(err) == KindConflict }

func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

func IsPersistence(err error) bool { return KindOf(err) == KindPersistence }
