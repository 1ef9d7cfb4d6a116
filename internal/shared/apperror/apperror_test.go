package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"go-payroll/internal/shared/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	conflict := apperror.New(apperror.CodeConflict, "taken", http.StatusConflict)

	tests := []struct {
		name string
		err  error
		want apperror.Kind
	}{
		{"invalid input", apperror.ErrInvalidInput, apperror.KindValidation},
		{"invalid state", apperror.New(apperror.CodeInvalidState, "released", http.StatusBadRequest), apperror.KindValidation},
		{"wrapped conflict", fmt.Errorf("create: %w", conflict), apperror.KindConflict},
		{"not found", apperror.ErrNotFound, apperror.KindNotFound},
		{"persistence", apperror.Persistence(errors.New("disk full")), apperror.KindPersistence},
		{"forbidden", apperror.ErrForbidden, apperror.KindAccess},
		{"foreign", errors.New("boom"), apperror.KindInternal},
		{"nil", nil, apperror.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperror.KindOf(tt.err))
		})
	}
}

func TestPersistence_KeepsAppErrors(t *testing.T) {
	assert.Same(t, apperror.ErrNotFound, apperror.Persistence(apperror.ErrNotFound))
	assert.Nil(t, apperror.Persistence(nil))
}

func TestToHTTP_HidesCause(t *testing.T) {
	httpErr := apperror.ToHTTP(apperror.Persistence(errors.New("pq: password authentication failed")))

	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, apperror.CodePersistence, httpErr.Code)
	assert.NotContains(t, httpErr.Message, "password")

	assert.Equal(t, apperror.CodeInternalError, apperror.ToHTTP(errors.New("raw")).Code)
}

type batchInput struct {
	Employees []string `json:"employees" validate:"required"`
	Month     int      `json:"month" validate:"min=1,max=12"`
	Currency  string   `json:"currency" validate:"omitempty,oneof=INR USD"`
}

func TestMapValidationError(t *testing.T) {
	v := validator.New()

	err := apperror.MapValidationError(v.Struct(batchInput{Month: 3}))
	assert.Equal(t, "Employees is required", err.Error())

	err = apperror.MapValidationError(v.Struct(batchInput{Employees: []string{"a"}, Month: 13}))
	assert.Equal(t, "Month must be at most 12", err.Error())

	err = apperror.MapValidationError(errors.New("unexpected EOF"))
	assert.Equal(t, apperror.CodeInvalidInput, apperror.CodeOf(err))
}

func TestMapValidationError_RequiredAndFallback(t *testing.T) {
	v := validator.New()

	err := apperror.MapValidationError(v.Struct(batchInput{Month: 1}))
	var appErr *apperror.AppError
	if assert.True(t, apperror.As(err, &appErr)) {
		assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
		assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
		assert.Equal(t, "Employees is required", appErr.Message)
	}

	err = apperror.MapValidationError(v.Struct(batchInput{Employees: []string{"a"}, Month: 1, Currency: "EUR"}))
	if assert.True(t, apperror.As(err, &appErr)) {
		assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
		assert.Equal(t, "Currency is invalid", appErr.Message)
	}
}

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, "Year is required", apperror.RequiredField("Year").Error())
	assert.Equal(t, "Year is invalid", apperror.InvalidField("Year").Error())
	assert.Equal(t, http.StatusBadRequest, apperror.InvalidField("Year").HTTPStatus)
}
