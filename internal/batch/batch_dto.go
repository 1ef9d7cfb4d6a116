package batch

import (
	"go-payroll/internal/compensation"

	"github.com/shopspring/decimal"
)

type OutcomeStatus string

const (
	OutcomeCreated  OutcomeStatus = "Created"
	OutcomeConflict OutcomeStatus = "Conflict"
	OutcomeError    OutcomeStatus = "Error"
)

// Outcome is the result of one employee's unit of work. Outcomes are not
// persisted.
type Outcome struct {
	EmployeeID string        `json:"employee_id"`
	Status     OutcomeStatus `json:"status"`
	ID         string        `json:"id,omitempty"`
	Message    string        `json:"message,omitempty"`
}

type AssignTemplateRequest struct {
	compensation.TemplateRequest
	EmployeeIDs []string `json:"employee_ids" binding:"required"`
}

type GeneratePayslipsRequest struct {
	Year               int              `json:"year" binding:"required,min=1"`
	Month              int              `json:"month" binding:"required,min=1,max=12"`
	LOPDays            map[string]int   `json:"lop_days"`
	OverrideAllowances *decimal.Decimal `json:"override_allowances"`
	OverrideDeductions *decimal.Decimal `json:"override_deductions"`
	EmployeeIDs        []string         `json:"employee_ids" binding:"required"`
}

type Summary struct {
	Created  int `json:"created"`
	Conflict int `json:"conflict"`
	Error    int `json:"error"`
}

type Result struct {
	Outcomes []Outcome `json:"outcomes"`
	Summary  Summary   `json:"summary"`
}

func summarize(outcomes []Outcome) Result {
	var s Summary
	for _, o := range outcomes {
		switch o.Status {
		case OutcomeCreated:
			s.Created++
		case OutcomeConflict:
			s.Conflict++
		default:
			s.Error++
		}
	}
	return Result{Outcomes: outcomes, Summary: s}
}
