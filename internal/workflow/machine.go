// Package workflow holds the approval state machines for compensation
// structures and payslips, plus the post-commit side effects of a transition.
package workflow

import (
	"net/http"

	"go-payroll/internal/domain"
	"go-payroll/internal/shared/apperror"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	// StatusReleased is only ever reached by payslips. Persisted payslips keep
	// APPROVED plus a one-way released flag; see payslip.Payslip.State.
	StatusReleased Status = "RELEASED"
)

const (
	EntityCompensation = "compensation_structure"
	EntityPayslip      = "payslip"
)

var (
	ErrNotManagerCapable = apperror.New(
		apperror.CodeInvalidInput,
		"actor is not allowed to approve or release",
		http.StatusForbidden,
	)
	ErrInvalidTransition = apperror.New(
		apperror.CodeInvalidState,
		"invalid status transition",
		http.StatusBadRequest,
	)
	ErrUnknownStatus = apperror.New(
		apperror.CodeInvalidState,
		"unknown status",
		http.StatusBadRequest,
	)
)

// Machine is a forward-only transition table. There is no rejection edge in
// either machine.
type Machine struct {
	edges map[Status][]Status
}

var (
	Compensation = Machine{
		edges: map[Status][]Status{
			StatusPending:  {StatusApproved},
			StatusApproved: nil,
		},
	}

	Payslip = Machine{
		edges: map[Status][]Status{
			StatusPending:  {StatusApproved},
			StatusApproved: {StatusReleased},
			StatusReleased: nil,
		},
	}
)

func (m Machine) Known(s Status) bool {
	_, ok := m.edges[s]
	return ok
}

func (m Machine) Can(from, to Status) bool {
	for _, next := range m.edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Authorize checks that actor may move an entity from -> to. Every edge in
// both machines requires a manager-capable actor.
func (m Machine) Authorize(actor domain.Actor, from, to Status) error {
	if !m.Known(from) || !m.Known(to) {
		return ErrUnknownStatus
	}
	if !actor.ManagerCapable() {
		return ErrNotManagerCapable
	}
	if !m.Can(from, to) {
		return ErrInvalidTransition
	}
	return nil
}
