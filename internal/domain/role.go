package domain

import (
	"fmt"
	"strings"
)

// Role is the closed set of identities the identity provider may assert.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleHR        Role = "HR"
	RoleHRManager Role = "HRManager"
	RoleEmployee  Role = "Employee"
)

func ParseRole(v string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "admin":
		return RoleAdmin, nil
	case "hr":
		return RoleHR, nil
	case "hrmanager", "hr_manager":
		return RoleHRManager, nil
	case "employee":
		return RoleEmployee, nil
	default:
		return "", fmt.Errorf("unknown role %q", v)
	}
}

// ManagerCapable reports whether the role may approve compensation and
// approve or release payslips.
func (r Role) ManagerCapable() bool {
	switch r {
	case RoleAdmin, RoleHRManager:
		return true
	case RoleHR, RoleEmployee:
		return false
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }

// Actor is the authenticated caller as seen by the core services.
type Actor struct {
	UserID     string
	EmployeeID string
	Role       Role
}

func (a Actor) ManagerCapable() bool {
	return a.Role.ManagerCapable()
}

// Owns reports whether the actor is the employee the record belongs to.
func (a Actor) Owns(employeeID string) bool {
	return a.EmployeeID != "" && strings.EqualFold(a.EmployeeID, employeeID)
}

// ID is what audit trails record as the acting principal.
func (a Actor) ID() string {
	if a.UserID != "" {
		return a.UserID
	}
	return a.EmployeeID
}
