package rbac

import "go-payroll/internal/domain"

const (
	ResourceCompensation = "compensation"
	ResourcePayslip      = "payslip"

	ActionCreate  = "create"
	ActionRead    = "read"
	ActionApprove = "approve"
	ActionRelease = "release"
)

const modelText = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

type Permission struct {
	Resource string
	Action   string
}

type Policy struct {
	Role        domain.Role
	Permissions []Permission
	// Inherits lists roles whose permissions this role also holds.
	Inherits []domain.Role
}

// DefaultPolicies grants HR the preparation rights, managers the approval
// rights on top of HR, and employees read access to payslips.
func DefaultPolicies() []Policy {
	return []Policy{
		{
			Role: domain.RoleEmployee,
			Permissions: []Permission{
				{ResourcePayslip, ActionRead},
			},
		},
		{
			Role: domain.RoleHR,
			Permissions: []Permission{
				{ResourceCompensation, ActionCreate},
				{ResourceCompensation, ActionRead},
				{ResourcePayslip, ActionCreate},
				{ResourcePayslip, ActionRead},
			},
		},
		{
			Role:     domain.RoleHRManager,
			Inherits: []domain.Role{domain.RoleHR},
			Permissions: []Permission{
				{ResourceCompensation, ActionApprove},
				{ResourcePayslip, ActionApprove},
				{ResourcePayslip, ActionRelease},
			},
		},
		{
			Role:     domain.RoleAdmin,
			Inherits: []domain.Role{domain.RoleHRManager},
		},
	}
}
