package workflow

// Role is the closed set of organizational roles known to the workflow.
// Approval steps are bound to exactly one role each; HOSPITAL submits claims
// and answers clarifications; CUSTOMER_ADMIN allocates work but never acts
// on a step itself.
type Role string

const (
	RoleJPO           Role = "JPO"
	RoleAPO           Role = "APO"
	RoleDPO           Role = "DPO"
	RoleFACAO         Role = "FA_CAO"
	RoleDE            Role = "DE"
	RoleSECGM         Role = "SE_CGM"
	RoleDirector      Role = "DIRECTOR"
	RoleHospital      Role = "HOSPITAL"
	RoleCustomerAdmin Role = "CUSTOMER_ADMIN"
)

var validRoles = map[Role]bool{
	RoleJPO:           true,
	RoleAPO:           true,
	RoleDPO:           true,
	RoleFACAO:         true,
	RoleDE:            true,
	RoleSECGM:         true,
	RoleDirector:      true,
	RoleHospital:      true,
	RoleCustomerAdmin: true,
}

var approverRoles = map[Role]bool{
	RoleJPO:      true,
	RoleAPO:      true,
	RoleDPO:      true,
	RoleFACAO:    true,
	RoleDE:       true,
	RoleSECGM:    true,
	RoleDirector: true,
}

func (r Role) String() string { return string(r) }

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool { return validRoles[r] }

// IsApprover reports whether r may be bound to a workflow step.
func (r Role) IsApprover() bool { return approverRoles[r] }
