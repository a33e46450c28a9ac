package models

import "fmt"

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleManagedUser Role = "managed-user"
)

// ParseRole validates a raw role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleManagedUser:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role %q", s)
	}
}

// CanManageUsers reports whether the role may administer other accounts and
// read the audit log.
func (r Role) CanManageUsers() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleManagedUser:
		return false
	default:
		return false
	}
}

// CanHaveServersAssigned reports whether the role's server set is managed
// externally through bulk assignment.
func (r Role) CanHaveServersAssigned() bool {
	switch r {
	case RoleAdmin:
		return false
	case RoleManagedUser:
		return true
	default:
		return false
	}
}
