package domain

import (
	"errors"
	"fmt"
)

// Role is one of a closed set of staff roles.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

// DefaultRole is assigned when a user is created without an explicit role.
const DefaultRole = RoleStaff

var ErrUnknownRole = errors.New("unknown role")

// Roles lists every valid role, most privileged first.
func Roles() []Role { return []Role{RoleAdmin, RoleManager, RoleStaff} }

// Valid reports whether r belongs to the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

// ParseRole converts s into a Role. The empty string yields DefaultRole.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return DefaultRole, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Label is the Persian name shown to operators.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "مدیر سیستم"
	case RoleManager:
		return "مدیر اجرایی"
	case RoleStaff:
		return "کارمند"
	}
	return string(r)
}
