package service

import "github.com/aussiebroadwan/kagan/internal/kagan/domain"

// Capability names something a role may be allowed to do.
type Capability string

const (
	CapAdmin           Capability = "admin"
	CapManagerOrAbove  Capability = "manager_or_above"
	CapEditUsers       Capability = "edit_users"
	CapViewReports     Capability = "view_reports"
	CapManageInventory Capability = "manage_inventory"
	CapProcessPayments Capability = "process_payments"
)

// permissions is the closed capability table. A role absent from a row is
// denied; unrecognised roles are therefore denied everything.
var permissions = map[Capability]map[domain.Role]bool{
	CapAdmin:           {domain.RoleAdmin: true},
	CapManagerOrAbove:  {domain.RoleAdmin: true, domain.RoleManager: true},
	CapEditUsers:       {domain.RoleAdmin: true},
	CapViewReports:     {domain.RoleAdmin: true, domain.RoleManager: true},
	CapManageInventory: {domain.RoleAdmin: true, domain.RoleManager: true},
	CapProcessPayments: {domain.RoleAdmin: true, domain.RoleManager: true, domain.RoleStaff: true},
}

// Capabilities lists every capability in display order.
func Capabilities() []Capability {
	return []Capability{
		CapAdmin,
		CapManagerOrAbove,
		CapEditUsers,
		CapViewReports,
		CapManageInventory,
		CapProcessPayments,
	}
}

// Can reports whether u's role grants c.
func Can(u domain.User, c Capability) bool {
	return permissions[c][u.Role]
}

func IsAdmin(u domain.User) bool            { return Can(u, CapAdmin) }
func IsManagerOrAbove(u domain.User) bool   { return Can(u, CapManagerOrAbove) }
func CanEditUsers(u domain.User) bool       { return Can(u, CapEditUsers) }
func CanViewReports(u domain.User) bool     { return Can(u, CapViewReports) }
func CanManageInventory(u domain.User) bool { return Can(u, CapManageInventory) }
func CanProcessPayments(u domain.User) bool { return Can(u, CapProcessPayments) }

// Require returns ErrPermissionDenied unless u's role grants c.
func Require(u domain.User, c Capability) error {
	if !Can(u, c) {
		return ErrPermissionDenied
	}
	return nil
}
