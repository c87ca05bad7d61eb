package service

import (
	"testing"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
	"github.com/stretchr/testify/require"
)

func TestPermissionTable(t *testing.T) {
	type row struct {
		admin, manager, staff bool
	}
	predicates := []struct {
		name string
		fn   func(domain.User) bool
		want row
	}{
		{"IsAdmin", IsAdmin, row{true, false, false}},
		{"IsManagerOrAbove", IsManagerOrAbove, row{true, true, false}},
		{"CanEditUsers", CanEditUsers, row{true, false, false}},
		{"CanViewReports", CanViewReports, row{true, true, false}},
		{"CanManageInventory", CanManageInventory, row{true, true, false}},
		{"CanProcessPayments", CanProcessPayments, row{true, true, true}},
	}

	for _, p := range predicates {
		t.Run(p.name, func(t *testing.T) {
			require.Equal(t, p.want.admin, p.fn(domain.User{Role: domain.RoleAdmin}), "admin")
			require.Equal(t, p.want.manager, p.fn(domain.User{Role: domain.RoleManager}), "manager")
			require.Equal(t, p.want.staff, p.fn(domain.User{Role: domain.RoleStaff}), "staff")

			for _, bogus := range []domain.Role{"", "Admin", "owner", "ADMIN"} {
				require.False(t, p.fn(domain.User{Role: bogus}), "role %q", bogus)
			}
		})
	}
}

func TestCapabilitiesCoverTable(t *testing.T) {
	require.Len(t, Capabilities(), len(permissions))
	for _, c := range Capabilities() {
		require.Contains(t, permissions, c)
	}
}

func TestRequire(t *testing.T) {
	admin := domain.User{Role: domain.RoleAdmin}
	staff := domain.User{Role: domain.RoleStaff}

	require.NoError(t, Require(admin, CapEditUsers))
	err := Require(staff, CapEditUsers)
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.NoError(t, Require(staff, CapProcessPayments))
}
