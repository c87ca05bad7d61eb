package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
	"github.com/aussiebroadwan/kagan/internal/kagan/store/drivers/sqlite"
	"github.com/aussiebroadwan/kagan/pkg/cryptox"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	h, err := cryptox.NewHasher(cryptox.Bcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	return &AuthService{
		Store:  s,
		Hasher: h,
		Policy: DefaultPasswordPolicy(),
	}
}

func mustCreate(t *testing.T, auth *AuthService, username, password string, role domain.Role) domain.User {
	t.Helper()

	u, err := auth.CreateUser(context.Background(), NewUser{
		Username:    username,
		Password:    password,
		DisplayName: "کاربر " + username,
		Role:        role,
	})
	require.NoError(t, err)
	return u
}

func countUsers(t *testing.T, auth *AuthService) int {
	t.Helper()
	n, err := auth.Store.Users().CountUsers(context.Background())
	require.NoError(t, err)
	return n
}
