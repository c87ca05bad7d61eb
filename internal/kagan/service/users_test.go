package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
	"github.com/stretchr/testify/require"
)

func TestUserServiceActivation(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)
	users := &UserService{Store: auth.Store}
	bob := mustCreate(t, auth, "bob", "secret1", domain.RoleStaff)

	require.NoError(t, users.Deactivate(ctx, bob.ID))
	got, err := users.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	require.NoError(t, users.Activate(ctx, bob.ID))
	_, err = auth.Authenticate(ctx, "bob", "secret1")
	require.NoError(t, err)

	require.ErrorIs(t, users.Deactivate(ctx, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"), ErrUserNotFound)
}

func TestUserServiceLookupsHideHash(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)
	users := &UserService{Store: auth.Store}
	bob := mustCreate(t, auth, "bob", "secret1", domain.RoleStaff)
	mustCreate(t, auth, "alice", "secret1", domain.RoleManager)

	got, err := users.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, got.PasswordHash)

	got, err = users.GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, bob.ID, got.ID)
	require.Empty(t, got.PasswordHash)

	_, err = users.GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, ErrUserNotFound)

	list, err := users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, u := range list {
		require.Empty(t, u.PasswordHash)
	}
}

func TestUserServiceUpdateProfile(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)
	users := &UserService{Store: auth.Store}
	bob := mustCreate(t, auth, "bob", "secret1", domain.RoleStaff)

	err := users.UpdateProfile(ctx, bob.ID, domain.Profile{
		DisplayName: "باب",
		Email:       "bob@kagan.local",
		Phone:       "0912 123 4567",
	})
	require.NoError(t, err)

	got, err := users.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, "باب", got.DisplayName)
	require.Equal(t, "bob@kagan.local", got.Email)
	require.Equal(t, "09121234567", got.Phone)

	err = users.UpdateProfile(ctx, bob.ID, domain.Profile{DisplayName: "", Email: "bad"})
	require.ErrorIs(t, err, ErrInvalidInput)

	err = users.UpdateProfile(ctx, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", domain.Profile{DisplayName: "x"})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestMalformedUserIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	auth := newTestAuth(t)
	users := &UserService{Store: auth.Store}

	for _, id := range []string{"", "bob", "1; DROP TABLE users"} {
		_, err := users.GetUser(ctx, id)
		require.ErrorIs(t, err, ErrUserNotFound, id)
		require.ErrorIs(t, users.Deactivate(ctx, id), ErrUserNotFound, id)
		require.ErrorIs(t, users.UpdateProfile(ctx, id, domain.Profile{DisplayName: "x"}), ErrUserNotFound, id)
		require.ErrorIs(t, auth.ResetPassword(ctx, id, "secret1"), ErrUserNotFound, id)
	}
}
