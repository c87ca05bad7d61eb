package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
	"github.com/aussiebroadwan/kagan/internal/kagan/store"
	"github.com/aussiebroadwan/kagan/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func testUser(username string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Username:     username,
		DisplayName:  "کاربر " + username,
		PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceholderplacehold",
		Role:         domain.RoleStaff,
		Active:       true,
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsersCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	empty, err := s.Users().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	u := testUser("bob")
	u.Email = "bob@kagan.local"
	require.NoError(t, s.Users().CreateUser(ctx, u))

	got, err := s.Users().GetUserByUsername(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, u.DisplayName, got.DisplayName)
	require.Equal(t, u.PasswordHash, got.PasswordHash)
	require.Equal(t, domain.RoleStaff, got.Role)
	require.Equal(t, "bob@kagan.local", got.Email)
	require.Empty(t, got.Phone)
	require.True(t, got.Active)
	require.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)
	require.Equal(t, got.CreatedAt, got.UpdatedAt)

	byID, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, got, byID)

	n, err := s.Users().CountUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestUsernameIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Users().CreateUser(ctx, testUser("bob")))

	_, err := s.Users().GetUserByUsername(ctx, "Bob")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Users().CreateUser(ctx, testUser("Bob")))
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Users().CreateUser(ctx, testUser("bob")))
	err := s.Users().CreateUser(ctx, testUser("bob"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	n, err := s.Users().CountUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := testUser("mallory")
	u.Role = "owner"
	err := s.Users().CreateUser(ctx, u)
	require.Error(t, err)
	require.NotErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetMissingUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Users().GetUserByID(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetUserByUsername(ctx, "nouser")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := testUser("bob")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	require.NoError(t, s.Users().UpdatePasswordHash(ctx, u.ID, "$2a$04$other"))
	require.NoError(t, s.Users().SetActive(ctx, u.ID, false))
	require.NoError(t, s.Users().UpdateProfile(ctx, u.ID, domain.Profile{
		DisplayName: "باب",
		Phone:       "09121234567",
	}))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "$2a$04$other", got.PasswordHash)
	require.False(t, got.Active)
	require.Equal(t, "باب", got.DisplayName)
	require.Equal(t, "09121234567", got.Phone)
	require.Empty(t, got.Email)

	missing := idx.New().String()
	require.ErrorIs(t, s.Users().UpdatePasswordHash(ctx, missing, "x"), store.ErrNotFound)
	require.ErrorIs(t, s.Users().SetActive(ctx, missing, true), store.ErrNotFound)
	require.ErrorIs(t, s.Users().UpdateProfile(ctx, missing, domain.Profile{DisplayName: "x"}), store.ErrNotFound)
}

func TestListUsersOrderedByCreation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"carol", "alice", "bob"} {
		at := base.Add(time.Duration(i) * time.Second)
		s.now = func() time.Time { return at }
		require.NoError(t, s.Users().CreateUser(ctx, testUser(name)))
	}

	users, err := s.Users().ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	require.Equal(t, "carol", users[0].Username)
	require.Equal(t, "alice", users[1].Username)
	require.Equal(t, "bob", users[2].Username)
	require.Equal(t, base, users[0].CreatedAt)
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, testUser("committed"))
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, testUser("rolled-back")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByUsername(ctx, "committed")
	require.NoError(t, err)
	_, err = s.Users().GetUserByUsername(ctx, "rolled-back")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.Panics(t, func() {
		_ = s.WithTx(ctx, func(tx store.Tx) error {
			_ = tx.Users().CreateUser(ctx, testUser("panicked"))
			panic("boom")
		})
	})

	// Connection was released: the store is still usable
	_, err := s.Users().GetUserByUsername(ctx, "panicked")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestNestedTxRefused(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Tx(ctx)
		require.Error(t, err)
		return tx.WithTx(ctx, func(store.Tx) error { return nil })
	})
	require.Error(t, err)
}

func TestSchemaVersion(t *testing.T) {
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	v, err := s.SchemaVersion()
	require.NoError(t, err)
	require.Zero(t, v)

	require.NoError(t, s.ApplyMigrations())
	v, err = s.SchemaVersion()
	require.NoError(t, err)
	require.EqualValues(t, 2, v)
}

func TestUpdateLoginFailures(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	u := testUser("bob")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, got.FailedLogins)
	require.True(t, got.LastFailedLogin.IsZero())

	at := time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)
	require.NoError(t, s.Users().UpdateLoginFailures(ctx, u.ID, 3, at))

	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 3, got.FailedLogins)
	require.Equal(t, at, got.LastFailedLogin)
	// Failure bookkeeping is not a profile change
	require.Equal(t, got.CreatedAt, got.UpdatedAt)

	require.NoError(t, s.Users().UpdateLoginFailures(ctx, u.ID, 0, time.Time{}))
	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, got.FailedLogins)
	require.True(t, got.LastFailedLogin.IsZero())

	err = s.Users().UpdateLoginFailures(ctx, idx.New().String(), 1, at)
	require.ErrorIs(t, err, store.ErrNotFound)
}
