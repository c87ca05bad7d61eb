package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement this.
// Sub-repositories are reached through methods so that a Tx-scoped Store can
// hand out repositories bound to the same transaction.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// SchemaVersion reports the last applied migration, 0 when none has run.
	SchemaVersion() (uint, error)

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. The transaction commits when fn
	// returns nil and rolls back when fn returns an error or panics. The
	// underlying connection is released on every path.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername matches the username exactly (case-sensitive).
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the caller via ULID).
	// Returns ErrAlreadyExists when the username is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash replaces the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// UpdateLoginFailures stores the failed-login counter and the time of the
	// last failure. A zero time clears it. updated_at is left alone.
	UpdateLoginFailures(ctx context.Context, userID string, failures int, at time.Time) error

	// UpdateProfile replaces display name, email and phone and bumps updated_at.
	UpdateProfile(ctx context.Context, userID string, p domain.Profile) error

	// SetActive flips the active flag and bumps updated_at.
	SetActive(ctx context.Context, userID string, active bool) error

	// ListUsers returns every user ordered by creation (oldest first).
	ListUsers(ctx context.Context) ([]domain.User, error)

	// CountUsers returns the number of users.
	CountUsers(ctx context.Context) (int, error)

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}
