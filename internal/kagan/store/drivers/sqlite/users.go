package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
	"github.com/aussiebroadwan/kagan/internal/kagan/store"
)

type usersRepo struct {
	q   *queries
	now func() time.Time
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row, err := r.q.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := formatTime(r.now())
	err := r.q.CreateUser(ctx, userRow{
		ID:           u.ID,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Email:        mapStringNull(u.Email),
		Phone:        mapStringNull(u.Phone),
		IsActive:     u.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	n, err := r.q.UpdateUserPasswordHash(ctx, userID, newHash, formatTime(r.now()))
	return requireOne(n, err)
}

func (r *usersRepo) UpdateLoginFailures(ctx context.Context, userID string, failures int, at time.Time) error {
	last := sql.NullString{}
	if !at.IsZero() {
		last = sql.NullString{String: formatTime(at), Valid: true}
	}
	n, err := r.q.UpdateLoginFailures(ctx, userID, int64(failures), last)
	return requireOne(n, err)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID string, p domain.Profile) error {
	n, err := r.q.UpdateUserProfile(ctx,
		userID,
		p.DisplayName,
		mapStringNull(p.Email),
		mapStringNull(p.Phone),
		formatTime(r.now()),
	)
	return requireOne(n, err)
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool) error {
	n, err := r.q.SetUserActive(ctx, userID, active, formatTime(r.now()))
	return requireOne(n, err)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		u, err := mapUser(row)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *usersRepo) CountUsers(ctx context.Context) (int, error) {
	n, err := r.q.CountUsers(ctx)
	return int(n), err
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func requireOne(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
