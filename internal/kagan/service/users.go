package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
	"github.com/aussiebroadwan/kagan/internal/kagan/store"
	"github.com/aussiebroadwan/kagan/pkg/slogx"
)

// UserService covers user administration outside the credential lifecycle:
// listing, profile edits and activation toggling. Returned users never carry
// the password hash.
type UserService struct {
	Store store.Store
}

type profileInput struct {
	DisplayName string `name:"display_name" validate:"required,max=100"`
	Email       string `name:"email" validate:"omitempty,max=100,email"`
	Phone       string `name:"phone" validate:"omitempty,phone_ir"`
}

// GetUser fetches a user by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := getUser(ctx, s.Store, userID)
	if err != nil {
		return domain.User{}, err
	}
	return user.WithoutSecret(), nil
}

// GetUserByUsername fetches a user by exact username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user.WithoutSecret(), nil
}

// ListUsers returns every user, oldest first.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.Store.Users().ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		users[i] = users[i].WithoutSecret()
	}
	return users, nil
}

// UpdateProfile replaces the editable profile fields of userID.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, p domain.Profile) error {
	in := profileInput{
		DisplayName: p.DisplayName,
		Email:       strings.TrimSpace(p.Email),
		Phone:       NormalizePhone(p.Phone),
	}
	if err := validateStruct(in); err != nil {
		return err
	}
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		err := tx.Users().UpdateProfile(ctx, id, domain.Profile{
			DisplayName: in.DisplayName,
			Email:       in.Email,
			Phone:       in.Phone,
		})
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	})
}

// Deactivate blocks userID from authenticating. Users are never deleted.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	return s.setActive(ctx, userID, false)
}

// Activate lets a previously deactivated user authenticate again.
func (s *UserService) Activate(ctx context.Context, userID string) error {
	return s.setActive(ctx, userID, true)
}

func (s *UserService) setActive(ctx context.Context, userID string, active bool) error {
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		err := tx.Users().SetActive(ctx, id, active)
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("user activation changed",
		slog.String("user_id", userID),
		slog.Bool("active", active),
	)
	return nil
}
