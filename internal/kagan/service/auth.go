package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
	"github.com/aussiebroadwan/kagan/internal/kagan/store"
	"github.com/aussiebroadwan/kagan/pkg/cryptox"
	"github.com/aussiebroadwan/kagan/pkg/idx"
	"github.com/aussiebroadwan/kagan/pkg/slogx"
)

// AuthService verifies identity claims and manages the credential lifecycle.
// Every operation runs in its own transaction.
type AuthService struct {
	Store    store.Store
	Hasher   *cryptox.Hasher
	Policy   PasswordPolicy
	Throttle *LoginThrottle // optional
}

// NewUser is the input to CreateUser.
type NewUser struct {
	Username    string      `name:"username" validate:"required,max=50,trimmed"`
	Password    string      `name:"password" validate:"-"`
	DisplayName string      `name:"display_name" validate:"required,max=100"`
	Role        domain.Role `name:"role" validate:"omitempty,role"`
	Email       string      `name:"email" validate:"omitempty,max=100,email"`
	Phone       string      `name:"phone" validate:"omitempty,phone_ir"`
}

// HashPassword returns a salted one-way hash of plaintext.
func (s *AuthService) HashPassword(plaintext string) (string, error) {
	return s.Hasher.Hash(plaintext)
}

// VerifyPassword reports whether plaintext matches hash. A malformed hash is
// logged and treated as a mismatch so callers cannot tell the two apart.
func (s *AuthService) VerifyPassword(ctx context.Context, plaintext, hash string) bool {
	err := s.Hasher.Verify(plaintext, hash)
	if err == nil {
		return true
	}
	if !errors.Is(err, cryptox.ErrMismatch) {
		slogx.FromContext(ctx).Error("password verification error", slog.Any("error", err))
	}
	return false
}

// Authenticate returns the active user matching username and plaintext. The
// returned user never carries the password hash. Credential failures commit
// their transaction so the failed-login counter survives the call.
func (s *AuthService) Authenticate(ctx context.Context, username, plaintext string) (domain.User, error) {
	l := slogx.FromContext(ctx).With(slog.String("username", username))

	var user domain.User
	var denied error
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		user, err = tx.Users().GetUserByUsername(ctx, username)
		if errors.Is(err, store.ErrNotFound) {
			l.Warn("authentication failed: user not found")
			denied = ErrInvalidCredentials
			return nil
		}
		if err != nil {
			return fmt.Errorf("lookup user: %w", err)
		}

		if !s.Throttle.Allowed(user) {
			l.Warn("authentication throttled")
			denied = ErrTooManyAttempts
			return nil
		}

		if !user.Active {
			l.Warn("authentication failed: user is inactive")
			denied = ErrAccountInactive
			return nil
		}

		if !s.VerifyPassword(ctx, plaintext, user.PasswordHash) {
			l.Warn("authentication failed: invalid password")
			denied = ErrInvalidCredentials
			return s.recordFailure(ctx, tx, user)
		}

		if user.FailedLogins > 0 {
			if err := tx.Users().UpdateLoginFailures(ctx, user.ID, 0, time.Time{}); err != nil {
				return fmt.Errorf("clear login failures: %w", err)
			}
			user.FailedLogins, user.LastFailedLogin = 0, time.Time{}
		}

		if s.Hasher.NeedsRehash(user.PasswordHash) {
			if err := s.rehash(ctx, tx, user.ID, plaintext); err != nil {
				// The login itself is valid; keep the old hash
				l.Error("failed to upgrade password hash", slog.Any("error", err))
			}
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	if denied != nil {
		return domain.User{}, denied
	}

	l.Info("user authenticated successfully", slog.String("role", string(user.Role)))
	return user.WithoutSecret(), nil
}

func (s *AuthService) recordFailure(ctx context.Context, tx store.Tx, user domain.User) error {
	if s.Throttle == nil {
		return nil
	}
	failures, at := s.Throttle.Failed(user)
	if err := tx.Users().UpdateLoginFailures(ctx, user.ID, failures, at); err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}
	return nil
}

func (s *AuthService) rehash(ctx context.Context, tx store.Tx, userID, plaintext string) error {
	hash, err := s.Hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	return tx.Users().UpdatePasswordHash(ctx, userID, hash)
}

// CreateUser validates u, hashes its password and inserts it. The uniqueness
// check and the insert share one transaction; the UNIQUE constraint covers any
// writer that slips in between.
func (s *AuthService) CreateUser(ctx context.Context, u NewUser) (domain.User, error) {
	user, err := s.prepareUser(u)
	if err != nil {
		return domain.User{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err = insertUser(ctx, tx, user)
		return err
	})
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user created successfully",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user.WithoutSecret(), nil
}

// prepareUser validates u against the input rules and the password policy and
// returns the row to insert.
func (s *AuthService) prepareUser(u NewUser) (domain.User, error) {
	u.Phone = NormalizePhone(u.Phone)
	u.Email = strings.TrimSpace(u.Email)
	if err := validateStruct(u); err != nil {
		return domain.User{}, err
	}
	if err := s.Policy.Check(u.Password); err != nil {
		return domain.User{}, err
	}
	role, err := domain.ParseRole(string(u.Role))
	if err != nil {
		return domain.User{}, ErrInvalidInput.with(err)
	}

	hash, err := s.HashPassword(u.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	return domain.User{
		ID:           idx.New().String(),
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		PasswordHash: hash,
		Role:         role,
		Email:        u.Email,
		Phone:        u.Phone,
		Active:       true,
	}, nil
}

// insertUser checks the username is free and inserts user inside tx.
func insertUser(ctx context.Context, tx store.Tx, user domain.User) (domain.User, error) {
	_, err := tx.Users().GetUserByUsername(ctx, user.Username)
	switch {
	case err == nil:
		return domain.User{}, ErrUsernameTaken.withMessage(user.Username)
	case !errors.Is(err, store.ErrNotFound):
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := tx.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrUsernameTaken.withMessage(user.Username).with(err)
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}

	// Re-read for store-assigned timestamps
	return tx.Users().GetUserByID(ctx, user.ID)
}

// ChangePassword replaces the password of userID after verifying oldPlaintext.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPlaintext, newPlaintext string) error {
	if err := s.Policy.Check(newPlaintext); err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := getUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		if !s.VerifyPassword(ctx, oldPlaintext, user.PasswordHash) {
			slogx.FromContext(ctx).Warn("password change rejected: wrong current password",
				slog.String("username", user.Username))
			return ErrWrongPassword
		}

		if err := s.setPassword(ctx, tx, user, newPlaintext); err != nil {
			return err
		}
		slogx.FromContext(ctx).Info("password changed", slog.String("username", user.Username))
		return nil
	})
}

// ResetPassword is the administrative override: no old password is required.
func (s *AuthService) ResetPassword(ctx context.Context, userID, newPlaintext string) error {
	if err := s.Policy.Check(newPlaintext); err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := getUser(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := s.setPassword(ctx, tx, user, newPlaintext); err != nil {
			return err
		}
		slogx.FromContext(ctx).Info("password reset", slog.String("username", user.Username))
		return nil
	})
}

func (s *AuthService) setPassword(ctx context.Context, tx store.Tx, user domain.User, plaintext string) error {
	hash, err := s.HashPassword(plaintext)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := tx.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// getUser maps a malformed id or a missing row to ErrUserNotFound.
func getUser(ctx context.Context, tx store.Store, userID string) (domain.User, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return domain.User{}, err
	}
	user, err := tx.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func parseUserID(userID string) (string, error) {
	id, err := idx.Parse(userID)
	if err != nil {
		return "", ErrUserNotFound.with(err)
	}
	return id.String(), nil
}
