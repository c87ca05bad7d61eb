package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
	"github.com/aussiebroadwan/kagan/pkg/cryptox"
	"github.com/aussiebroadwan/kagan/pkg/slogx"
)

// BootstrapService provisions the first Administrator on an empty database.
type BootstrapService struct {
	Auth *AuthService

	AdminUsername    string
	AdminDisplayName string
	AdminPassword    string // generated when empty
}

// BootstrapResult describes the administrator created on first run.
type BootstrapResult struct {
	User              domain.User
	Password          string // set only when it was generated
	GeneratedPassword bool
}

// EnsureAdmin creates exactly one Administrator when no users exist. It
// returns nil when the database already holds users.
func (s *BootstrapService) EnsureAdmin(ctx context.Context) (*BootstrapResult, error) {
	l := slogx.FromContext(ctx)

	empty, err := s.Auth.Store.Users().IsEmpty(ctx)
	if err != nil {
		return nil, fmt.Errorf("check users: %w", err)
	}
	if !empty {
		return nil, nil
	}

	password := s.AdminPassword
	generated := password == ""
	if generated {
		password, err = cryptox.GeneratePassword()
		if err != nil {
			return nil, err
		}
	}

	user, err := s.Auth.CreateUser(ctx, NewUser{
		Username:    s.AdminUsername,
		Password:    password,
		DisplayName: s.AdminDisplayName,
		Role:        domain.RoleAdmin,
	})
	if err != nil {
		l.Error("failed to create admin user", slog.Any("error", err))
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	l.Info("bootstrapped administrator",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.Bool("generated_password", generated),
	)

	res := &BootstrapResult{User: user, GeneratedPassword: generated}
	if generated {
		res.Password = password
	}
	return res, nil
}
