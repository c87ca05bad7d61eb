package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/kagan/internal/kagan/domain"
	"github.com/aussiebroadwan/kagan/internal/kagan/store"
	"github.com/aussiebroadwan/kagan/pkg/slogx"
	"gopkg.in/yaml.v2"
)

// SeedFile is the YAML layout accepted by the seeder:
//
//	users:
//	  - username: admin
//	    password: admin123
//	    display_name: مدیر سیستم
//	    role: admin
//	    email: admin@kagan.local
//	    phone: "09121234567"
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

type SeedUser struct {
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	DisplayName string `yaml:"display_name"`
	Role        string `yaml:"role"`
	Email       string `yaml:"email"`
	Phone       string `yaml:"phone"`
}

// Seeder loads demonstration users into an empty database.
type Seeder struct {
	Auth *AuthService
}

// LoadSeedFile reads and parses a seed file from disk.
func LoadSeedFile(path string) (SeedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return ParseSeed(f)
}

// ParseSeed parses the YAML seed document in r.
func ParseSeed(r io.Reader) (SeedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return SeedFile{}, fmt.Errorf("read seed: %w", err)
	}

	var sf SeedFile
	if err := yaml.UnmarshalStrict(data, &sf); err != nil {
		return SeedFile{}, fmt.Errorf("parse seed: %w", err)
	}

	seen := make(map[string]bool, len(sf.Users))
	for i, u := range sf.Users {
		if u.Username == "" {
			return SeedFile{}, fmt.Errorf("seed user %d: username is required", i)
		}
		if seen[u.Username] {
			return SeedFile{}, fmt.Errorf("seed user %q: duplicate username", u.Username)
		}
		seen[u.Username] = true
		if _, err := domain.ParseRole(u.Role); err != nil {
			return SeedFile{}, fmt.Errorf("seed user %q: %w", u.Username, err)
		}
	}
	return sf, nil
}

// Seed creates every user in sf unless the database already holds users, in
// which case nothing is written. Every entry is validated before the first
// insert and all inserts share one transaction, so a bad file leaves the
// database empty. It returns the number of users created.
func (s *Seeder) Seed(ctx context.Context, sf SeedFile) (int, error) {
	l := slogx.FromContext(ctx)

	empty, err := s.Auth.Store.Users().IsEmpty(ctx)
	if err != nil {
		return 0, fmt.Errorf("check users: %w", err)
	}
	if !empty {
		l.Info("users already exist, skipping seed")
		return 0, nil
	}

	users := make([]domain.User, 0, len(sf.Users))
	for _, u := range sf.Users {
		user, err := s.Auth.prepareUser(NewUser{
			Username:    u.Username,
			Password:    u.Password,
			DisplayName: u.DisplayName,
			Role:        domain.Role(u.Role),
			Email:       u.Email,
			Phone:       u.Phone,
		})
		if err != nil {
			return 0, fmt.Errorf("seed user %q: %w", u.Username, err)
		}
		users = append(users, user)
	}

	err = s.Auth.Store.WithTx(ctx, func(tx store.Tx) error {
		// Re-check under the transaction in case a user appeared meanwhile
		if empty, err := tx.Users().IsEmpty(ctx); err != nil || !empty {
			if err == nil {
				err = errSeedRaced
			}
			return err
		}
		for _, user := range users {
			if _, err := insertUser(ctx, tx, user); err != nil {
				return fmt.Errorf("seed user %q: %w", user.Username, err)
			}
		}
		return nil
	})
	if errors.Is(err, errSeedRaced) {
		l.Info("users already exist, skipping seed")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	l.Info("seeded users", slog.Int("count", len(users)))
	return len(users), nil
}

var errSeedRaced = errors.New("users appeared during seed")
