package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/aussiebroadwan/kagan/pkg/cryptox"
)

type Config struct {
	DatabaseFile string `env:"KAGAN_DATABASE_FILE, default=kagan_db.sqlite"`

	Env       string `env:"KAGAN_ENV,        default=prod"` // dev, prod
	LogLevel  string `env:"KAGAN_LOG_LEVEL,  default=info"` // debug, info, warn, error
	LogFormat string `env:"KAGAN_LOG_FORMAT, default=text"` // json, text
	LogDir    string `env:"KAGAN_LOG_DIR,    default=logs"` // empty disables the daily log file

	HashAlgorithm     string `env:"KAGAN_HASH_ALGORITHM,      default=bcrypt"`
	BcryptCost        int    `env:"KAGAN_BCRYPT_COST,         default=12"`
	MinPasswordLength int    `env:"KAGAN_MIN_PASSWORD_LENGTH, default=6"`

	AdminUsername    string `env:"KAGAN_ADMIN_USERNAME,     default=admin"`
	AdminDisplayName string `env:"KAGAN_ADMIN_DISPLAY_NAME, default=مدیر سیستم"`
	AdminPassword    string `env:"KAGAN_ADMIN_PASSWORD"` // generated on first run when empty

	LoginAttempts int           `env:"KAGAN_LOGIN_ATTEMPTS, default=5"` // 0 disables throttling
	LoginWindow   time.Duration `env:"KAGAN_LOGIN_WINDOW,   default=5m"`
}

// LoadConfig reads an optional .env file from the working directory and then
// the process environment. Variables already set win over the .env file.
func LoadConfig(ctx context.Context) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read .env: %w", err)
	}
	return loadWith(ctx, envconfig.OsLookuper())
}

func loadWith(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch cryptox.Algorithm(c.HashAlgorithm) {
	case cryptox.Bcrypt, cryptox.Argon2id:
	default:
		return fmt.Errorf("KAGAN_HASH_ALGORITHM: unsupported algorithm %q", c.HashAlgorithm)
	}
	if c.DatabaseFile == "" {
		return errors.New("KAGAN_DATABASE_FILE must not be empty")
	}
	if c.MinPasswordLength < 1 {
		return errors.New("KAGAN_MIN_PASSWORD_LENGTH must be at least 1")
	}
	if c.AdminUsername == "" {
		return errors.New("KAGAN_ADMIN_USERNAME must not be empty")
	}
	if c.LoginAttempts > 0 && c.LoginWindow <= 0 {
		return errors.New("KAGAN_LOGIN_WINDOW must be positive when throttling is enabled")
	}
	return nil
}
