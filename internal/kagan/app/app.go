package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aussiebroadwan/kagan/internal/kagan/cli"
	"github.com/aussiebroadwan/kagan/internal/kagan/service"
	"github.com/aussiebroadwan/kagan/internal/kagan/store"
	"github.com/aussiebroadwan/kagan/internal/kagan/store/drivers/sqlite"
	"github.com/aussiebroadwan/kagan/pkg/cryptox"
	"github.com/aussiebroadwan/kagan/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// IO bundles the terminal streams the application talks to.
type IO struct {
	In  *os.File
	Out io.Writer
	Err io.Writer
}

// StdIO returns the process streams.
func StdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Application owns every long-lived dependency of the kagan binary.
type Application struct {
	cfg     Config
	logger  *slog.Logger
	logFile *os.File

	// Core dependencies
	db     store.Store
	hasher *cryptox.Hasher

	// Services
	authService      *service.AuthService
	userService      *service.UserService
	bootstrapService *service.BootstrapService
	seeder           *service.Seeder

	cli *cli.CLI
}

// New creates an Application with all dependencies initialized.
func New(cfg Config, stdio IO) (*Application, error) {
	app := &Application{cfg: cfg}

	if err := app.initLogger(stdio.Err); err != nil {
		return nil, err
	}

	hasher, err := cryptox.NewHasher(cryptox.Algorithm(cfg.HashAlgorithm), cfg.BcryptCost)
	if err != nil {
		app.closeLog()
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	app.hasher = hasher

	if err := app.initDatabase(); err != nil {
		app.closeLog()
		return nil, err
	}

	app.initServices()
	app.initCLI(stdio)

	return app, nil
}

// Run executes one CLI command. Pending migrations are applied first unless
// the command is migrate itself.
func (app *Application) Run(ctx context.Context, args []string) error {
	ctx = slogx.WithContext(ctx, app.logger)
	if !cli.ManagesSchema(args) {
		if err := app.db.ApplyMigrations(); err != nil {
			return fmt.Errorf("failed to apply database migrations: %w", err)
		}
	}
	return app.cli.Run(ctx, args)
}

// Close releases the database and the log file.
func (app *Application) Close() error {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("error closing database", "error", err)
	}
	app.closeLog()
	return err
}

// initLogger writes to stderr and, when a log directory is configured, to
// the daily log file as well.
func (app *Application) initLogger(stderr io.Writer) error {
	out := stderr
	if app.cfg.LogDir != "" {
		f, err := slogx.OpenDailyFile(app.cfg.LogDir, "kagan", time.Now())
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		app.logFile = f
		out = io.MultiWriter(stderr, f)
	}

	app.logger = slogx.New(slogx.Config{
		Service: "kagan",
		Version: BuildVersion,
		Env:     app.cfg.Env,
		Level:   app.cfg.LogLevel,
		Format:  app.cfg.LogFormat,
		Output:  out,
	})
	return nil
}

func (app *Application) closeLog() {
	if app.logFile != nil {
		_ = app.logFile.Close()
		app.logFile = nil
	}
}

// initDatabase opens the database file. Migrations run in Run.
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	app.logger.Debug("database opened", "file", app.cfg.DatabaseFile)
	return nil
}

// initServices wires the business logic services.
func (app *Application) initServices() {
	policy := service.DefaultPasswordPolicy()
	policy.MinLength = app.cfg.MinPasswordLength

	app.authService = &service.AuthService{
		Store:    app.db,
		Hasher:   app.hasher,
		Policy:   policy,
		Throttle: service.NewLoginThrottle(app.cfg.LoginAttempts, app.cfg.LoginWindow),
	}
	app.userService = &service.UserService{Store: app.db}
	app.bootstrapService = &service.BootstrapService{
		Auth:             app.authService,
		AdminUsername:    app.cfg.AdminUsername,
		AdminDisplayName: app.cfg.AdminDisplayName,
		AdminPassword:    app.cfg.AdminPassword,
	}
	app.seeder = &service.Seeder{Auth: app.authService}
}

func (app *Application) initCLI(stdio IO) {
	app.cli = &cli.CLI{
		Auth:      app.authService,
		Users:     app.userService,
		Bootstrap: app.bootstrapService,
		Seeder:    app.seeder,
		Store:     app.db,
		Prompter:  cli.NewTerminalPrompter(stdio.In, stdio.Out),
		Out:       stdio.Out,
		Err:       stdio.Err,
	}
}
