package sqlite

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/kagan/internal/kagan/store/drivers/sqlite/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

func (s *Store) migrator() (*migrate.Migrate, error) {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, err
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return nil, err
	}

	return migrate.NewWithInstance("iofs", source, "sqlite", driver)
}

// ApplyMigrations applies any pending schema migrations using the SQL files
// embedded into the binary. Running it against an up-to-date database is a
// no-op.
func (s *Store) ApplyMigrations() error {
	instance, err := s.migrator()
	if err != nil {
		return err
	}

	err = instance.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// SchemaVersion reports the last applied migration, 0 for a fresh database.
func (s *Store) SchemaVersion() (uint, error) {
	instance, err := s.migrator()
	if err != nil {
		return 0, err
	}

	version, dirty, err := instance.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("sqlite: schema is dirty at version %d", version)
	}
	return version, nil
}
