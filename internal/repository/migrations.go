package repository

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies all pending schema migrations. A dirty version
// left behind by a crashed run is forced back one step and the
// migrations are re-applied.
func RunMigrations(databaseURL string) error {
	m, err := migrate.New(
		"file://internal/repository/migrations",
		databaseURL,
	)
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err == nil || errors.Is(err, migrate.ErrNoChange) {
		return nil
	}

	var dirtyErr migrate.ErrDirty
	if errors.As(err, &dirtyErr) {
		return recoverDirty(m, dirtyErr)
	}

	return fmt.Errorf("apply migrations: %w", err)
}

func recoverDirty(m *migrate.Migrate, dirtyErr migrate.ErrDirty) error {
	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	if !dirty {
		return fmt.Errorf("schema reported dirty at version %d but is not", dirtyErr.Version)
	}

	target := int(version) - 1
	if target < 0 {
		target = 0
	}

	if err := m.Force(target); err != nil {
		return fmt.Errorf("force migration version %d: %w", target, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations after dirty recovery: %w", err)
	}

	return nil
}
