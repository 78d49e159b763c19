package postgres

import (
	"embed"
	stderrors "errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/ExpTrack/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ExpTrack/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// ─────────────────────────────────────────────────────────────────────────────
// Schema migrations
// ─────────────────────────────────────────────────────────────────────────────

func (c *Connection) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to open embedded migrations")
	}
	driver, err := postgres.WithInstance(c.db, &postgres.Config{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	return m, nil
}

// RunMigrations applies all pending migrations.  No pending migrations is
// not an error.
func (c *Connection) RunMigrations() error {
	m, err := c.newMigrate()
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to run migrations")
	}

	version, dirty, err := m.Version()
	if err != nil && !stderrors.Is(err, migrate.ErrNilVersion) {
		c.logger.Warn("Failed to get migration version", logging.Err(err))
	}
	c.logger.Info("Database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// RollbackMigration rolls the schema back by steps.
func (c *Connection) RollbackMigration(steps int) error {
	if steps <= 0 {
		return errors.NewValidationError("steps must be greater than 0")
	}
	m, err := c.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Steps(-steps); err != nil {
		if stderrors.Is(err, migrate.ErrNoChange) {
			return errors.New(errors.ErrCodeBadRequest, "no migrations to roll back")
		}
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to roll back migrations")
	}
	return nil
}

// MigrationStatus reports the applied version.  A fresh database is version 0.
func (c *Connection) MigrationStatus() (version uint, dirty bool, err error) {
	m, err := c.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if err != nil {
		if stderrors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get migration version")
	}
	return version, dirty, nil
}

//Personal.AI order the ending
