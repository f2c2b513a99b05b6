package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

// Migration drivers, named after their directory under migrations/.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies every pending up migration for driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	logger := logrus.WithFields(logrus.Fields{
		"component": "Database",
		"method":    "Migrate",
		"driver":    driver,
	})

	if err := ctx.Err(); err != nil {
		return err
	}

	source, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return fmt.Errorf("failed to load %s migrations: %w", driver, err)
	}

	var instance migratedb.Driver
	switch driver {
	case DriverPostgres:
		instance, err = postgres.WithInstance(db, &postgres.Config{})
		if err != nil {
			return fmt.Errorf("failed to create migration driver: %w", err)
		}
		// Releases the connection the driver reserved; the pool stays open.
		defer instance.Close()
	case DriverSQLite:
		// Not closed: the sqlite driver closes the whole pool.
		instance, err = sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return fmt.Errorf("failed to create migration driver: %w", err)
		}
	default:
		return fmt.Errorf("unknown migration driver %q", driver)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, instance)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.WithFields(logrus.Fields{
		"version": version,
		"dirty":   dirty,
	}).Info("Database migrations applied")
	return nil
}
