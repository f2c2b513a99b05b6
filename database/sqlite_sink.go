package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name:        "SQLite",
	driver:      DriverSQLite,
	placeholder: func(int) string { return "?" },
	dateColumn:  func(column string) string { return column },
}

// OpenSQLiteSink opens (creating if needed) the database file at path and
// applies the embedded migrations. ":memory:" is accepted for tests.
func OpenSQLiteSink(ctx context.Context, path string) (*SQLSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One writer at a time, and ":memory:" databases live per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}
	if err := Migrate(ctx, db, DriverSQLite); err != nil {
		db.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"component": "Database",
		"path":      path,
	}).Info("Opened SQLite store")

	return &SQLSink{db: db, dialect: sqliteDialect}, nil
}
