package database

import (
	"context"
	"fmt"
)

var postgresDialect = dialect{
	name:        "Postgres",
	driver:      DriverPostgres,
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	dateColumn:  func(column string) string { return fmt.Sprintf("to_char(%s, 'YYYY-MM-DD')", column) },
}

// OpenPostgresSink connects to dbURL, applies the embedded migrations and
// returns a sink over the pool.
func OpenPostgresSink(ctx context.Context, dbURL string, pool PoolConfig) (*SQLSink, error) {
	db, err := Connect(dbURL, pool)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, DriverPostgres); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLSink{db: db, dialect: postgresDialect}, nil
}
