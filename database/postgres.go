package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/models"
)

// PoolConfig bounds the Postgres connection pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DefaultPoolConfig suits a single sync process with a handful of
// concurrent writers.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		PingTimeout:     10 * time.Second,
	}
}

// Connect opens and pings a Postgres connection pool.
func Connect(dbURL string, config PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.PingTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"component":          "Database",
		"max_open_conns":     config.MaxOpenConns,
		"max_idle_conns":     config.MaxIdleConns,
		"conn_max_lifetime":  config.ConnMaxLifetime,
		"conn_max_idle_time": config.ConnMaxIdleTime,
	}).Info("Connected to database successfully")

	return db, nil
}

// HealthCheck pings db and logs the pool statistics.
func HealthCheck(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection not established")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	stats := db.Stats()
	logrus.WithFields(logrus.Fields{
		"component":            "Database",
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration,
	}).Debug("Database connection pool health check")

	return nil
}

// expectedColumns lists the columns each sync table must carry for the
// pipeline's rows to be accepted.
var expectedColumns = map[string][]string{
	models.IPOTable: {
		"slug", "ipo_name", "company_name", "category", "status",
		"open_date", "close_date", "listing_date",
		"min_price", "max_price", "lot_size", "issue_size_cr",
		"current_gmp", "gmp_percentage", "expected_listing_price", "kostak_rate", "subject_to_sauda",
		"subscription_retail", "subscription_nii", "subscription_bnii", "subscription_qib", "subscription_total",
		"gmp_updated_at", "subscription_updated_at", "source", "updated_at",
	},
	models.GMPHistoryTable: {
		"id", "ipo_name", "gmp_amount", "gmp_percentage", "issue_price", "expected_listing_price", "recorded_at",
	},
	models.ShareholderTable: {
		"ipo_name", "parent_company", "sebi_status", "action_text", "is_active", "rhp_date", "updated_at",
	},
}

// ValidationResult is the outcome of checking one table.
type ValidationResult struct {
	TableName      string   `json:"table_name"`
	Exists         bool     `json:"exists"`
	MissingColumns []string `json:"missing_columns,omitempty"`
}

// IsValid reports whether the table exists with every expected column.
func (r ValidationResult) IsValid() bool {
	return r.Exists && len(r.MissingColumns) == 0
}

// SchemaValidator compares a live Postgres schema with the columns the sync
// writes.
type SchemaValidator struct {
	db *sql.DB
}

func NewSchemaValidator(db *sql.DB) *SchemaValidator {
	return &SchemaValidator{db: db}
}

// Validate checks every sync table, in name order.
func (v *SchemaValidator) Validate(ctx context.Context) ([]ValidationResult, error) {
	tables := make([]string, 0, len(expectedColumns))
	for table := range expectedColumns {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	results := make([]ValidationResult, 0, len(tables))
	for _, table := range tables {
		result := ValidationResult{TableName: table}

		exists, err := v.tableExists(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("failed to check table %s: %w", table, err)
		}
		result.Exists = exists

		if exists {
			columns, err := v.getTableColumns(ctx, table)
			if err != nil {
				return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
			}
			for _, column := range expectedColumns[table] {
				if _, ok := columns[column]; !ok {
					result.MissingColumns = append(result.MissingColumns, column)
				}
			}
		}

		results = append(results, result)
	}

	logrus.WithFields(logrus.Fields{
		"component": "SchemaValidator",
		"method":    "Validate",
		"tables":    len(results),
	}).Debug("Completed schema validation")

	return results, nil
}

func (v *SchemaValidator) tableExists(ctx context.Context, tableName string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = $1
		)
	`
	var exists bool
	err := v.db.QueryRowContext(ctx, query, tableName).Scan(&exists)
	return exists, err
}

// getTableColumns returns a map of column names to their data types.
func (v *SchemaValidator) getTableColumns(ctx context.Context, tableName string) (map[string]string, error) {
	query := `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
	`
	rows, err := v.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]string)
	for rows.Next() {
		var columnName, dataType string
		if err := rows.Scan(&columnName, &dataType); err != nil {
			return nil, err
		}
		columns[columnName] = dataType
	}

	return columns, rows.Err()
}
