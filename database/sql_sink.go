package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/shared"
)

// dialect captures what differs between the SQL backends.
type dialect struct {
	name        string
	driver      string
	placeholder func(n int) string
	dateColumn  func(column string) string
}

// SQLSink writes through database/sql. One transaction covers one call.
type SQLSink struct {
	db      *sql.DB
	dialect dialect
}

// DB exposes the underlying pool.
func (s *SQLSink) DB() *sql.DB { return s.db }

// Driver returns DriverPostgres or DriverSQLite.
func (s *SQLSink) Driver() string { return s.dialect.driver }

func (s *SQLSink) Upsert(ctx context.Context, table string, rows []Row, conflictKey string) error {
	return s.write(ctx, table, rows, conflictKey, shared.CodeSinkUpsertFailed, "Upsert")
}

func (s *SQLSink) Insert(ctx context.Context, table string, rows []Row) error {
	return s.write(ctx, table, rows, "", shared.CodeSinkInsertFailed, "Insert")
}

func (s *SQLSink) write(ctx context.Context, table string, rows []Row, conflictKey, code, operation string) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return shared.NewServiceError(shared.ErrorCategoryDatabase, code,
			"failed to begin transaction", s.serviceName(), operation, true, err)
	}

	for _, group := range groupByColumns(rows) {
		query, args := s.buildStatement(table, group, conflictKey)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return shared.NewServiceError(shared.ErrorCategoryDatabase, code,
				fmt.Sprintf("failed to write %d rows to %s", len(group.rows), table), s.serviceName(), operation, false, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return shared.NewServiceError(shared.ErrorCategoryDatabase, code,
			"failed to commit transaction", s.serviceName(), operation, true, err)
	}

	logrus.WithFields(logrus.Fields{
		"component": s.serviceName(),
		"method":    operation,
		"table":     table,
		"rows":      len(rows),
	}).Debug("Rows written")
	return nil
}

// buildStatement renders a multi-row INSERT for one column group. With a
// conflict key every other column is refreshed from the incoming row.
func (s *SQLSink) buildStatement(table string, group rowGroup, conflictKey string) (string, []interface{}) {
	quoted := make([]string, len(group.columns))
	for i, column := range group.columns {
		quoted[i] = pq.QuoteIdentifier(column)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", pq.QuoteIdentifier(table), strings.Join(quoted, ", "))

	args := make([]interface{}, 0, len(group.rows)*len(group.columns))
	for r, row := range group.rows {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for c, column := range group.columns {
			if c > 0 {
				b.WriteString(", ")
			}
			args = append(args, row[column])
			b.WriteString(s.dialect.placeholder(len(args)))
		}
		b.WriteString(")")
	}

	if conflictKey == "" {
		return b.String(), args
	}

	var updates []string
	for i, column := range group.columns {
		if column == conflictKey {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", quoted[i], quoted[i]))
	}
	if len(updates) == 0 {
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO NOTHING", pq.QuoteIdentifier(conflictKey))
	} else {
		fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET %s", pq.QuoteIdentifier(conflictKey), strings.Join(updates, ", "))
	}
	return b.String(), args
}

func (s *SQLSink) Ping(ctx context.Context) error {
	return HealthCheck(ctx, s.db)
}

func (s *SQLSink) Close() error {
	return s.db.Close()
}

func (s *SQLSink) serviceName() string {
	return s.dialect.name + "Sink"
}

// GetIPO reads one merged record by slug.
func (s *SQLSink) GetIPO(ctx context.Context, slug string) (*models.IPORecord, error) {
	query := fmt.Sprintf(`
		SELECT slug, ipo_name, COALESCE(company_name, ''), category, status,
			%s, %s, %s,
			min_price, max_price, lot_size, issue_size_cr,
			current_gmp, gmp_percentage, expected_listing_price, kostak_rate, subject_to_sauda,
			subscription_retail, subscription_nii, subscription_bnii, subscription_qib, subscription_total,
			COALESCE(source, '')
		FROM ipos WHERE slug = %s`,
		s.dialect.dateColumn("open_date"), s.dialect.dateColumn("close_date"), s.dialect.dateColumn("listing_date"),
		s.dialect.placeholder(1))

	var (
		record                           models.IPORecord
		category, status                 string
		openDate, closeDate, listingDate sql.NullString
		minPrice, maxPrice               sql.NullInt64
		issueSize, gmpPct                sql.NullFloat64
		gmp, expected, kostak, sauda     sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, query, slug).Scan(
		&record.Slug, &record.IPOName, &record.CompanyName, &category, &status,
		&openDate, &closeDate, &listingDate,
		&minPrice, &maxPrice, &record.LotSize, &issueSize,
		&gmp, &gmpPct, &expected, &kostak, &sauda,
		&record.SubscriptionRetail, &record.SubscriptionNII, &record.SubscriptionBNII,
		&record.SubscriptionQIB, &record.SubscriptionTotal,
		&record.Source,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, shared.NewServiceError(shared.ErrorCategoryDatabase, shared.CodeSinkReadFailed,
			"failed to read ipo "+slug, s.serviceName(), "GetIPO", true, err)
	}

	record.Category = models.Category(category)
	record.Status = models.Status(status)
	record.OpenDate = openDate.String
	record.CloseDate = closeDate.String
	record.ListingDate = listingDate.String
	record.MinPrice = nullInt(minPrice)
	record.MaxPrice = nullInt(maxPrice)
	record.IssueSizeCr = nullFloat(issueSize)
	record.CurrentGMP = nullInt(gmp)
	record.GMPPercentage = nullFloat(gmpPct)
	record.ExpectedListingPrice = nullInt(expected)
	record.KostakRate = nullInt(kostak)
	record.SubjectToSauda = nullInt(sauda)
	return &record, nil
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return models.IntPtr(int(v.Int64))
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return models.FloatPtr(v.Float64)
}
