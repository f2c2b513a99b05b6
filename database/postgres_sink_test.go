package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fenilmodi00/ipo-sync/models"
)

// setupPostgresSink starts a disposable Postgres. The test is skipped when no
// container runtime is available.
func setupPostgresSink(t *testing.T) *SQLSink {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Postgres container test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("ipo_sync_test"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("Skipping Postgres sink tests - container not available: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sink, err := OpenPostgresSink(ctx, connStr, DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink
}

func TestPostgresSinkUpsertAndRead(t *testing.T) {
	sink := setupPostgresSink(t)
	ctx := context.Background()

	record := sampleRecord()
	rows := []Row{record.ToRow()}
	require.NoError(t, UpsertChunked(ctx, sink, models.IPOTable, rows, models.IPOConflictKey, DefaultChunkSize))
	require.NoError(t, UpsertChunked(ctx, sink, models.IPOTable, rows, models.IPOConflictKey, DefaultChunkSize))

	var count int
	require.NoError(t, sink.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM ipos").Scan(&count))
	assert.Equal(t, 1, count)

	stored, err := sink.GetIPO(ctx, record.Slug)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-10", stored.OpenDate)
	assert.Equal(t, 18.52, *stored.GMPPercentage)
	assert.Equal(t, models.StatusOpen, stored.Status)
}

func TestPostgresSchemaMatchesSyncColumns(t *testing.T) {
	sink := setupPostgresSink(t)

	results, err := NewSchemaValidator(sink.DB()).Validate(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, result := range results {
		assert.True(t, result.IsValid(), "table %s: missing %v", result.TableName, result.MissingColumns)
	}
}
