package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilmodi00/ipo-sync/models"
)

func openTestSQLite(t *testing.T) *SQLSink {
	t.Helper()
	sink, err := OpenSQLiteSink(context.Background(), filepath.Join(t.TempDir(), "ipo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink
}

func sampleRecord() *models.IPORecord {
	return &models.IPORecord{
		IPOName:           "Acme Solar IPO",
		CompanyName:       "Acme Solar",
		Slug:              "acme-solar",
		Category:          models.CategoryMainboard,
		Status:            models.StatusOpen,
		OpenDate:          "2026-01-10",
		CloseDate:         "2026-01-14",
		MinPrice:          models.IntPtr(256),
		MaxPrice:          models.IntPtr(270),
		LotSize:           55,
		CurrentGMP:        models.IntPtr(50),
		GMPPercentage:     models.FloatPtr(18.52),
		SubscriptionTotal: 1.89,
		UpdatedAt:         time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC),
		Source:            "chittorgarh_dashboard,ipowatch",
	}
}

func countRows(t *testing.T, sink *SQLSink, table string) int {
	t.Helper()
	var n int
	require.NoError(t, sink.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSQLiteSinkUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sink := openTestSQLite(t)
	rows := []Row{sampleRecord().ToRow()}

	require.NoError(t, UpsertChunked(ctx, sink, models.IPOTable, rows, models.IPOConflictKey, DefaultChunkSize))
	require.NoError(t, UpsertChunked(ctx, sink, models.IPOTable, rows, models.IPOConflictKey, DefaultChunkSize))

	assert.Equal(t, 1, countRows(t, sink, models.IPOTable))
}

func TestSQLiteSinkUpsertUpdatesOnlyProvidedColumns(t *testing.T) {
	ctx := context.Background()
	sink := openTestSQLite(t)

	first := sampleRecord()
	require.NoError(t, sink.Upsert(ctx, models.IPOTable, []Row{first.ToRow()}, models.IPOConflictKey))

	second := sampleRecord()
	second.CurrentGMP = nil
	second.GMPPercentage = nil
	second.Status = models.StatusClosed
	second.SubscriptionTotal = 4.5
	require.NoError(t, sink.Upsert(ctx, models.IPOTable, []Row{second.ToRow()}, models.IPOConflictKey))

	stored, err := sink.GetIPO(ctx, "acme-solar")
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, stored.Status)
	assert.Equal(t, 4.5, stored.SubscriptionTotal)
	require.NotNil(t, stored.CurrentGMP)
	assert.Equal(t, 50, *stored.CurrentGMP)
	assert.Equal(t, "2026-01-10", stored.OpenDate)
	assert.Equal(t, 270, *stored.MaxPrice)
	assert.Nil(t, stored.IssueSizeCr)
}

func TestSQLiteSinkMixedColumnSetsInOneChunk(t *testing.T) {
	ctx := context.Background()
	sink := openTestSQLite(t)

	withGMP := sampleRecord()
	withoutGMP := sampleRecord()
	withoutGMP.Slug = "zepto"
	withoutGMP.IPOName = "Zepto IPO"
	withoutGMP.CurrentGMP = nil
	withoutGMP.GMPPercentage = nil
	withoutGMP.MinPrice = nil

	rows := []Row{withGMP.ToRow(), withoutGMP.ToRow()}
	require.NoError(t, sink.Upsert(ctx, models.IPOTable, rows, models.IPOConflictKey))

	assert.Equal(t, 2, countRows(t, sink, models.IPOTable))
	stored, err := sink.GetIPO(ctx, "zepto")
	require.NoError(t, err)
	assert.Nil(t, stored.CurrentGMP)
}

func TestSQLiteSinkRejectsConstraintViolation(t *testing.T) {
	ctx := context.Background()
	sink := openTestSQLite(t)

	record := sampleRecord()
	record.LotSize = 0
	err := sink.Upsert(ctx, models.IPOTable, []Row{record.ToRow()}, models.IPOConflictKey)

	require.Error(t, err)
	assert.Equal(t, 0, countRows(t, sink, models.IPOTable))
}

func TestSQLiteSinkInsertAppendsHistory(t *testing.T) {
	ctx := context.Background()
	sink := openTestSQLite(t)

	entry := models.GMPHistoryEntry{
		ID:         "11111111-1111-1111-1111-111111111111",
		IPOName:    "Acme Solar IPO",
		GMPAmount:  50,
		IssuePrice: 270,
		RecordedAt: time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC),
	}
	later := entry
	later.ID = "22222222-2222-2222-2222-222222222222"
	later.GMPAmount = 55

	require.NoError(t, sink.Insert(ctx, models.GMPHistoryTable, []Row{entry.ToRow()}))
	require.NoError(t, sink.Insert(ctx, models.GMPHistoryTable, []Row{later.ToRow()}))

	assert.Equal(t, 2, countRows(t, sink, models.GMPHistoryTable))
}

func TestSQLiteSinkUpsertsShareholderIntelByName(t *testing.T) {
	ctx := context.Background()
	sink := openTestSQLite(t)

	entry := models.ShareholderIntel{
		IPOName:       "NSDL IPO",
		ParentCompany: "NSE",
		SEBIStatus:    "Filed",
		ActionText:    "Buy 1 share of NSE ASAP (RHP likely soon)",
		IsActive:      true,
		UpdatedAt:     time.Now(),
	}
	require.NoError(t, sink.Upsert(ctx, models.ShareholderTable, []Row{entry.ToRow()}, "ipo_name"))

	entry.SEBIStatus = "Approved"
	require.NoError(t, sink.Upsert(ctx, models.ShareholderTable, []Row{entry.ToRow()}, "ipo_name"))

	var status string
	require.NoError(t, sink.DB().QueryRow("SELECT sebi_status FROM shareholder_intel WHERE ipo_name = ?", "NSDL IPO").Scan(&status))
	assert.Equal(t, "Approved", status)
	assert.Equal(t, 1, countRows(t, sink, models.ShareholderTable))
}

func TestSQLiteSinkGetIPOMissing(t *testing.T) {
	sink := openTestSQLite(t)

	_, err := sink.GetIPO(context.Background(), "nothing-here")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSQLiteMigrationsAreRepeatable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ipo.db")

	first, err := OpenSQLiteSink(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenSQLiteSink(ctx, path)
	require.NoError(t, err)
	defer second.Close()
	assert.NoError(t, second.Ping(ctx))
}
