package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/database"
	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/shared"
	"github.com/fenilmodi00/ipo-sync/sources"
)

// ShareholderConflictKey identifies a shareholder_intel row.
const ShareholderConflictKey = "ipo_name"

// ShareholderSource fetches the shareholder-quota list.
type ShareholderSource interface {
	Name() string
	Fetch(ctx context.Context) (*sources.ShareholderResult, error)
}

// ShareholderSync copies the shareholder-quota list into shareholder_intel.
// It bypasses matching and merging: the table is keyed by display name.
type ShareholderSync struct {
	Source    ShareholderSource
	Sink      database.Sink
	ChunkSize int
	Now       func() time.Time
}

// Run fetches the list once and upserts every active entry.
func (s *ShareholderSync) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		Pipeline:  "shareholders",
		Fetched:   make(map[string]int),
		Skipped:   shared.SkipCounter{},
		StartedAt: time.Now(),
	}
	defer func() {
		report.Duration = time.Since(report.StartedAt)
	}()

	logger := logrus.WithFields(logrus.Fields{
		"component": "ShareholderSync",
		"method":    "Run",
		"run_id":    report.RunID,
	})

	result, err := s.Source.Fetch(ctx)
	if err != nil {
		shared.WrapError(err, shared.ErrorCategoryNetwork, shared.CodeFetchFailed, s.Source.Name(), "Fetch", true).LogWarning()
		report.Fetched[s.Source.Name()] = 0
		return report, nil
	}
	report.Fetched[s.Source.Name()] = len(result.Entries)
	report.Skipped.Merge(result.SkipCounts())
	report.Merged = len(result.Entries)

	if len(result.Entries) == 0 {
		logger.Warn("No shareholder entries to store")
		return report, nil
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	rows := make([]database.Row, 0, len(result.Entries))
	for i := range result.Entries {
		entry := result.Entries[i]
		entry.UpdatedAt = now
		rows = append(rows, entry.ToRow())
	}

	if err := database.UpsertChunked(ctx, s.Sink, models.ShareholderTable, rows, ShareholderConflictKey, s.ChunkSize); err != nil {
		sinkErr := shared.WrapError(err, shared.ErrorCategoryDatabase, shared.CodeSinkUpsertFailed, "ShareholderSync", "Run", true).
			WithDetails(map[string]interface{}{"first_record": rows[0]})
		sinkErr.LogError()
		return report, sinkErr
	}
	report.Upserted = len(rows)

	logger.WithFields(logrus.Fields{
		"upserted": report.Upserted,
		"skipped":  report.Skipped.String(),
	}).Info("Shareholder sync completed")
	return report, nil
}
