// Package pipeline merges what the sources report into complete IPO records
// and hands them to a sink.
package pipeline

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/database"
	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/shared"
	"github.com/fenilmodi00/ipo-sync/sources"
)

// Pipeline is one configured sync: a fixed list of adapters feeding one sink.
type Pipeline struct {
	Name      string
	Adapters  []sources.Adapter
	Matcher   *Matcher
	Merger    *Merger
	Sink      database.Sink
	ChunkSize int
}

// New wires a pipeline with the default merger.
func New(name string, adapters []sources.Adapter, sink database.Sink, threshold float64, chunkSize int) *Pipeline {
	return &Pipeline{
		Name:      name,
		Adapters:  adapters,
		Matcher:   NewMatcher(threshold),
		Merger:    NewMerger(),
		Sink:      sink,
		ChunkSize: chunkSize,
	}
}

// RunReport summarises a single run.
type RunReport struct {
	RunID           string             `json:"run_id"`
	Pipeline        string             `json:"pipeline"`
	Fetched         map[string]int     `json:"fetched"`
	Skipped         shared.SkipCounter `json:"skipped"`
	Merged          int                `json:"merged"`
	Dropped         int                `json:"dropped"`
	Upserted        int                `json:"upserted"`
	HistoryInserted int                `json:"history_inserted"`
	StartedAt       time.Time          `json:"started_at"`
	Duration        time.Duration      `json:"duration"`
}

// Run fetches every adapter in order, merges the results and upserts them.
// A failing adapter only costs its own contribution; a failing sink fails the
// run. Runs are independent and may overlap.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		Pipeline:  p.Name,
		Fetched:   make(map[string]int),
		Skipped:   shared.SkipCounter{},
		StartedAt: time.Now(),
	}
	logger := logrus.WithFields(logrus.Fields{
		"component": "SyncPipeline",
		"method":    "Run",
		"pipeline":  p.Name,
		"run_id":    report.RunID,
	})
	logger.WithField("adapters", len(p.Adapters)).Info("Starting sync run")

	defer func() {
		report.Duration = time.Since(report.StartedAt)
	}()

	batches := make([]*sources.Batch, 0, len(p.Adapters))
	for _, adapter := range p.Adapters {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		batch := sources.FetchIsolated(ctx, adapter)
		report.Fetched[adapter.Name()] = batch.Len()
		report.Skipped.Merge(batch.SkipCounts())
		batches = append(batches, batch)
	}

	anchors := keysOfKind(batches, models.SourceKindGMP)
	links := Links{}
	for _, kind := range []models.SourceKind{models.SourceKindSubscription, models.SourceKindDates} {
		links[kind] = p.Matcher.Align(anchors, keysOfKind(batches, kind))
	}
	collected := Collect(batches, links)

	records, dropped := p.Merger.MergeAll(collected)
	report.Merged = len(records)
	report.Dropped = dropped

	if len(records) == 0 {
		logger.Warn("No records to store")
		return report, nil
	}

	rows := make([]database.Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, record.ToRow())
	}
	if err := database.UpsertChunked(ctx, p.Sink, models.IPOTable, rows, models.IPOConflictKey, p.ChunkSize); err != nil {
		sinkErr := shared.WrapError(err, shared.ErrorCategoryDatabase, shared.CodeSinkUpsertFailed, "SyncPipeline", "Run", true)
		if first, marshalErr := json.Marshal(records[0]); marshalErr == nil {
			sinkErr = sinkErr.WithDetails(map[string]interface{}{"first_record": string(first)})
		}
		sinkErr.LogError()
		return report, sinkErr
	}
	report.Upserted = len(rows)

	report.HistoryInserted = p.recordHistory(ctx, logger, records)

	logger.WithFields(logrus.Fields{
		"merged":   report.Merged,
		"dropped":  report.Dropped,
		"upserted": report.Upserted,
		"skipped":  report.Skipped.String(),
	}).Info("Sync run completed")
	return report, nil
}

// recordHistory appends a premium observation for every record a premium
// source contributed to. History is best effort.
func (p *Pipeline) recordHistory(ctx context.Context, logger *logrus.Entry, records []*models.IPORecord) int {
	entries := HistoryEntries(records)
	if len(entries) == 0 {
		return 0
	}

	rows := make([]database.Row, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, entry.ToRow())
	}
	if err := p.Sink.Insert(ctx, models.GMPHistoryTable, rows); err != nil {
		shared.WrapError(err, shared.ErrorCategoryDatabase, shared.CodeSinkInsertFailed, "SyncPipeline", "recordHistory", true).LogWarning()
		return 0
	}
	logger.WithField("entries", len(rows)).Debug("Recorded premium history")
	return len(rows)
}

// HistoryEntries builds gmp_history rows for records with a fresh premium and
// a known issue price.
func HistoryEntries(records []*models.IPORecord) []models.GMPHistoryEntry {
	var entries []models.GMPHistoryEntry
	for _, record := range records {
		if record.GMPUpdatedAt == nil || record.CurrentGMP == nil {
			continue
		}
		issue, ok := record.IssuePrice()
		if !ok {
			continue
		}
		entries = append(entries, models.GMPHistoryEntry{
			ID:                   uuid.NewString(),
			IPOName:              record.IPOName,
			GMPAmount:            *record.CurrentGMP,
			GMPPercentage:        record.GMPPercentage,
			IssuePrice:           issue,
			ExpectedListingPrice: record.ExpectedListingPrice,
			RecordedAt:           *record.GMPUpdatedAt,
		})
	}
	return entries
}

func keysOfKind(batches []*sources.Batch, kind models.SourceKind) []string {
	return collectKeys(batches, func(b *sources.Batch) bool { return b.Kind == kind })
}

func collectKeys(batches []*sources.Batch, include func(*sources.Batch) bool) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, batch := range batches {
		if !include(batch) {
			continue
		}
		for key := range batch.Partials {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
