// Package sources holds one adapter per upstream IPO data provider. Every
// adapter turns a single fetch into a Batch of partial records keyed by slug.
package sources

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/models"
	"github.com/fenilmodi00/ipo-sync/shared"
)

// Adapter is implemented by every data source.
type Adapter interface {
	Name() string
	Kind() models.SourceKind
	Fetch(ctx context.Context) (*Batch, error)
}

// Skip reasons reported per row.
const (
	ReasonMissingColumns   = "missing_columns"
	ReasonEmptyName        = "empty_name"
	ReasonEmptySlug        = "empty_slug"
	ReasonMissingDateRange = "missing_date_range"
	ReasonUnparseableValue = "unparseable_value"
	ReasonInactive         = "inactive"
)

// RowResult records what happened to one upstream row.
type RowResult struct {
	Index  int    `json:"index"`
	Name   string `json:"name,omitempty"`
	Slug   string `json:"slug,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Skipped reports whether the row was discarded.
func (r RowResult) Skipped() bool {
	return r.Reason != ""
}

// Batch is the output of one adapter fetch.
type Batch struct {
	Source    string
	Kind      models.SourceKind
	Partials  map[string]*models.Partial
	Rows      []RowResult
	FetchedAt time.Time
}

// NewBatch creates an empty batch for the named source.
func NewBatch(source string, kind models.SourceKind) *Batch {
	return &Batch{
		Source:    source,
		Kind:      kind,
		Partials:  make(map[string]*models.Partial),
		FetchedAt: time.Now(),
	}
}

// Accept stores a parsed row. A later row with the same slug replaces the
// earlier one.
func (b *Batch) Accept(index int, partial *models.Partial) {
	b.Partials[partial.Slug] = partial
	b.Rows = append(b.Rows, RowResult{Index: index, Name: partial.IPOName, Slug: partial.Slug})
}

// Skip records a discarded row.
func (b *Batch) Skip(index int, name, reason string) {
	b.Rows = append(b.Rows, RowResult{Index: index, Name: name, Reason: reason})

	logrus.WithFields(logrus.Fields{
		"component":  "SourceAdapter",
		"source":     b.Source,
		"row":        index,
		"name":       name,
		"reason":     reason,
		"error_code": shared.CodeRowSkipped,
	}).Debug("Skipped upstream row")
}

// SkipCounts aggregates skipped rows by reason.
func (b *Batch) SkipCounts() shared.SkipCounter {
	counts := shared.SkipCounter{}
	for _, row := range b.Rows {
		if row.Skipped() {
			counts.Add(row.Reason)
		}
	}
	return counts
}

// Len returns the number of distinct slugs in the batch.
func (b *Batch) Len() int {
	return len(b.Partials)
}

// FetchIsolated runs adapter.Fetch and absorbs any failure. A failed fetch is
// logged as a warning and yields an empty batch so the rest of the run goes on.
func FetchIsolated(ctx context.Context, adapter Adapter) *Batch {
	logger := logrus.WithFields(logrus.Fields{
		"component": "SourceAdapter",
		"method":    "FetchIsolated",
		"source":    adapter.Name(),
	})

	startTime := time.Now()
	batch, err := adapter.Fetch(ctx)
	if err != nil {
		shared.WrapError(err, shared.ErrorCategoryNetwork, shared.CodeFetchFailed, adapter.Name(), "Fetch", true).LogWarning()
		return NewBatch(adapter.Name(), adapter.Kind())
	}
	if batch == nil {
		batch = NewBatch(adapter.Name(), adapter.Kind())
	}

	skips := batch.SkipCounts()
	logger.WithFields(logrus.Fields{
		"records":  batch.Len(),
		"skipped":  skips.Total(),
		"duration": time.Since(startTime),
	}).Info("Fetched source")

	return batch
}
