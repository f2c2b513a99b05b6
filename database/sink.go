// Package database stores merged records. Every backend implements Sink so the
// pipeline never knows which store it writes to.
package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fenilmodi00/ipo-sync/models"
)

// DefaultChunkSize is the number of rows sent per upsert call.
const DefaultChunkSize = 50

// ErrRecordNotFound is returned by RecordReader when no row has the key.
var ErrRecordNotFound = errors.New("record not found")

// Row is one record flattened to column primitives.
type Row = map[string]interface{}

// Sink writes rows to named tables.
type Sink interface {
	// Upsert inserts rows, updating the existing row that shares conflictKey.
	Upsert(ctx context.Context, table string, rows []Row, conflictKey string) error
	// Insert appends rows.
	Insert(ctx context.Context, table string, rows []Row) error
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// RecordReader is implemented by sinks that can read merged records back.
type RecordReader interface {
	GetIPO(ctx context.Context, slug string) (*models.IPORecord, error)
}

// UpsertChunked deduplicates rows on conflictKey (the last row wins) and
// upserts them size rows at a time. It stops at the first failing chunk.
func UpsertChunked(ctx context.Context, sink Sink, table string, rows []Row, conflictKey string, size int) error {
	if size <= 0 {
		size = DefaultChunkSize
	}

	unique := DedupeByKey(rows, conflictKey)
	for start := 0; start < len(unique); start += size {
		end := start + size
		if end > len(unique) {
			end = len(unique)
		}
		if err := sink.Upsert(ctx, table, unique[start:end], conflictKey); err != nil {
			return fmt.Errorf("chunk %d-%d of %s: %w", start, end-1, table, err)
		}
	}
	return nil
}

// DedupeByKey keeps the last row for each key value, in first-seen order.
// Rows without the key are dropped.
func DedupeByKey(rows []Row, key string) []Row {
	position := make(map[interface{}]int, len(rows))
	unique := make([]Row, 0, len(rows))
	for _, row := range rows {
		value, ok := row[key]
		if !ok || value == nil {
			continue
		}
		if i, seen := position[value]; seen {
			unique[i] = row
			continue
		}
		position[value] = len(unique)
		unique = append(unique, row)
	}
	return unique
}

// rowGroup is a run of rows sharing one column set.
type rowGroup struct {
	columns []string
	rows    []Row
}

// groupByColumns splits rows by their sorted column set, preserving the order
// in which each set first appears. Backends build one statement per group.
func groupByColumns(rows []Row) []rowGroup {
	index := make(map[string]int)
	var groups []rowGroup
	for _, row := range rows {
		columns := sortedColumns(row)
		signature := strings.Join(columns, ",")
		i, ok := index[signature]
		if !ok {
			i = len(groups)
			index[signature] = i
			groups = append(groups, rowGroup{columns: columns})
		}
		groups[i].rows = append(groups[i].rows, row)
	}
	return groups
}

func sortedColumns(row Row) []string {
	columns := make([]string, 0, len(row))
	for column := range row {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}
