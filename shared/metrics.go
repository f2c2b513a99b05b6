package shared

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RunMetrics tracks how a recurring job has fared across runs.
type RunMetrics struct {
	Name            string           `json:"name"`
	TotalRuns       int64            `json:"total_runs"`
	SuccessfulRuns  int64            `json:"successful_runs"`
	FailedRuns      int64            `json:"failed_runs"`
	SkippedOverlaps int64            `json:"skipped_overlaps"`
	TotalDuration   time.Duration    `json:"total_duration"`
	AverageDuration time.Duration    `json:"average_duration"`
	LastRunAt       time.Time        `json:"last_run_at"`
	LastError       string           `json:"last_error,omitempty"`
	Counters        map[string]int64 `json:"counters"`
	mutex           sync.RWMutex
}

// NewRunMetrics creates a new metrics tracker for a job
func NewRunMetrics(name string) *RunMetrics {
	return &RunMetrics{
		Name:     name,
		Counters: make(map[string]int64),
	}
}

// RecordRun records one finished run with its outcome and duration
func (m *RunMetrics) RecordRun(err error, duration time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalRuns++
	m.TotalDuration += duration
	m.AverageDuration = time.Duration(int64(m.TotalDuration) / m.TotalRuns)
	m.LastRunAt = time.Now()

	if err != nil {
		m.FailedRuns++
		m.LastError = err.Error()
	} else {
		m.SuccessfulRuns++
		m.LastError = ""
	}
}

// RecordSkippedOverlap counts a trigger that arrived while a run was in flight
func (m *RunMetrics) RecordSkippedOverlap() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.SkippedOverlaps++
}

// AddCounter increments a named counter by delta
func (m *RunMetrics) AddCounter(key string, delta int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.Counters[key] += delta
}

// GetSuccessRate returns the success rate as a percentage
func (m *RunMetrics) GetSuccessRate() float64 {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.TotalRuns == 0 {
		return 0.0
	}
	return float64(m.SuccessfulRuns) / float64(m.TotalRuns) * 100.0
}

// Snapshot is a copy of RunMetrics safe to serialize.
type Snapshot struct {
	Name            string           `json:"name"`
	TotalRuns       int64            `json:"total_runs"`
	SuccessfulRuns  int64            `json:"successful_runs"`
	FailedRuns      int64            `json:"failed_runs"`
	SkippedOverlaps int64            `json:"skipped_overlaps"`
	AverageDuration string           `json:"average_duration"`
	LastRunAt       *time.Time       `json:"last_run_at,omitempty"`
	LastError       string           `json:"last_error,omitempty"`
	Counters        map[string]int64 `json:"counters"`
}

// GetSnapshot returns a thread-safe snapshot of current metrics
func (m *RunMetrics) GetSnapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	counters := make(map[string]int64, len(m.Counters))
	for k, v := range m.Counters {
		counters[k] = v
	}

	snapshot := Snapshot{
		Name:            m.Name,
		TotalRuns:       m.TotalRuns,
		SuccessfulRuns:  m.SuccessfulRuns,
		FailedRuns:      m.FailedRuns,
		SkippedOverlaps: m.SkippedOverlaps,
		AverageDuration: m.AverageDuration.String(),
		LastError:       m.LastError,
		Counters:        counters,
	}
	if !m.LastRunAt.IsZero() {
		lastRun := m.LastRunAt
		snapshot.LastRunAt = &lastRun
	}
	return snapshot
}

// LogSummary logs a metrics summary
func (m *RunMetrics) LogSummary() {
	snapshot := m.GetSnapshot()

	logrus.WithFields(logrus.Fields{
		"component":        "RunMetrics",
		"name":             snapshot.Name,
		"total_runs":       snapshot.TotalRuns,
		"failed_runs":      snapshot.FailedRuns,
		"success_rate":     m.GetSuccessRate(),
		"skipped_overlaps": snapshot.SkippedOverlaps,
		"average_duration": snapshot.AverageDuration,
		"counters":         snapshot.Counters,
	}).Info("Job metrics summary")
}

// MetricsRegistry hands out one RunMetrics per job name.
type MetricsRegistry struct {
	mutex   sync.Mutex
	metrics map[string]*RunMetrics
}

// NewMetricsRegistry creates an empty registry
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{metrics: make(map[string]*RunMetrics)}
}

// For returns the metrics for name, creating them on first use
func (r *MetricsRegistry) For(name string) *RunMetrics {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if m, ok := r.metrics[name]; ok {
		return m
	}
	m := NewRunMetrics(name)
	r.metrics[name] = m
	return m
}

// Snapshots returns a snapshot of every registered job, sorted by name
func (r *MetricsRegistry) Snapshots() []Snapshot {
	r.mutex.Lock()
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	r.mutex.Unlock()

	sort.Strings(names)
	snapshots := make([]Snapshot, 0, len(names))
	for _, name := range names {
		snapshots = append(snapshots, r.For(name).GetSnapshot())
	}
	return snapshots
}
