package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fenilmodi00/ipo-sync/pipeline"
	"github.com/fenilmodi00/ipo-sync/shared"
)

// ErrAlreadyRunning is returned when a job is triggered while its previous
// run is still in flight.
var ErrAlreadyRunning = errors.New("job already running")

// Runner performs one sync pass.
type Runner interface {
	Run(ctx context.Context) (*pipeline.RunReport, error)
}

// SyncJob wraps a runner with an overlap guard, a timeout and run metrics.
// Different jobs never block each other.
type SyncJob struct {
	name      string
	runner    Runner
	timeout   time.Duration
	metrics   *shared.RunMetrics
	logger    *logrus.Entry
	isRunning atomic.Bool
}

// NewSyncJob creates a job. A zero timeout means no deadline beyond ctx.
func NewSyncJob(name string, runner Runner, timeout time.Duration, metrics *shared.RunMetrics) *SyncJob {
	if metrics == nil {
		metrics = shared.NewRunMetrics(name)
	}
	return &SyncJob{
		name:    name,
		runner:  runner,
		timeout: timeout,
		metrics: metrics,
		logger:  logrus.WithFields(logrus.Fields{"component": "SyncJob", "job": name}),
	}
}

func (j *SyncJob) Name() string { return j.name }

// Run executes the job once.
func (j *SyncJob) Run(ctx context.Context) (*pipeline.RunReport, error) {
	if !j.isRunning.CompareAndSwap(false, true) {
		j.logger.Warn("Sync job already running, skipping")
		j.metrics.RecordSkippedOverlap()
		return nil, ErrAlreadyRunning
	}
	defer j.isRunning.Store(false)

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	startTime := time.Now()
	j.logger.Info("Starting sync job")

	report, err := j.runner.Run(ctx)
	processingTime := time.Since(startTime)
	j.metrics.RecordRun(err, processingTime)
	defer j.metrics.LogSummary()

	if err != nil {
		j.logger.WithError(err).Error("Sync job failed")
		return report, err
	}

	j.metrics.AddCounter("records_upserted", int64(report.Upserted))
	j.metrics.AddCounter("records_dropped", int64(report.Dropped))
	j.metrics.AddCounter("rows_skipped", int64(report.Skipped.Total()))

	j.logger.WithFields(logrus.Fields{
		"run_id":          report.RunID,
		"records_updated": report.Upserted,
		"processing_time": processingTime,
	}).Info("Successfully completed sync job")

	return report, nil
}

// IsRunning reports whether a run is in flight.
func (j *SyncJob) IsRunning() bool {
	return j.isRunning.Load()
}

// Metrics returns the job's run metrics.
func (j *SyncJob) Metrics() *shared.RunMetrics {
	return j.metrics
}
