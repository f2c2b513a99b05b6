package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// cronLogger routes cron's own messages through logrus.
type cronLogger struct {
	entry *logrus.Entry
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.entry.WithFields(kvFields(keysAndValues)).WithError(err).Error(msg)
}

func kvFields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

// Scheduler runs registered jobs on cron specs such as "@every 3h".
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *logrus.Entry
}

// NewScheduler creates a stopped scheduler. A panicking job is recovered and
// logged; a job still running when its next tick fires is skipped.
func NewScheduler() *Scheduler {
	logger := logrus.WithField("component", "Scheduler")
	cl := cronLogger{entry: logger}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// Schedule registers job on spec.
func (s *Scheduler) Schedule(spec string, job *SyncJob) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.wg.Add(1)
		defer s.wg.Done()

		if _, err := job.Run(s.ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			s.logger.WithError(err).WithField("job", job.Name()).Error("Scheduled sync failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, job.Name(), err)
	}

	s.logger.WithFields(logrus.Fields{
		"job":      job.Name(),
		"schedule": spec,
	}).Info("Scheduled sync job")
	return nil
}

// ScheduleAll registers every job of registry on its spec from schedules.
// Jobs without a spec are left unscheduled.
func (s *Scheduler) ScheduleAll(registry *Registry, schedules map[string]string) error {
	for _, name := range registry.Names() {
		spec := schedules[name]
		if spec == "" {
			s.logger.WithField("job", name).Warn("No schedule configured, job only runs on demand")
			continue
		}
		job, _ := registry.Get(name)
		if err := s.Schedule(spec, job); err != nil {
			return err
		}
	}
	return nil
}

// RunNow starts job in the background without waiting for its first tick.
func (s *Scheduler) RunNow(job *SyncJob) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := job.Run(s.ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			s.logger.WithError(err).WithField("job", job.Name()).Error("Initial sync failed")
		}
	}()
}

// Start begins firing scheduled jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.WithField("entries", len(s.cron.Entries())).Info("Scheduler started")
}

// Stop prevents new runs, cancels runs in flight and waits for them to return.
func (s *Scheduler) Stop() {
	stopped := s.cron.Stop()
	s.cancel()
	<-stopped.Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}
