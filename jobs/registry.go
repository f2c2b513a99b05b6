package jobs

import (
	"fmt"
	"sort"
	"time"

	"github.com/fenilmodi00/ipo-sync/config"
	"github.com/fenilmodi00/ipo-sync/database"
	"github.com/fenilmodi00/ipo-sync/pipeline"
	"github.com/fenilmodi00/ipo-sync/shared"
	"github.com/fenilmodi00/ipo-sync/sources"
)

// Job names, also used on the command line and in the admin API.
const (
	JobWeb          = "web"
	JobAPI          = "api"
	JobShareholders = "shareholders"
)

const jobTimeout = 20 * time.Minute

// Registry holds the configured sync jobs by name.
type Registry struct {
	jobs    map[string]*SyncJob
	metrics *shared.MetricsRegistry
}

// NewRegistry builds the three sync jobs against sink.
func NewRegistry(cfg *config.Config, sink database.Sink) *Registry {
	opts := sources.Options{
		HTTPTimeout:     cfg.HTTPTimeout,
		PolitenessDelay: cfg.PolitenessDelay,
		RapidAPIKey:     cfg.RapidAPIKey,
		ChromeEnabled:   cfg.ChromeEnabled,
	}
	metrics := shared.NewMetricsRegistry()

	r := &Registry{jobs: make(map[string]*SyncJob), metrics: metrics}
	r.Add(NewSyncJob(JobWeb,
		pipeline.New(JobWeb, sources.WebAdapters(opts), sink, cfg.MatchThreshold, cfg.UpsertChunkSize),
		jobTimeout, metrics.For(JobWeb)))
	r.Add(NewSyncJob(JobAPI,
		pipeline.New(JobAPI, sources.APIAdapters(opts), sink, cfg.MatchThreshold, cfg.UpsertChunkSize),
		jobTimeout, metrics.For(JobAPI)))
	r.Add(NewSyncJob(JobShareholders,
		&pipeline.ShareholderSync{Source: sources.ShareholderSource(opts), Sink: sink, ChunkSize: cfg.UpsertChunkSize},
		jobTimeout, metrics.For(JobShareholders)))
	return r
}

// Add registers job under its name, replacing any job with the same name.
func (r *Registry) Add(job *SyncJob) {
	if r.jobs == nil {
		r.jobs = make(map[string]*SyncJob)
	}
	r.jobs[job.Name()] = job
}

// Get returns the named job.
func (r *Registry) Get(name string) (*SyncJob, error) {
	job, ok := r.jobs[name]
	if !ok {
		return nil, fmt.Errorf("unknown sync job %q (known: %v)", name, r.Names())
	}
	return job, nil
}

// Names lists the registered jobs in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshots returns the metrics of every job.
func (r *Registry) Snapshots() []shared.Snapshot {
	if r.metrics == nil {
		snapshots := make([]shared.Snapshot, 0, len(r.jobs))
		for _, name := range r.Names() {
			snapshots = append(snapshots, r.jobs[name].Metrics().GetSnapshot())
		}
		return snapshots
	}
	return r.metrics.Snapshots()
}

// Schedules maps each job to its cron spec from cfg.
func Schedules(cfg *config.Config) map[string]string {
	return map[string]string{
		JobWeb:          cfg.WebSyncSchedule,
		JobAPI:          cfg.APISyncSchedule,
		JobShareholders: cfg.ShareholderSyncSchedule,
	}
}
