package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fenilmodi00/ipo-sync/jobs"
)

var scheduleRunNow *bool

func init() {
	scheduleRunNow = scheduleCmd.Flags().Bool("run-now", true, "Run the web sync immediately instead of waiting for its first tick.")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule [--run-now]",
	Short: "Runs the sync jobs on their schedules without the HTTP server.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sink, err := openSink(ctx)
		if err != nil {
			return err
		}
		defer sink.Close()

		scheduler, err := startScheduler(jobs.NewRegistry(cfg, sink), *scheduleRunNow)
		if err != nil {
			return err
		}

		<-ctx.Done()
		logrus.Info("Shutting down scheduler")
		scheduler.Stop()
		return nil
	},
}

// startScheduler registers every job on its configured spec and starts firing.
func startScheduler(registry *jobs.Registry, runNow bool) (*jobs.Scheduler, error) {
	scheduler := jobs.NewScheduler()
	if err := scheduler.ScheduleAll(registry, jobs.Schedules(cfg)); err != nil {
		return nil, err
	}
	if runNow {
		web, err := registry.Get(jobs.JobWeb)
		if err != nil {
			return nil, err
		}
		scheduler.RunNow(web)
	}
	scheduler.Start()
	return scheduler, nil
}
