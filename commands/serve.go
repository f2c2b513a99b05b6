package commands

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fenilmodi00/ipo-sync/handlers"
	"github.com/fenilmodi00/ipo-sync/jobs"
	"github.com/fenilmodi00/ipo-sync/services"
)

const shutdownTimeout = 10 * time.Second

var (
	serveRunNow      *bool
	serveNoScheduler *bool
)

func init() {
	serveRunNow = serveCmd.Flags().Bool("run-now", true, "Run the web sync immediately on startup.")
	serveNoScheduler = serveCmd.Flags().Bool("no-scheduler", false, "Serve HTTP only, without scheduled syncs.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--run-now] [--no-scheduler]",
	Short: "Serves the HTTP API and runs the sync jobs on their schedules.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sink, err := openSink(ctx)
		if err != nil {
			return err
		}
		defer sink.Close()

		registry := jobs.NewRegistry(cfg, sink)

		var scheduler *jobs.Scheduler
		if !*serveNoScheduler {
			scheduler, err = startScheduler(registry, *serveRunNow)
			if err != nil {
				return err
			}
		}

		app := handlers.NewApp(handlers.Dependencies{
			Sink:        sink,
			Jobs:        registry,
			Scoring:     services.NewScoringService(nil),
			AdminToken:  cfg.AdminToken,
			BaseContext: ctx,
			AccessLog:   true,
		})

		listenErr := make(chan error, 1)
		go func() {
			logrus.WithField("port", cfg.ServerPort).Info("Server starting")
			listenErr <- app.Listen(":" + cfg.ServerPort)
		}()

		select {
		case err = <-listenErr:
		case <-ctx.Done():
			logrus.Info("Shutting down server")
			err = app.ShutdownWithTimeout(shutdownTimeout)
		}

		if scheduler != nil {
			scheduler.Stop()
		}
		return err
	},
}
