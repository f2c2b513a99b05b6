// Package commands is the ipo-sync command line.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fenilmodi00/ipo-sync/config"
	"github.com/fenilmodi00/ipo-sync/database"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ipo-sync",
	Short: "ipo-sync merges IPO data from several public sources into one table.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()
		config.ConfigureLogging(cfg)
		return cfg.Validate()
	},
	SilenceUsage: true,
}

// ExecuteContext runs the command line and exits non-zero on failure.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openSink opens the configured sink or fails the command.
func openSink(ctx context.Context) (database.Sink, error) {
	sink, err := database.OpenSink(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"component": "CLI",
		"driver":    cfg.SinkDriver,
	}).Info("Sink ready")
	return sink, nil
}
