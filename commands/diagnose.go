package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fenilmodi00/ipo-sync/database"
	"github.com/fenilmodi00/ipo-sync/services"
)

var diagnoseProbe *bool

func init() {
	diagnoseProbe = diagnoseCmd.Flags().Bool("probe", false, "Upsert a probe row into ipos to test write access.")
	rootCmd.AddCommand(diagnoseCmd)
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [--probe]",
	Short: "Checks configuration, credentials and sink access.",
	// Configuration problems are reported as checks instead of aborting.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			logrus.WithError(err).Warn("Configuration is incomplete")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var sink database.Sink
		if opened, err := database.OpenSink(ctx, cfg); err != nil {
			logrus.WithError(err).Warn("Could not open sink")
		} else {
			sink = opened
			defer sink.Close()
		}

		checks := services.NewDiagnosticsService(cfg, sink).Run(ctx, *diagnoseProbe)

		out := cmd.OutOrStdout()
		for _, check := range checks {
			fmt.Fprintf(out, "[%-7s] %-17s %s\n", strings.ToUpper(string(check.Status)), check.Name, check.Message)
		}
		if !services.Healthy(checks) {
			return errors.New("diagnostics failed")
		}
		return nil
	},
}
