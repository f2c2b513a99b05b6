package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fenilmodi00/ipo-sync/jobs"
)

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:       "sync [web|api|shareholders]",
	Short:     "Runs one sync job once and prints its report.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{jobs.JobWeb, jobs.JobAPI, jobs.JobShareholders},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sink, err := openSink(ctx)
		if err != nil {
			return err
		}
		defer sink.Close()

		job, err := jobs.NewRegistry(cfg, sink).Get(args[0])
		if err != nil {
			return err
		}

		report, err := job.Run(ctx)
		if report != nil {
			out, marshalErr := json.MarshalIndent(report, "", "  ")
			if marshalErr != nil {
				return marshalErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
		}
		return err
	},
}
