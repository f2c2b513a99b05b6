package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fenilmodi00/ipo-sync/services"
)

func init() {
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Loads the bundled sample IPOs into the sink.",
	RunE: func(cmd *cobra.Command, args []string) error {
		sink, err := openSink(cmd.Context())
		if err != nil {
			return err
		}
		defer sink.Close()

		n, err := services.NewSeedService(sink, cfg.UpsertChunkSize).Seed(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded %d IPOs\n", n)
		return nil
	},
}
