package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the number of stored employers, students, internships and matches",
	Run: func(_ *cobra.Command, _ []string) {
		ctx := context.Background()
		logger, config := setup()

		store := openStore(ctx, config, logger)
		defer store.Close()

		stats, err := store.Stats(ctx)
		if err != nil {
			logger.Fatal("counting entities", zap.Error(err))
		}

		renderStats(os.Stdout, stats)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
