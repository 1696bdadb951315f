package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arfanana/smart-internship-engine/internal/matching"
)

var matchCmd = &cobra.Command{
	Use:   "match <student-id>",
	Short: "Rank internships for a student and record the matches",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runMatch(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().IntP("limit", "l", 0, "maximum number of results (default is matching.limit from the config)")
	matchCmd.Flags().Bool("dry-run", false, "compute the ranking without recording matches")
	matchCmd.Flags().Bool("prune", false, "remove pending matches that are no longer in the ranking")
	matchCmd.Flags().StringP("output", "o", "table", "output format: table or json")
}

func runMatch(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	logger, config := setup()

	studentID, err := parseID(args[0])
	if err != nil {
		logger.Fatal("parsing student id", zap.Error(err))
	}

	limit, _ := cmd.Flags().GetInt("limit")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	prune, _ := cmd.Flags().GetBool("prune")
	output, _ := cmd.Flags().GetString("output")

	store := openStore(ctx, config, logger)
	defer store.Close()

	logger.Info("starting the matching", zap.String("version", version), zap.Int64("student_id", studentID), zap.Bool("dry_run", dryRun))

	outcome, err := newService(store, config, logger).Run(ctx, studentID, matching.RunOptions{
		Limit:  limit,
		DryRun: dryRun,
		Prune:  prune,
	})
	if err != nil {
		logger.Fatal("matching failed", zap.Error(err))
	}

	if output == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(outcome.Results); err != nil {
			logger.Fatal("encoding results", zap.Error(err))
		}
		return
	}

	renderOutcome(os.Stdout, studentID, outcome)
}
