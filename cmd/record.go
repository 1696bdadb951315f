package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var recordCmd = &cobra.Command{
	Use:   "record <student-id> <internship-id> <score>",
	Short: "Record a single match score for a student and an internship",
	Args:  cobra.ExactArgs(3),
	Run: func(_ *cobra.Command, args []string) {
		runRecord(args)
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

func runRecord(args []string) {
	ctx := context.Background()
	logger, config := setup()

	studentID, err := parseID(args[0])
	if err != nil {
		logger.Fatal("parsing student id", zap.Error(err))
	}
	internshipID, err := parseID(args[1])
	if err != nil {
		logger.Fatal("parsing internship id", zap.Error(err))
	}
	score, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		logger.Fatal("parsing score", zap.Error(err))
	}

	store := openStore(ctx, config, logger)
	defer store.Close()

	match, err := newService(store, config, logger).RecordMatch(ctx, studentID, internshipID, score)
	if err != nil {
		logger.Fatal("recording match", zap.Error(err))
	}

	fmt.Printf("match %d: student %d, internship %d, score %s, status %s\n",
		match.ID, match.StudentID, match.InternshipID, formatScore(match.Score), match.Status)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
