package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arfanana/smart-internship-engine/internal/domain"
	"github.com/arfanana/smart-internship-engine/internal/matching"
)

const (
	PromptAccept = "Accept"
	PromptReject = "Reject"
	PromptReset  = "Reset to pending"
	PromptBack   = "back"
)

var reviewCmd = &cobra.Command{
	Use:   "review <student-id>",
	Short: "Accept or reject the recorded matches of a student",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runReview(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().Int64("match", 0, "match id to review without prompting")
	reviewCmd.Flags().String("status", "", "status to set with --match: accepted, rejected or pending")
}

func runReview(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	logger, config := setup()

	studentID, err := parseID(args[0])
	if err != nil {
		logger.Fatal("parsing student id", zap.Error(err))
	}

	store := openStore(ctx, config, logger)
	defer store.Close()

	service := newService(store, config, logger)

	matchID, _ := cmd.Flags().GetInt64("match")
	status, _ := cmd.Flags().GetString("status")
	if matchID > 0 {
		if _, err := service.Review(ctx, matchID, status); err != nil {
			logger.Fatal("reviewing match", zap.Error(err))
		}
		return
	}

	if err := reviewInteractively(ctx, service, studentID, logger); err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}
}

func reviewInteractively(ctx context.Context, service *matching.Service, studentID int64, logger *zap.Logger) error {
	for {
		matches, err := service.Matches(ctx, studentID)
		if err != nil {
			return err
		}

		if len(matches) == 0 {
			logger.Info("exiting", zap.String("reason", "no recorded matches"))
			return nil
		}

		renderMatches(os.Stdout, matches)

		items := make([]string, 0, len(matches)+1)
		for _, match := range matches {
			items = append(items, fmt.Sprintf("%d internship %d / score %s / %s",
				match.ID, match.InternshipID, formatScore(match.Score), match.Status))
		}

		matchPrompt := promptui.Select{
			Label: "Choose a match and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := matchPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		matchID, err := strconv.ParseInt(strings.Split(selected, " ")[0], 10, 64)
		if err != nil {
			return fmt.Errorf("there is no such match %q", selected)
		}

		statusPrompt := promptui.Select{
			Label: "Decision",
			Items: []string{PromptAccept, PromptReject, PromptReset, PromptBack},
		}

		_, decision, err := statusPrompt.Run()
		if err != nil {
			return err
		}

		var status domain.Status
		switch decision {
		case PromptAccept:
			status = domain.StatusAccepted
		case PromptReject:
			status = domain.StatusRejected
		case PromptReset:
			status = domain.StatusPending
		default:
			continue
		}

		if _, err := service.Review(ctx, matchID, string(status)); err != nil {
			return err
		}
	}
}
