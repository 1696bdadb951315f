package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arfanana/smart-internship-engine/internal/catalog"
	"github.com/arfanana/smart-internship-engine/internal/secrets"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull employers, students and internships from the admin API into the database",
	Run: func(_ *cobra.Command, _ []string) {
		runSync()
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync() {
	ctx := context.Background()
	logger, config := setup()

	token := ""
	if config.Catalog.Token != "" || config.Catalog.TokenFile != "" {
		var err error
		token, err = secrets.Load(secrets.Source{
			Name:  "catalog token",
			Value: config.Catalog.Token,
			File:  config.Catalog.TokenFile,
		})
		if err != nil {
			logger.Fatal("loading catalog token", zap.Error(err))
		}
	}

	client := catalog.New(ctx, logger, config.Catalog.URL, token)
	if config.Catalog.UserAgent != "" {
		client.UserAgent = config.Catalog.UserAgent
	}
	if config.Catalog.Timeout > 0 {
		client.HTTPClient.Timeout = config.Catalog.Timeout
	}

	store := openStore(ctx, config, logger)
	defer store.Close()

	logger.Info("starting the sync", zap.String("url", client.BaseURL))

	report, err := catalog.Sync(ctx, client, store, config.Institution, logger)
	if err != nil {
		logger.Fatal("syncing catalog", zap.Error(err))
	}

	renderSyncReport(os.Stdout, report)
}
