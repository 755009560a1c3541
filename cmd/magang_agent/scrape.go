package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/magang-agent/internal/config"
	"github.com/jonathan/magang-agent/internal/db"
	"github.com/jonathan/magang-agent/internal/log"
	"github.com/jonathan/magang-agent/internal/pipeline"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run one full scrape of the listing site",
	Long:  "Crawls every listing page, fetches missing detail pages, retries previously failed ones, and reconciles the result into the database.",
	RunE:  runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := log.Init(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	store, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		return err
	}

	if _, err := pipeline.Run(ctx, cfg, store); err != nil {
		return fmt.Errorf("scrape run failed: %w", err)
	}
	return nil
}
