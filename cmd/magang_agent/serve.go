package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/magang-agent/internal/config"
	"github.com/jonathan/magang-agent/internal/db"
	"github.com/jonathan/magang-agent/internal/log"
	"github.com/jonathan/magang-agent/internal/pipeline"
	"github.com/jonathan/magang-agent/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only REST API server",
	Long:  "Serves the listing snapshot over HTTP and exposes a protected endpoint that triggers a background scrape run.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
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

	if err := store.InitSchema(ctx); err != nil {
		return err
	}

	runner := server.NewRunner(func(runCtx context.Context) (*pipeline.RunStats, error) {
		return pipeline.Run(runCtx, cfg, store)
	})

	return server.New(cfg, store, runner).Start()
}
