package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/magang-agent/internal/config"
	"github.com/jonathan/magang-agent/internal/db"
	"github.com/jonathan/magang-agent/internal/log"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the database schema",
	Long:  "Creates the listing and run metadata tables with their indexes. Safe to run against an existing database.",
	RunE:  runInitDB,
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}

func runInitDB(_ *cobra.Command, _ []string) error {
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

	fmt.Println("Database schema initialized")
	return nil
}
