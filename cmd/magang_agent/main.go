// Package main provides the entry point for the magang-agent CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "magang_agent",
	Short: "Magang Berdampak scraper and read API",
	Long:  "magang-agent crawls the Simbelmawa Magang Berdampak listing site, maintains a durable detail cache, reconciles a PostgreSQL snapshot, and serves a read-only JSON API over it.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
