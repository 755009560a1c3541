package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Stats aggregates what the stats endpoint reports: the current row count
// plus the latest run's metadata (nil when no run has completed yet).
type Stats struct {
	TotalListings int          `json:"total_lowongan"`
	LastRun       *RunMetadata `json:"last_run,omitempty"`
}

// GetStats returns the listing count and the latest run metadata.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM lowongan`).Scan(&stats.TotalListings); err != nil {
		return nil, fmt.Errorf("failed to count listings: %w", err)
	}

	var meta RunMetadata
	err := db.pool.QueryRow(ctx,
		`SELECT last_scrape_timestamp, total_lowongan, successful_details, failed_details
		 FROM scrape_metadata ORDER BY id DESC LIMIT 1`,
	).Scan(&meta.ScrapedAt, &meta.Total, &meta.SuccessfulDetails, &meta.FailedDetails)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stats, nil
		}
		return nil, fmt.Errorf("failed to get run metadata: %w", err)
	}

	stats.LastRun = &meta
	return stats, nil
}
