// Package pipeline provides the high-level orchestration for one scrape run:
// bootstrap, listing crawl, dedup, cached detail waves, and reconciliation
// into the store.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/magang-agent/internal/cache"
	"github.com/jonathan/magang-agent/internal/config"
	"github.com/jonathan/magang-agent/internal/crawling"
	"github.com/jonathan/magang-agent/internal/db"
	"github.com/jonathan/magang-agent/internal/fetch"
	"github.com/jonathan/magang-agent/internal/types"
)

// summariesOf extracts the embedded summaries from cached items so a retry
// wave can reuse the detail fetch path.
func summariesOf(items []types.CachedItem) []types.ListingSummary {
	out := make([]types.ListingSummary, len(items))
	for i, item := range items {
		out[i] = item.ListingSummary
	}
	return out
}

// capRetries bounds a retry wave to at most cap items. Entries beyond the
// cap stay summary-only in the cache and become candidates again next run.
func capRetries(items []types.CachedItem, limit int) []types.CachedItem {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// RunStats is the operator-facing summary of a single run.
type RunStats struct {
	TotalPages        int           `json:"total_pages"`
	TotalSummaries    int           `json:"total_summaries"`
	Duplicates        int           `json:"duplicates"`
	Rejected          int           `json:"rejected"`
	UniqueSummaries   int           `json:"unique_summaries"`
	CachePruned       int           `json:"cache_pruned"`
	CacheHits         int           `json:"cache_hits"`
	NewDetails        int           `json:"new_details"`
	NewFailures       int           `json:"new_failures"`
	Retried           int           `json:"retried"`
	RetrySuccesses    int           `json:"retry_successes"`
	Upserted          int           `json:"upserted"`
	Deleted           int           `json:"deleted"`
	SuccessfulDetails int           `json:"successful_details"`
	FailedDetails     int           `json:"failed_details"`
	Elapsed           time.Duration `json:"elapsed"`
}

// Run executes one full scrape. Per-page and per-item failures are absorbed
// and reflected in the stats; only a bootstrap failure returns an error, and
// it does so before the store is touched.
func Run(ctx context.Context, cfg *config.Config, store *db.DB) (*RunStats, error) {
	log := zap.S().Named("pipeline")
	start := time.Now()
	stats := &RunStats{}

	client := fetch.NewClient(&fetch.Options{
		Timeout:    cfg.Timeout,
		UserAgent:  cfg.UserAgent,
		RetryCount: cfg.RetryCount,
		RetryDelay: cfg.RetryDelay,
	})
	crawler := crawling.New(client, crawling.Options{
		BaseURL:       cfg.BaseURL,
		MaxConcurrent: cfg.MaxConcurrent,
		UseBrowser:    cfg.UseBrowser,
	})

	// Stage 1: listing crawl
	log.Info("stage 1: fetching listing summaries")
	boot, err := crawler.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalPages = boot.TotalPages

	summaries := boot.FirstPage
	summaries = append(summaries, crawler.ListingPages(ctx, boot.Version, boot.TotalPages)...)
	stats.TotalSummaries = len(summaries)
	log.Infof("fetched %d summaries across %d pages", len(summaries), boot.TotalPages)

	dd := crawling.Deduplicate(summaries)
	stats.Duplicates = dd.Duplicates
	stats.Rejected = dd.Rejected
	stats.UniqueSummaries = len(dd.Summaries)
	if dd.Duplicates > 0 {
		log.Infof("removed %d duplicates", dd.Duplicates)
	}
	if dd.Rejected > 0 {
		log.Warnf("rejected %d items without identifier or slug", dd.Rejected)
	}

	// Cache management
	detailCache := cache.Load(cfg.CacheFile)
	stats.CachePruned = detailCache.Prune(dd.Slugs())
	needed := detailCache.Missing(dd.Summaries)
	stats.CacheHits = len(dd.Summaries) - len(needed)

	// Stage 2: new details
	if len(needed) > 0 {
		log.Infof("stage 2: fetching %d new details", len(needed))
		wave := crawler.FetchDetails(ctx, boot.Version, needed)
		for _, item := range wave.Items {
			detailCache.Put(item)
		}
		stats.NewDetails = len(wave.Items) - wave.Failed
		stats.NewFailures = wave.Failed
		if err := detailCache.Save(); err != nil {
			log.Warnf("failed to save cache: %v", err)
		}
		log.Infof("new details: %d successful, %d failed", stats.NewDetails, stats.NewFailures)
	} else {
		log.Info("stage 2: no new details needed")
	}

	// Stage 2.5: retry summary-only entries, capped per run
	retryable := capRetries(detailCache.SummaryOnly(), cfg.RetryWaveCap)
	if len(retryable) > 0 {
		log.Infof("stage 2.5: retrying %d failed details", len(retryable))
		stats.Retried = len(retryable)

		wave := crawler.FetchDetails(ctx, boot.Version, summariesOf(retryable))
		for _, item := range wave.Items {
			if item.Complete() {
				detailCache.Put(item)
				stats.RetrySuccesses++
			}
		}
		if stats.RetrySuccesses > 0 {
			if err := detailCache.Save(); err != nil {
				log.Warnf("failed to save cache: %v", err)
			}
			log.Infof("retry successful for %d items", stats.RetrySuccesses)
		}
	}

	// Stage 3: reconcile into the store
	log.Info("stage 3: reconciling store")
	res, err := store.Reconcile(ctx, detailCache.Items(), dd.ValidIDs, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	stats.Upserted = res.Upserted
	stats.Deleted = res.Deleted
	stats.SuccessfulDetails = res.SuccessfulDetails
	stats.FailedDetails = res.FailedDetails

	stats.Elapsed = time.Since(start)
	log.Infof("run complete: total=%d complete=%d summary_only=%d deleted=%d elapsed=%s",
		stats.Upserted, stats.SuccessfulDetails, stats.FailedDetails, stats.Deleted, stats.Elapsed)
	return stats, nil
}
