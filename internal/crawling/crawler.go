// Package crawling implements the two-stage listing/detail crawl against the
// upstream Inertia application.
package crawling

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/magang-agent/internal/fetch"
	"github.com/jonathan/magang-agent/internal/types"
)

// Options configures a Crawler.
type Options struct {
	BaseURL       string
	MaxConcurrent int
	// UseBrowser enables the headless-browser fallback for the bootstrap
	// request when the plain fetch returns a shell without page data.
	UseBrowser     bool
	BrowserTimeout time.Duration
}

// Crawler fetches listing pages and detail pages. A single weighted
// semaphore bounds in-flight requests across both stages.
type Crawler struct {
	client  *fetch.Client
	opts    Options
	limiter *semaphore.Weighted
	log     *zap.SugaredLogger
}

// New creates a Crawler sharing the given fetch client.
func New(client *fetch.Client, opts Options) *Crawler {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 25
	}
	if opts.BrowserTimeout <= 0 {
		opts.BrowserTimeout = 60 * time.Second
	}
	return &Crawler{
		client:  client,
		opts:    opts,
		limiter: semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		log:     zap.S().Named("crawl"),
	}
}

// BootstrapResult carries what the initial request yields: the version token
// required by all subsequent requests, the total page count, and the first
// page's items inline.
type BootstrapResult struct {
	Version    string
	TotalPages int
	FirstPage  []types.ListingSummary
}

// Bootstrap performs the initial request to the base listing endpoint and
// parses the Inertia payload embedded in the HTML shell. Failure here is
// fatal to the run.
func (c *Crawler) Bootstrap(ctx context.Context) (*BootstrapResult, error) {
	body, err := c.client.Get(ctx, c.opts.BaseURL, nil)
	if err != nil {
		return nil, &BootstrapError{Message: "initial request failed", Cause: err}
	}

	env, err := parsePageData(string(body))
	if err != nil && c.opts.UseBrowser {
		c.log.Warnf("no page data in plain response, falling back to browser: %v", err)
		html, berr := fetch.WithBrowser(ctx, c.opts.BaseURL, c.opts.BrowserTimeout)
		if berr != nil {
			return nil, &BootstrapError{Message: "browser fallback failed", Cause: berr}
		}
		env, err = parsePageData(html)
	}
	if err != nil {
		return nil, &BootstrapError{Message: "could not parse page data", Cause: err}
	}

	if env.Version == "" {
		return nil, &BootstrapError{Message: "missing version token"}
	}
	if env.Props.Data.LastPage < 1 {
		return nil, &BootstrapError{Message: "missing total page count"}
	}

	c.log.Infof("version: %s | total pages: %d", env.Version, env.Props.Data.LastPage)
	return &BootstrapResult{
		Version:    env.Version,
		TotalPages: env.Props.Data.LastPage,
		FirstPage:  env.Props.Data.Data,
	}, nil
}

// parsePageData extracts and decodes the data-page attribute of the #app div.
func parsePageData(html string) (*listingEnvelope, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	raw, ok := doc.Find("div#app").Attr("data-page")
	if !ok || raw == "" {
		return nil, fmt.Errorf("div#app data-page attribute not found")
	}

	var env listingEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("failed to decode page data: %w", err)
	}
	return &env, nil
}

// ListingPages concurrently fetches pages 2..totalPages and returns their
// items joined in page order. A page that fails after retries contributes
// zero items; the run is best-effort per page.
func (c *Crawler) ListingPages(ctx context.Context, version string, totalPages int) []types.ListingSummary {
	if totalPages < 2 {
		return nil
	}

	results := make([][]types.ListingSummary, totalPages-1)
	g, gCtx := errgroup.WithContext(ctx)

	for page := 2; page <= totalPages; page++ {
		idx := page - 2
		pageNum := page
		g.Go(func() error {
			if err := c.limiter.Acquire(gCtx, 1); err != nil {
				return err
			}
			defer c.limiter.Release(1)

			items, err := c.fetchListingPage(gCtx, version, pageNum)
			if err != nil {
				c.log.Warnf("listing page %d failed, contributing zero items: %v", pageNum, err)
				return nil
			}
			results[idx] = items
			return nil
		})
	}
	// Page fetch errors are absorbed above; Wait only reports cancellation.
	if err := g.Wait(); err != nil {
		c.log.Warnf("listing crawl interrupted: %v", err)
	}

	var all []types.ListingSummary
	for _, items := range results {
		all = append(all, items...)
	}
	return all
}

func (c *Crawler) fetchListingPage(ctx context.Context, version string, page int) ([]types.ListingSummary, error) {
	url := fmt.Sprintf("%s?page=%d", c.opts.BaseURL, page)
	body, err := c.client.Get(ctx, url, c.inertiaHeaders(version))
	if err != nil {
		return nil, err
	}

	var env listingEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode listing page %d: %w", page, err)
	}
	return env.Props.Data.Data, nil
}

func (c *Crawler) inertiaHeaders(version string) map[string]string {
	return map[string]string{
		headerInertia:        "true",
		headerInertiaVersion: version,
	}
}
