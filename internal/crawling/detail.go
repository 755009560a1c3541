package crawling

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/magang-agent/internal/types"
)

// DetailResult joins a wave of detail fetches back to their origin
// summaries. Items keeps origin order; an entry is complete on success and a
// summary-only placeholder on failure, so no item is ever silently lost.
type DetailResult struct {
	Items  []types.CachedItem
	Failed int
}

// FetchDetails fetches the detail page for every summary concurrently under
// the shared limiter, then fans back in. Both the first wave and the retry
// wave go through here.
func (c *Crawler) FetchDetails(ctx context.Context, version string, summaries []types.ListingSummary) DetailResult {
	items := make([]types.CachedItem, len(summaries))
	g, gCtx := errgroup.WithContext(ctx)

	for i, summary := range summaries {
		idx, s := i, summary
		g.Go(func() error {
			if err := c.limiter.Acquire(gCtx, 1); err != nil {
				return err
			}
			defer c.limiter.Release(1)

			detail, err := c.fetchDetailPage(gCtx, version, s.Slug)
			if err != nil {
				c.log.Warnf("failed to fetch detail %s: %v", s.Slug, err)
				items[idx] = types.CachedItem{ListingSummary: s}
				return nil
			}
			c.log.Debugf("fetched detail %s", s.Slug)
			items[idx] = types.CachedItem{ListingSummary: s, Detail: *detail}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.log.Warnf("detail wave interrupted: %v", err)
	}

	res := DetailResult{Items: items}
	for _, item := range items {
		if !item.Complete() {
			res.Failed++
		}
	}
	return res
}

func (c *Crawler) fetchDetailPage(ctx context.Context, version, slug string) (*types.DetailPayload, error) {
	url := fmt.Sprintf("%s/%s", c.opts.BaseURL, slug)
	body, err := c.client.Get(ctx, url, c.inertiaHeaders(version))
	if err != nil {
		return nil, err
	}

	var env detailEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode detail %s: %w", slug, err)
	}
	return &env.Props, nil
}
