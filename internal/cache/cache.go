// Package cache implements the durable slug-keyed detail cache. The cache is
// a single JSON document read fully at startup and rewritten fully on each
// save; it survives process restarts and spares the crawler redundant detail
// fetches across runs.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jonathan/magang-agent/internal/types"
)

// Cache is a mapping from slug to the last-fetched item. It is owned by a
// single run and never written to concurrently; waves mutate it only after
// their fan-in.
type Cache struct {
	path  string
	items map[string]types.CachedItem
	log   *zap.SugaredLogger
}

// Load reads the cache document at path. A missing file starts an empty
// cache; a corrupt or unparsable file is treated as empty and logged, never
// fatal.
func Load(path string) *Cache {
	c := &Cache{
		path:  path,
		items: make(map[string]types.CachedItem),
		log:   zap.S().Named("cache"),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warnf("failed to read cache file %s: %v", path, err)
		}
		return c
	}

	if err := json.Unmarshal(data, &c.items); err != nil {
		c.log.Warnf("cache file %s is corrupt, starting empty: %v", path, err)
		c.items = make(map[string]types.CachedItem)
		return c
	}

	c.log.Infof("loaded %d cached items from %s", len(c.items), path)
	return c
}

// Save serializes the full mapping back to disk. The document is written to
// a temporary file and renamed into place so a crash mid-write cannot
// truncate a previously valid cache.
func (c *Cache) Save() error {
	data, err := json.MarshalIndent(c.items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace cache file %s: %w", c.path, err)
	}
	return nil
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	return len(c.items)
}

// Has reports whether a slug is present.
func (c *Cache) Has(slug string) bool {
	_, ok := c.items[slug]
	return ok
}

// Get returns the cached item for a slug.
func (c *Cache) Get(slug string) (types.CachedItem, bool) {
	item, ok := c.items[slug]
	return item, ok
}

// Put stores an item keyed by its slug, overwriting any previous entry.
func (c *Cache) Put(item types.CachedItem) {
	c.items[item.Slug] = item
}

// Items returns all cached items in unspecified order.
func (c *Cache) Items() []types.CachedItem {
	out := make([]types.CachedItem, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item)
	}
	return out
}

// Prune removes entries whose slug is not in currentSlugs, dropping items
// that have disappeared from the upstream listing. Returns the number of
// entries removed.
func (c *Cache) Prune(currentSlugs map[string]struct{}) int {
	removed := 0
	for slug := range c.items {
		if _, ok := currentSlugs[slug]; !ok {
			delete(c.items, slug)
			removed++
		}
	}
	if removed > 0 {
		c.log.Infof("pruned %d outdated cache entries", removed)
	}
	return removed
}

// Missing returns the summaries whose slug is absent from the cache, i.e.
// the detail fetches still needed this run.
func (c *Cache) Missing(summaries []types.ListingSummary) []types.ListingSummary {
	var needed []types.ListingSummary
	for _, s := range summaries {
		if !c.Has(s.Slug) {
			needed = append(needed, s)
		}
	}
	return needed
}

// SummaryOnly returns the cached items whose detail payload is empty; these
// are the retry candidates.
func (c *Cache) SummaryOnly() []types.CachedItem {
	var out []types.CachedItem
	for _, item := range c.items {
		if !item.Complete() {
			out = append(out, item)
		}
	}
	return out
}
