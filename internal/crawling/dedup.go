package crawling

import "github.com/jonathan/magang-agent/internal/types"

// DedupResult is the outcome of a single dedup pass over the joined listing
// sequence. Summaries preserves first-occurrence order; ValidIDs is the
// authoritative key set for the run's store reconciliation.
type DedupResult struct {
	Summaries  []types.ListingSummary
	ValidIDs   map[int64]struct{}
	Duplicates int
	Rejected   int
}

// Deduplicate collapses summaries by identifier, first occurrence winning.
// Items with a zero identifier or empty slug are rejected outright rather
// than being carried forward with an undefined key.
func Deduplicate(summaries []types.ListingSummary) DedupResult {
	res := DedupResult{
		ValidIDs: make(map[int64]struct{}),
	}

	seen := make(map[int64]struct{})
	for _, item := range summaries {
		if item.ID == 0 || item.Slug == "" {
			res.Rejected++
			continue
		}
		if _, ok := seen[item.ID]; ok {
			res.Duplicates++
			continue
		}
		seen[item.ID] = struct{}{}
		res.ValidIDs[item.ID] = struct{}{}
		res.Summaries = append(res.Summaries, item)
	}

	return res
}

// Slugs returns the set of slugs in the deduplicated summaries, used to
// prune cache entries for items gone from the upstream listing.
func (r DedupResult) Slugs() map[string]struct{} {
	slugs := make(map[string]struct{}, len(r.Summaries))
	for _, s := range r.Summaries {
		slugs[s.Slug] = struct{}{}
	}
	return slugs
}
