package crawling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/magang-agent/internal/types"
)

func TestDeduplicate_FirstOccurrenceWins(t *testing.T) {
	input := []types.ListingSummary{
		{ID: 1, Slug: "one", Position: "original"},
		{ID: 2, Slug: "two"},
		{ID: 1, Slug: "one-again", Position: "duplicate"},
	}

	res := Deduplicate(input)
	require.Len(t, res.Summaries, 2)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 0, res.Rejected)
	assert.Equal(t, "original", res.Summaries[0].Position)
	assert.Equal(t, int64(2), res.Summaries[1].ID)

	assert.Contains(t, res.ValidIDs, int64(1))
	assert.Contains(t, res.ValidIDs, int64(2))
	assert.Len(t, res.ValidIDs, 2)
}

func TestDeduplicate_RejectsUnkeyedItems(t *testing.T) {
	input := []types.ListingSummary{
		{ID: 0, Slug: "no-id"},
		{ID: 3, Slug: ""},
		{ID: 4, Slug: "valid"},
	}

	res := Deduplicate(input)
	require.Len(t, res.Summaries, 1)
	assert.Equal(t, 2, res.Rejected)
	assert.Equal(t, int64(4), res.Summaries[0].ID)
	assert.NotContains(t, res.ValidIDs, int64(3))
}

func TestDeduplicate_Empty(t *testing.T) {
	res := Deduplicate(nil)
	assert.Empty(t, res.Summaries)
	assert.Empty(t, res.ValidIDs)
	assert.Equal(t, 0, res.Duplicates)
	assert.Equal(t, 0, res.Rejected)
}

func TestDedupResult_Slugs(t *testing.T) {
	res := Deduplicate([]types.ListingSummary{
		{ID: 1, Slug: "a"},
		{ID: 2, Slug: "b"},
	})

	slugs := res.Slugs()
	assert.Len(t, slugs, 2)
	assert.Contains(t, slugs, "a")
	assert.Contains(t, slugs, "b")
}
