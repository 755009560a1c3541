package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/magang-agent/internal/types"
)

const testBaseURL = "https://example.com/magang/lowongan"

func TestBuildRow_SummaryOnly(t *testing.T) {
	item := types.CachedItem{
		ListingSummary: types.ListingSummary{
			ID:          7,
			Slug:        "data-analyst-7",
			Position:    "Data Analyst",
			Partner:     "PT Contoh",
			Category:    "Teknologi Informasi",
			Headcount:   2,
			Location:    "Jakarta Selatan,\nDKI Jakarta",
			Description: "Analisis data\nharian",
		},
	}

	row := BuildRow(item, testBaseURL)

	assert.Equal(t, int64(7), row.ID)
	assert.Equal(t, "Data Analyst", row.Position)
	assert.Equal(t, testBaseURL+"/data-analyst-7", row.DetailURL)
	assert.Equal(t, "Jakarta Selatan, | DKI Jakarta", row.Location)
	assert.Equal(t, "Analisis data harian", row.ShortDescription)

	// Detail columns stay empty strings, never populated from nothing.
	assert.Empty(t, row.DetailDescription)
	assert.Empty(t, row.Responsibilities)
	assert.Empty(t, row.Qualifications)
	assert.Empty(t, row.Competencies)
}

func TestBuildRow_FlattensDetailLists(t *testing.T) {
	item := types.CachedItem{
		ListingSummary: types.ListingSummary{ID: 1, Slug: "s"},
		Detail: types.DetailPayload{
			Lowongan: &types.ListingDetail{
				Description: "Deskripsi\nlengkap",
				Responsibilities: []types.DetailEntry{
					{Description: "Membuat laporan"},
					{Description: ""},
					{Description: "Mengelola\ndata"},
				},
				Qualifications: []types.QualificationEntry{
					{Category: "pendidikan", Description: "S1 Statistika"},
					{Category: "keahlian_khusus", Description: "SQL"},
				},
				Competencies: []types.DetailEntry{
					{Description: "Analisis data"},
				},
			},
		},
	}

	row := BuildRow(item, testBaseURL)

	assert.Equal(t, "Deskripsi lengkap", row.DetailDescription)
	assert.Equal(t, "Membuat laporan | Mengelola data", row.Responsibilities)
	assert.Equal(t, "[Pendidikan] S1 Statistika | [Keahlian Khusus] SQL", row.Qualifications)
	assert.Equal(t, "Analisis data", row.Competencies)
}

func TestBuildRow_EmptyDetailLists(t *testing.T) {
	item := types.CachedItem{
		ListingSummary: types.ListingSummary{ID: 2, Slug: "t"},
		Detail:         types.DetailPayload{Lowongan: &types.ListingDetail{Description: "only text"}},
	}

	row := BuildRow(item, testBaseURL)
	require.Equal(t, "only text", row.DetailDescription)
	assert.Empty(t, row.Responsibilities)
	assert.Empty(t, row.Qualifications)
	assert.Empty(t, row.Competencies)
}

func TestFoldNewlines(t *testing.T) {
	assert.Equal(t, "a | b", foldNewlines("a\nb", " | "))
	assert.Equal(t, "a b", foldNewlines("  a  \n\n  b  ", " "))
	assert.Equal(t, "plain", foldNewlines("plain", " | "))
	assert.Equal(t, "", foldNewlines("", " | "))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Keahlian Khusus", titleCase("keahlian_khusus"))
	assert.Equal(t, "Pendidikan", titleCase("pendidikan"))
	assert.Equal(t, "", titleCase(""))
}
