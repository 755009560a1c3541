package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingSummary_UnmarshalUpstreamPayload(t *testing.T) {
	payload := `{
		"id_lowongan": 4821,
		"slug": "backend-engineer-pt-alpha-4821",
		"posisi_magang": "Backend Engineer",
		"mitra": "PT Alpha",
		"kategori_posisi": "Teknologi Informasi",
		"jumlah": 3,
		"lokasi_penempatan": "Jakarta Selatan",
		"deskripsi": "Magang pengembangan backend"
	}`

	var s ListingSummary
	require.NoError(t, json.Unmarshal([]byte(payload), &s))
	assert.Equal(t, int64(4821), s.ID)
	assert.Equal(t, "backend-engineer-pt-alpha-4821", s.Slug)
	assert.Equal(t, "Backend Engineer", s.Position)
	assert.Equal(t, 3, s.Headcount)
}

func TestListingDetail_UnmarshalNestedLists(t *testing.T) {
	payload := `{
		"deskripsi": "Deskripsi lengkap",
		"lowongan_tanggung_jawab": [{"deskripsi": "Membuat API"}],
		"lowongan_kriteria": [{"kategori": "pendidikan", "deskripsi": "S1"}],
		"lowongan_capaian": [{"deskripsi": "Rekayasa perangkat lunak"}]
	}`

	var d ListingDetail
	require.NoError(t, json.Unmarshal([]byte(payload), &d))
	require.Len(t, d.Responsibilities, 1)
	require.Len(t, d.Qualifications, 1)
	assert.Equal(t, "pendidikan", d.Qualifications[0].Category)
	require.Len(t, d.Competencies, 1)
}

func TestCachedItem_Complete(t *testing.T) {
	item := CachedItem{ListingSummary: ListingSummary{ID: 1, Slug: "a"}}
	assert.False(t, item.Complete())

	item.Detail.Lowongan = &ListingDetail{Description: "x"}
	assert.True(t, item.Complete())
}
