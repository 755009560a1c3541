// Package types provides type definitions for structured data used throughout the magang-agent system.
package types

// ListingSummary is a single internship vacancy as it appears on a listing
// page. Field tags follow the upstream (Indonesian) JSON payload.
type ListingSummary struct {
	ID          int64  `json:"id_lowongan"`
	Slug        string `json:"slug"`
	Position    string `json:"posisi_magang"`
	Partner     string `json:"mitra"`
	Category    string `json:"kategori_posisi"`
	Headcount   int    `json:"jumlah"`
	Location    string `json:"lokasi_penempatan"`
	Description string `json:"deskripsi"`
}

// DetailEntry is one free-text entry in a detail list (responsibilities,
// competencies).
type DetailEntry struct {
	Description string `json:"deskripsi"`
}

// QualificationEntry is a qualification requirement tagged with its
// sub-category (e.g. "pendidikan", "keahlian_khusus").
type QualificationEntry struct {
	Category    string `json:"kategori"`
	Description string `json:"deskripsi"`
}

// ListingDetail is the nested vacancy object from a detail page.
type ListingDetail struct {
	Description      string               `json:"deskripsi"`
	Responsibilities []DetailEntry        `json:"lowongan_tanggung_jawab"`
	Qualifications   []QualificationEntry `json:"lowongan_kriteria"`
	Competencies     []DetailEntry        `json:"lowongan_capaian"`
}

// DetailPayload is the props object of a detail page response. Lowongan is
// nil when the detail fetch never succeeded.
type DetailPayload struct {
	Lowongan *ListingDetail `json:"lowongan,omitempty"`
}

// CachedItem is the persisted cache unit: a listing summary merged with its
// detail payload. The cache key is the slug.
type CachedItem struct {
	ListingSummary
	Detail DetailPayload `json:"detail"`
}

// Complete reports whether the item carries a fetched detail payload.
// Items with an empty payload are summary-only and eligible for retry.
func (c *CachedItem) Complete() bool {
	return c.Detail.Lowongan != nil
}
