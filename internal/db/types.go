package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/magang-agent/internal/types"
)

// fieldSeparator joins multi-valued detail fields into a single column.
const fieldSeparator = " | "

// Listing is the summary row shape returned by list queries. JSON tags keep
// the read-API contract of the upstream field names.
type Listing struct {
	ID               int64     `json:"id_lowongan"`
	Position         string    `json:"posisi"`
	Partner          string    `json:"mitra"`
	Category         string    `json:"kategori"`
	Headcount        int       `json:"jumlah_dibutuhkan"`
	Location         string    `json:"lokasi_penempatan"`
	ShortDescription string    `json:"deskripsi_singkat"`
	DetailURL        string    `json:"url_detail"`
	LastUpdated      time.Time `json:"last_updated"`
}

// ListingDetail is the full row shape: summary fields plus the flattened
// detail columns. Detail columns are empty strings for summary-only items,
// never null.
type ListingDetail struct {
	Listing
	DetailDescription string    `json:"deskripsi_detail"`
	Responsibilities  string    `json:"tugas_tanggung_jawab"`
	Qualifications    string    `json:"kualifikasi"`
	Competencies      string    `json:"kompetensi_dikembangkan"`
	CreatedAt         time.Time `json:"created_at"`
}

// RunMetadata is the single-row run log kept in scrape_metadata. Only the
// latest run's metadata is retained.
type RunMetadata struct {
	ScrapedAt         time.Time `json:"last_scrape_timestamp"`
	Total             int       `json:"total_lowongan"`
	SuccessfulDetails int       `json:"successful_details"`
	FailedDetails     int       `json:"failed_details"`
}

// BuildRow flattens a cached item into a persistable row. Multi-valued
// detail lists are joined with the field separator; embedded newlines are
// folded so every column is a single line.
func BuildRow(item types.CachedItem, baseURL string) ListingDetail {
	row := ListingDetail{
		Listing: Listing{
			ID:               item.ID,
			Position:         item.Position,
			Partner:          item.Partner,
			Category:         item.Category,
			Headcount:        item.Headcount,
			Location:         foldNewlines(item.Location, fieldSeparator),
			ShortDescription: foldNewlines(item.Description, " "),
			DetailURL:        fmt.Sprintf("%s/%s", baseURL, item.Slug),
		},
	}

	detail := item.Detail.Lowongan
	if detail == nil {
		return row
	}

	row.DetailDescription = foldNewlines(detail.Description, " ")

	var tasks []string
	for _, t := range detail.Responsibilities {
		if t.Description != "" {
			tasks = append(tasks, foldNewlines(t.Description, " "))
		}
	}
	row.Responsibilities = strings.Join(tasks, fieldSeparator)

	var quals []string
	for _, q := range detail.Qualifications {
		if q.Description != "" {
			quals = append(quals, fmt.Sprintf("[%s] %s", titleCase(q.Category), foldNewlines(q.Description, " ")))
		}
	}
	row.Qualifications = strings.Join(quals, fieldSeparator)

	var comps []string
	for _, c := range detail.Competencies {
		if c.Description != "" {
			comps = append(comps, foldNewlines(c.Description, " "))
		}
	}
	row.Competencies = strings.Join(comps, fieldSeparator)

	return row
}

// foldNewlines replaces newlines with the given separator and trims the ends.
func foldNewlines(s, sep string) string {
	lines := strings.Split(s, "\n")
	var parts []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, sep)
}

// titleCase turns a snake_case sub-category tag into a display label,
// e.g. "keahlian_khusus" -> "Keahlian Khusus".
func titleCase(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
