package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/jonathan/magang-agent/internal/types"
)

// ReconcileResult summarizes what a reconciliation changed.
type ReconcileResult struct {
	Upserted          int
	Deleted           int
	SuccessfulDetails int
	FailedDetails     int
}

// Reconcile merges the cache contents and the run's valid key set into the
// store as one transaction: every cached item is upserted, rows whose
// identifier is absent from validIDs are deleted, and the run metadata row
// is replaced. Running the upserts and the deletion sweep in the same
// transaction means the read API never observes a half-reconciled snapshot.
func (db *DB) Reconcile(ctx context.Context, items []types.CachedItem, validIDs map[int64]struct{}, baseURL string) (*ReconcileResult, error) {
	if len(items) == 0 {
		// An empty snapshot means the crawl yielded nothing; leave the
		// store as it was rather than failing the run.
		zap.S().Named("db").Warn("no items to reconcile, leaving store untouched")
		return &ReconcileResult{}, nil
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res := &ReconcileResult{}
	now := time.Now()

	for _, item := range items {
		row := BuildRow(item, baseURL)
		if item.Complete() {
			res.SuccessfulDetails++
		} else {
			res.FailedDetails++
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO lowongan (
				id_lowongan, posisi, mitra, kategori, jumlah_dibutuhkan,
				lokasi_penempatan, deskripsi_singkat, url_detail,
				deskripsi_detail, tugas_tanggung_jawab, kualifikasi,
				kompetensi_dikembangkan, last_updated
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (id_lowongan) DO UPDATE SET
				posisi = EXCLUDED.posisi,
				mitra = EXCLUDED.mitra,
				kategori = EXCLUDED.kategori,
				jumlah_dibutuhkan = EXCLUDED.jumlah_dibutuhkan,
				lokasi_penempatan = EXCLUDED.lokasi_penempatan,
				deskripsi_singkat = EXCLUDED.deskripsi_singkat,
				url_detail = EXCLUDED.url_detail,
				deskripsi_detail = EXCLUDED.deskripsi_detail,
				tugas_tanggung_jawab = EXCLUDED.tugas_tanggung_jawab,
				kualifikasi = EXCLUDED.kualifikasi,
				kompetensi_dikembangkan = EXCLUDED.kompetensi_dikembangkan,
				last_updated = EXCLUDED.last_updated`,
			row.ID, row.Position, row.Partner, row.Category, row.Headcount,
			row.Location, row.ShortDescription, row.DetailURL,
			row.DetailDescription, row.Responsibilities, row.Qualifications,
			row.Competencies, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert listing %d: %w", row.ID, err)
		}
		res.Upserted++
	}

	// An empty key set would wipe the table; it can only come from a crawl
	// that produced no valid items, so skip the sweep in that case.
	if len(validIDs) > 0 {
		ids := make([]int64, 0, len(validIDs))
		for id := range validIDs {
			ids = append(ids, id)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM lowongan WHERE NOT (id_lowongan = ANY($1))`, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to delete stale listings: %w", err)
		}
		res.Deleted = int(tag.RowsAffected())
	}

	// Keep only the latest run's metadata.
	if _, err := tx.Exec(ctx, `DELETE FROM scrape_metadata`); err != nil {
		return nil, fmt.Errorf("failed to clear run metadata: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO scrape_metadata (last_scrape_timestamp, total_lowongan, successful_details, failed_details)
		 VALUES ($1, $2, $3, $4)`,
		now, res.Upserted, res.SuccessfulDetails, res.FailedDetails,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record run metadata: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reconciliation: %w", err)
	}
	return res, nil
}

// ListListingsOptions contains filters for listing queries.
type ListListingsOptions struct {
	Query    string // Free-text search across position, partner and category
	Location string
	Partner  string
	Category string
	Limit    int
	Offset   int
}

// ListListings returns a filtered, paginated page of listing summaries plus
// the total number of rows matching the filters.
func (db *DB) ListListings(ctx context.Context, opts ListListingsOptions) ([]Listing, int, error) {
	// Build WHERE clause dynamically
	var conditions []string
	var args []interface{}
	argIndex := 1

	if opts.Query != "" {
		conditions = append(conditions,
			fmt.Sprintf("(posisi ILIKE $%d OR mitra ILIKE $%d OR kategori ILIKE $%d)", argIndex, argIndex, argIndex))
		args = append(args, "%"+opts.Query+"%")
		argIndex++
	}
	if opts.Location != "" {
		conditions = append(conditions, fmt.Sprintf("lokasi_penempatan ILIKE $%d", argIndex))
		args = append(args, "%"+opts.Location+"%")
		argIndex++
	}
	if opts.Partner != "" {
		conditions = append(conditions, fmt.Sprintf("mitra ILIKE $%d", argIndex))
		args = append(args, "%"+opts.Partner+"%")
		argIndex++
	}
	if opts.Category != "" {
		conditions = append(conditions, fmt.Sprintf("kategori ILIKE $%d", argIndex))
		args = append(args, "%"+opts.Category+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM lowongan %s", whereClause)
	var total int
	if err := db.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT id_lowongan, posisi, mitra, kategori, jumlah_dibutuhkan,
		        lokasi_penempatan, deskripsi_singkat, url_detail, last_updated
		 FROM lowongan %s
		 ORDER BY last_updated DESC, id_lowongan DESC
		 LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var l Listing
		if err := rows.Scan(&l.ID, &l.Position, &l.Partner, &l.Category, &l.Headcount,
			&l.Location, &l.ShortDescription, &l.DetailURL, &l.LastUpdated); err != nil {
			return nil, 0, err
		}
		listings = append(listings, l)
	}
	return listings, total, rows.Err()
}

// GetListing returns the full row for an identifier, or nil when absent.
func (db *DB) GetListing(ctx context.Context, id int64) (*ListingDetail, error) {
	var l ListingDetail
	err := db.pool.QueryRow(ctx,
		`SELECT id_lowongan, posisi, mitra, kategori, jumlah_dibutuhkan,
		        lokasi_penempatan, deskripsi_singkat, url_detail, last_updated,
		        deskripsi_detail, tugas_tanggung_jawab, kualifikasi,
		        kompetensi_dikembangkan, created_at
		 FROM lowongan WHERE id_lowongan = $1`,
		id,
	).Scan(&l.ID, &l.Position, &l.Partner, &l.Category, &l.Headcount,
		&l.Location, &l.ShortDescription, &l.DetailURL, &l.LastUpdated,
		&l.DetailDescription, &l.Responsibilities, &l.Qualifications,
		&l.Competencies, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing %d: %w", id, err)
	}
	return &l, nil
}

// Categories returns the distinct category values, sorted.
func (db *DB) Categories(ctx context.Context) ([]string, error) {
	return db.distinct(ctx, "kategori")
}

// Partners returns the distinct partner values, sorted.
func (db *DB) Partners(ctx context.Context) ([]string, error) {
	return db.distinct(ctx, "mitra")
}

func (db *DB) distinct(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(
		`SELECT DISTINCT %s FROM lowongan WHERE %s IS NOT NULL AND %s != '' ORDER BY %s`,
		column, column, column, column)
	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
