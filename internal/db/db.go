// Package db provides PostgreSQL access for the listing snapshot and run
// metadata. Writes happen only through Reconcile at the end of a crawl; the
// read API consumes the query helpers.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// InitSchema creates the listing and metadata tables and their indexes.
// Statements are idempotent so the command can run against an existing
// database.
func (db *DB) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS lowongan (
			id_lowongan BIGINT PRIMARY KEY,
			posisi TEXT NOT NULL,
			mitra TEXT,
			kategori TEXT,
			jumlah_dibutuhkan INTEGER,
			lokasi_penempatan TEXT,
			deskripsi_singkat TEXT,
			url_detail TEXT UNIQUE,
			deskripsi_detail TEXT NOT NULL DEFAULT '',
			tugas_tanggung_jawab TEXT NOT NULL DEFAULT '',
			kualifikasi TEXT NOT NULL DEFAULT '',
			kompetensi_dikembangkan TEXT NOT NULL DEFAULT '',
			last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS scrape_metadata (
			id SERIAL PRIMARY KEY,
			last_scrape_timestamp TIMESTAMPTZ NOT NULL,
			total_lowongan INTEGER NOT NULL,
			successful_details INTEGER NOT NULL,
			failed_details INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lowongan_posisi ON lowongan(posisi)`,
		`CREATE INDEX IF NOT EXISTS idx_lowongan_mitra ON lowongan(mitra)`,
		`CREATE INDEX IF NOT EXISTS idx_lowongan_kategori ON lowongan(kategori)`,
		`CREATE INDEX IF NOT EXISTS idx_lowongan_lokasi ON lowongan(lokasi_penempatan)`,
		`CREATE INDEX IF NOT EXISTS idx_lowongan_last_updated ON lowongan(last_updated)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
