package repositories

import (
	"database/sql"
	"errors"
)

// Initialize the Postgres database schema.
func InitPostgresSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	createReportsQuery := `
	CREATE TABLE IF NOT EXISTS delivery_reports (
		id BIGSERIAL PRIMARY KEY,
		submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		postcode TEXT NOT NULL,
		outward_sector TEXT NOT NULL,
		delivery_date DATE NOT NULL,
		minutes_since_midnight INTEGER NOT NULL,
		delivery_type TEXT NOT NULL CHECK (delivery_type IN ('letters', 'parcels', 'both')),
		note TEXT
	);
	`

	createStatsCacheQuery := `
	CREATE TABLE IF NOT EXISTS stats_cache (
		tag TEXT PRIMARY KEY,
		payload BYTEA NOT NULL,
		expires_at BIGINT NOT NULL
	);
	`

	statements := []string{
		createReportsQuery,
		createStatsCacheQuery,
		`CREATE INDEX IF NOT EXISTS idx_delivery_reports_postcode ON delivery_reports(postcode);`,
		`CREATE INDEX IF NOT EXISTS idx_delivery_reports_sector ON delivery_reports(outward_sector);`,
		`CREATE INDEX IF NOT EXISTS idx_delivery_reports_date ON delivery_reports(delivery_date);`,
	}

	return execSchema(db, statements)
}
