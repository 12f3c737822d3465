package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the SQLite database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	createReportsQuery := `
	CREATE TABLE IF NOT EXISTS delivery_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		submitted_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%S', 'now')),
		postcode TEXT NOT NULL,
		outward_sector TEXT NOT NULL,
		delivery_date TEXT NOT NULL,
		minutes_since_midnight INTEGER NOT NULL,
		delivery_type TEXT NOT NULL CHECK (delivery_type IN ('letters', 'parcels', 'both')),
		note TEXT
	);
	`

	createStatsCacheQuery := `
	CREATE TABLE IF NOT EXISTS stats_cache (
		tag TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		expires_at INTEGER NOT NULL
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

func execSchema(db *sql.DB, statements []string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
