package repositories

import (
	"context"
	"database/sql"
	"delivery-times-service/internal/platform/db"
	"delivery-times-service/internal/ports"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Storage bundles the open database handle with its report repository.
type Storage struct {
	DB       *sql.DB
	Reports  ports.ReportRepository
	Postgres bool
}

// StorageOptions selects and locates the report database.
type StorageOptions struct {
	Postgres       bool
	DatabaseURL    string
	SQLitePath     string
	ConnectTimeout time.Duration
}

// OpenStorage connects to Postgres when opts.Postgres is set and otherwise
// to the SQLite file at opts.SQLitePath, then ensures the schema exists.
func OpenStorage(ctx context.Context, opts StorageOptions) (*Storage, error) {
	if opts.Postgres {
		conn, err := db.Open(ctx, opts.DatabaseURL, opts.ConnectTimeout)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		if err := InitPostgresSchema(conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("open storage: %w", err)
		}
		return &Storage{DB: conn, Reports: NewSQLReportRepository(conn), Postgres: true}, nil
	}

	sqlitePath := opts.SQLitePath
	if sqlitePath != ":memory:" {
		if dir := filepath.Dir(sqlitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("open storage: create %q: %w", dir, err)
			}
		}
	}

	conn, err := db.OpenSQLite(sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := InitSchema(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return &Storage{DB: conn, Reports: NewSqliteReportRepository(conn)}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
