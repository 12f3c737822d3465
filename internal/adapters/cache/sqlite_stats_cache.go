package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// SQLite backed cache of serialized stats projections keyed by tag.
// Rows past expires_at read as a miss and are overwritten on the next Set.
type SqliteStatsCache struct {
	DB    *sql.DB
	Clock clockwork.Clock
}

func NewSqliteStatsCache(db *sql.DB, clock clockwork.Clock) *SqliteStatsCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SqliteStatsCache{DB: db, Clock: clock}
}

func (s *SqliteStatsCache) Get(ctx context.Context, tag string) ([]byte, bool, error) {
	if s.DB == nil {
		return nil, false, errors.New("stats cache: db is nil")
	}

	var payload []byte
	err := s.DB.QueryRowContext(ctx, `
	SELECT payload
	FROM stats_cache
	WHERE tag = ? AND expires_at > ?;
	`, tag, s.Clock.Now().Unix()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get stats cache tag=%q: %w", tag, err)
	}

	return payload, true, nil
}

func (s *SqliteStatsCache) Set(ctx context.Context, tag string, value []byte, ttl time.Duration) error {
	if s.DB == nil {
		return errors.New("stats cache: db is nil")
	}
	if strings.TrimSpace(tag) == "" {
		return errors.New("insert stats cache: empty tag")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT OR REPLACE INTO stats_cache (
		tag,
		payload,
		expires_at
	)
	VALUES (?, ?, ?);
	`, tag, value, s.Clock.Now().Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("insert stats cache tag=%q: %w", tag, err)
	}

	return nil
}

func (s *SqliteStatsCache) Invalidate(ctx context.Context, tag string) error {
	if s.DB == nil {
		return errors.New("stats cache: db is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM stats_cache WHERE tag = ?;`, tag); err != nil {
		return fmt.Errorf("invalidate stats cache tag=%q: %w", tag, err)
	}
	return nil
}
