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

// Postgres backed twin of SqliteStatsCache.
type SQLStatsCache struct {
	DB    *sql.DB
	Clock clockwork.Clock
}

func NewSQLStatsCache(db *sql.DB, clock clockwork.Clock) *SQLStatsCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SQLStatsCache{DB: db, Clock: clock}
}

func (s *SQLStatsCache) Get(ctx context.Context, tag string) ([]byte, bool, error) {
	if s.DB == nil {
		return nil, false, errors.New("stats cache: db is nil")
	}

	var payload []byte
	err := s.DB.QueryRowContext(ctx, `
	SELECT payload
	FROM stats_cache
	WHERE tag = $1 AND expires_at > $2;
	`, tag, s.Clock.Now().Unix()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get stats cache tag=%q: %w", tag, err)
	}

	return payload, true, nil
}

func (s *SQLStatsCache) Set(ctx context.Context, tag string, value []byte, ttl time.Duration) error {
	if s.DB == nil {
		return errors.New("stats cache: db is nil")
	}
	if strings.TrimSpace(tag) == "" {
		return errors.New("insert stats cache: empty tag")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO stats_cache (
		tag,
		payload,
		expires_at
	)
	VALUES ($1, $2, $3)
	ON CONFLICT (tag) DO UPDATE SET
		payload = EXCLUDED.payload,
		expires_at = EXCLUDED.expires_at;
	`, tag, value, s.Clock.Now().Add(ttl).Unix())
	if err != nil {
		return fmt.Errorf("insert stats cache tag=%q: %w", tag, err)
	}

	return nil
}

func (s *SQLStatsCache) Invalidate(ctx context.Context, tag string) error {
	if s.DB == nil {
		return errors.New("stats cache: db is nil")
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM stats_cache WHERE tag = $1;`, tag); err != nil {
		return fmt.Errorf("invalidate stats cache tag=%q: %w", tag, err)
	}
	return nil
}
