package cache

import (
	"context"
	"delivery-times-service/internal/adapters/repositories"
	"delivery-times-service/internal/platform/db"
	"delivery-times-service/internal/ports"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.StatsCache = NoopCache{}
	_ ports.StatsCache = (*MemoryCache)(nil)
	_ ports.StatsCache = (*SqliteStatsCache)(nil)
	_ ports.StatsCache = (*SQLStatsCache)(nil)
	_ ports.StatsCache = (*RedisCache)(nil)
)

func TestNoopCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := NoopCache{}

	require.NoError(t, c.Set(ctx, "global-stats", []byte("x"), time.Minute))
	_, ok, err := c.Get(ctx, "global-stats")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx, "global-stats"))
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	c := NewMemoryCache(clock)

	require.NoError(t, c.Set(ctx, "global-stats", []byte(`{"a":1}`), 5*time.Minute))

	got, ok, err := c.Get(ctx, "global-stats")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), got)

	clock.Advance(4*time.Minute + 59*time.Second)
	_, ok, _ = c.Get(ctx, "global-stats")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok, _ = c.Get(ctx, "global-stats")
	assert.False(t, ok)
}

func TestMemoryCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(clockwork.NewFakeClock())

	require.NoError(t, c.Set(ctx, "global-stats", []byte("x"), time.Minute))
	require.NoError(t, c.Invalidate(ctx, "global-stats"))

	_, ok, err := c.Get(ctx, "global-stats")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSqliteStatsCache(t *testing.T) {
	ctx := context.Background()

	conn, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, repositories.InitSchema(conn))

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	c := NewSqliteStatsCache(conn, clock)

	_, ok, err := c.Get(ctx, "global-stats")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "global-stats", []byte("first"), time.Minute))
	require.NoError(t, c.Set(ctx, "global-stats", []byte("second"), time.Minute))

	got, ok, err := c.Get(ctx, "global-stats")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got)

	clock.Advance(time.Minute)
	_, ok, err = c.Get(ctx, "global-stats")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "global-stats", []byte("third"), time.Minute))
	require.NoError(t, c.Invalidate(ctx, "global-stats"))
	_, ok, err = c.Get(ctx, "global-stats")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Error(t, c.Set(ctx, " ", []byte("x"), time.Minute))
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisCache(client)
	t.Cleanup(func() { _ = c.Close() })

	_, ok, err := c.Get(ctx, "global-stats")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "global-stats", []byte(`{"totals":{}}`), 5*time.Minute))
	assert.True(t, mr.Exists(redisKeyPrefix+"global-stats"))
	assert.Equal(t, 5*time.Minute, mr.TTL(redisKeyPrefix+"global-stats"))

	got, ok, err := c.Get(ctx, "global-stats")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`{"totals":{}}`), got)

	mr.FastForward(5 * time.Minute)
	_, ok, err = c.Get(ctx, "global-stats")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "global-stats", []byte("x"), time.Minute))
	require.NoError(t, c.Invalidate(ctx, "global-stats"))
	assert.False(t, mr.Exists(redisKeyPrefix+"global-stats"))
}

func TestNewRedisCacheFromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := NewRedisCacheFromURL(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer c.Close()

	_, err = NewRedisCacheFromURL(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestRedisCacheReportsServerErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer c.Close()

	mr.SetError("boom")
	_, _, err := c.Get(context.Background(), "global-stats")
	assert.Error(t, err)
}
