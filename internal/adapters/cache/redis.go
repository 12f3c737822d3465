package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "delivery-times:stats:"

// Redis backed stats cache shared by every server instance.
type RedisCache struct {
	Client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{Client: client}
}

// NewRedisCacheFromURL parses a redis:// URL and verifies the connection.
func NewRedisCacheFromURL(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis cache: parse url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis cache: ping: %w", err)
	}

	return &RedisCache{Client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, tag string) ([]byte, bool, error) {
	if c.Client == nil {
		return nil, false, errors.New("redis cache: client is nil")
	}

	b, err := c.Client.Get(ctx, redisKeyPrefix+tag).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis cache: get %q: %w", tag, err)
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, tag string, value []byte, ttl time.Duration) error {
	if c.Client == nil {
		return errors.New("redis cache: client is nil")
	}
	if ttl <= 0 {
		return nil
	}

	if err := c.Client.Set(ctx, redisKeyPrefix+tag, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis cache: set %q: %w", tag, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, tag string) error {
	if c.Client == nil {
		return errors.New("redis cache: client is nil")
	}

	if err := c.Client.Del(ctx, redisKeyPrefix+tag).Err(); err != nil {
		return fmt.Errorf("redis cache: del %q: %w", tag, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
