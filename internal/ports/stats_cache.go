package ports

import (
	"context"
	"time"
)

// Generic tag invalidation. Implementations may be no-ops, so callers
// must not depend on invalidation having any effect.
type Invalidator interface {
	Invalidate(ctx context.Context, tag string) error
}

// Port: a short-lived cache of serialized read projections keyed by tag.
type StatsCache interface {
	Invalidator
	// Return the cached value for tag; ok is false on a miss or expiry.
	Get(ctx context.Context, tag string) (value []byte, ok bool, err error)
	Set(ctx context.Context, tag string, value []byte, ttl time.Duration) error
}
