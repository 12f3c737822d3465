package cache

import (
	"context"
	"time"
)

// NoopCache never stores anything; every Get is a miss.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool, error)         { return nil, false, nil }
func (NoopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NoopCache) Invalidate(context.Context, string) error                 { return nil }
