package ratelimit

import (
	"context"
	"time"
)

// Config bounds requests per key within a sliding window.
type Config struct {
	Limit  int
	Window time.Duration
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Remaining(ctx context.Context, key string) (int64, error)
}
