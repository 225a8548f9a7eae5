package core

import (
	"context"
	"time"
)

// RateLimiter allows at most limit calls per key within window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}
