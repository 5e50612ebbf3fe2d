// Package ratelimit paces outbound TAXII requests so a feed's configured
// requests-per-minute cap is respected across worker instances.
package ratelimit

import (
	"context"
	"time"
)

// Config holds the per-key request caps. A zero limit disables the window.
type Config struct {
	RequestsPerMinute int
	RequestsPerHour   int
}

// RateLimiter answers whether another request may be sent for a key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, config Config) (bool, error)
	GetRemaining(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}
