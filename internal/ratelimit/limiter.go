package ratelimit

import "context"

// RateLimiter caps how many actions a key may take per window.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Nop allows everything. It stands in when no limiter is configured.
type Nop struct{}

func (Nop) Allow(context.Context, string) (bool, error) { return true, nil }
