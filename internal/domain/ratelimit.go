package domain

import (
	"context"
	"time"
)

// RateLimitDecision describes one admission check against a fixed window.
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimiter admits report requests per caller key. Each report costs a paid
// registry search, so the HTTP edge checks this before generating anything.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error)
}
