// Package ratelimit holds fixed-window limiters for report requests: an
// in-process map for single instances and a Redis counter for fleets.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"carverify/internal/domain"
)

var ErrCapacity = errors.New("rate limiter capacity exceeded")

type MemoryLimiterConfig struct {
	Now     func() time.Time
	MaxKeys int
}

type MemoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	windows map[string]*window
	maxKeys int
}

type window struct {
	used int
	ends time.Time
}

func NewMemoryLimiter(cfg MemoryLimiterConfig) *MemoryLimiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	return &MemoryLimiter{
		now:     cfg.Now,
		windows: make(map[string]*window),
		maxKeys: cfg.MaxKeys,
	}
}

// Allow admits at most limit calls per key in each window. A non-positive
// limit disables limiting.
func (m *MemoryLimiter) Allow(_ context.Context, key string, limit int, d time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || !now.Before(w.ends) {
		if !ok && len(m.windows) >= m.maxKeys {
			m.sweep(now)
			if len(m.windows) >= m.maxKeys {
				return domain.RateLimitDecision{}, ErrCapacity
			}
		}
		w = &window{ends: now.Add(d)}
		m.windows[key] = w
	}

	decision := domain.RateLimitDecision{Limit: limit, ResetAt: w.ends}
	if w.used < limit {
		w.used++
		decision.Allowed = true
		decision.Remaining = limit - w.used
	}
	return decision, nil
}

func (m *MemoryLimiter) sweep(now time.Time) {
	for key, w := range m.windows {
		if !now.Before(w.ends) {
			delete(m.windows, key)
		}
	}
}
