// Package ratelimit throttles API calls per tenant. Each tenant's hourly
// call budget comes from its plan (the max_api_calls_per_hour limit); the
// counter is a fixed one-hour window shared across instances when backed by
// Redis.
package ratelimit

import (
	"context"
	"errors"
	"time"
)

// DefaultWindow matches the per-hour unit the call budgets are defined in.
const DefaultWindow = time.Hour

var (
	ErrStoreRequired = errors.New("ratelimit: store is required")
	ErrKeyRequired   = errors.New("ratelimit: key is required")
)

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// RetryAfter returns how long to wait before the next allowed request, or
// zero when the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Store is a fixed-window counter backend. Increment bumps the key's
// counter, starting the window on first increment, and returns the new
// count and the time left in the window.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)
	Reset(ctx context.Context, key string) error
}

// Limiter applies per-key call budgets over a fixed window.
type Limiter struct {
	store  Store
	window time.Duration
}

// NewLimiter creates a limiter with the default one-hour window.
func NewLimiter(store Store) (*Limiter, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &Limiter{store: store, window: DefaultWindow}, nil
}

// Allow consumes one call from the key's budget. A negative limit means
// unlimited and skips the store entirely.
func (l *Limiter) Allow(ctx context.Context, key string, limit int64) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	if limit < 0 {
		return &Result{Allowed: true, Limit: limit, Remaining: -1}, nil
	}

	count, ttl, err := l.store.Increment(ctx, key, l.window)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: max(0, limit-count),
		ResetAt:   time.Now().Add(ttl),
	}, nil
}

// Reset clears the key's window, for tests and operator intervention.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return l.store.Reset(ctx, key)
}
