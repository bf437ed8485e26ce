// Package ratelimit implements a fixed-window request quota per caller.
//
// Each caller owns a window that opens on its first request and lasts for
// the configured duration. Every request inside the window increments the
// counter, including rejected ones, so a caller that keeps hammering stays
// rejected until the window rolls over.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultMax    = 10
	DefaultWindow = 60 * time.Second
)

// Entry is the state of one caller's current window.
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Store records hits. Hit must open a fresh window (count 1, reset at
// now+window) when none exists or now is past ResetAt, and otherwise
// increment the count and return the updated entry.
type Store interface {
	Hit(ctx context.Context, key string, now time.Time, window time.Duration) (Entry, error)
}

// Result reports the limiter's verdict for one request.
type Result struct {
	Allowed bool
	Count   int
	ResetAt time.Time
}

// Limiter enforces Max requests per Window for each key.
type Limiter struct {
	store  Store
	max    int
	window time.Duration
	now    func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New builds a limiter over store. Non-positive limit or window fall back to
// the defaults.
func New(store Store, limit int, window time.Duration, opts ...Option) *Limiter {
	if limit <= 0 {
		limit = DefaultMax
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{store: store, max: limit, window: window, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records a request for key and reports whether it fits the quota.
func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	entry, err := l.store.Hit(ctx, key, l.now(), l.window)
	if err != nil {
		return Result{}, fmt.Errorf("rate limit %q: %w", key, err)
	}
	return Result{
		Allowed: entry.Count <= l.max,
		Count:   entry.Count,
		ResetAt: entry.ResetAt,
	}, nil
}

// Max returns the number of requests admitted per window.
func (l *Limiter) Max() int { return l.max }

// Window returns the window length.
func (l *Limiter) Window() time.Duration { return l.window }
