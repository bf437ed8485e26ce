package sqlite

import (
	"context"
	"fmt"
	"time"

	"taskboard/internal/ratelimit"
)

// RateLimits keeps fixed-window counters in the database so every process
// sharing the file enforces one quota.
type RateLimits struct {
	store *Store
}

// RateLimits returns the shared counter store.
func (s *Store) RateLimits() *RateLimits {
	return &RateLimits{store: s}
}

// Hit implements ratelimit.Store. The upsert evaluates both CASE arms
// against the row as it was before the statement.
func (r *RateLimits) Hit(ctx context.Context, key string, now time.Time, window time.Duration) (ratelimit.Entry, error) {
	nowMS := now.UnixMilli()
	resetMS := now.Add(window).UnixMilli()

	var count int
	var resetAt int64
	err := r.store.db.QueryRowContext(ctx, `INSERT INTO rate_limits(bucket, hits, reset_at) VALUES(?, 1, ?)
        ON CONFLICT(bucket) DO UPDATE SET
            hits = CASE WHEN ? > rate_limits.reset_at THEN 1 ELSE rate_limits.hits + 1 END,
            reset_at = CASE WHEN ? > rate_limits.reset_at THEN excluded.reset_at ELSE rate_limits.reset_at END
        RETURNING hits, reset_at`, key, resetMS, nowMS, nowMS).Scan(&count, &resetAt)
	if err != nil {
		return ratelimit.Entry{}, fmt.Errorf("hit rate limit: %w", err)
	}
	return ratelimit.Entry{Count: count, ResetAt: time.UnixMilli(resetAt).UTC()}, nil
}

// Sweep implements ratelimit.Sweeper.
func (r *RateLimits) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM rate_limits WHERE reset_at < ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sweep rate limits: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
