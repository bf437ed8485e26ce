package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore keeps windows in process memory. Counters are not shared
// between processes, so N instances admit up to N times the quota.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

// Hit implements Store.
func (m *MemoryStore) Hit(_ context.Context, key string, now time.Time, window time.Duration) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || now.After(entry.ResetAt) {
		entry = Entry{Count: 1, ResetAt: now.Add(window)}
	} else {
		entry.Count++
	}
	m.entries[key] = entry
	return entry, nil
}

// Sweep drops every window that has already expired at now and returns how
// many were removed.
func (m *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, entry := range m.entries {
		if now.After(entry.ResetAt) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked callers.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweeper is a store that can evict expired windows.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

// RunJanitor sweeps s every interval until ctx is done.
func RunJanitor(ctx context.Context, s Sweeper, interval time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultWindow
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			removed, err := s.Sweep(ctx, now)
			if err != nil {
				logger.Warn("rate limit sweep failed", slog.String("error", err.Error()))
				continue
			}
			if removed > 0 {
				logger.Debug("rate limit windows evicted", slog.Int("count", removed))
			}
		}
	}
}
