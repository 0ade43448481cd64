package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// Memory is an in-process fixed-window limiter. A key's window opens with
// its first request and lasts for the configured duration; once limit
// requests have been admitted, further requests are rejected until the
// window closes.
type Memory struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

var _ Limiter = (*Memory)(nil)

// NewMemory creates a limiter admitting limit requests per key per window.
func NewMemory(limit int, windowSize time.Duration, opts ...Option) *Memory {
	o := buildOptions(opts)
	return &Memory{
		limit:   limit,
		window:  windowSize,
		now:     o.now,
		windows: make(map[string]*window),
	}
}

// Allow counts one request against key.
func (m *Memory) Allow(_ context.Context, key string) (Result, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.window)}
		m.windows[key] = w
	}

	if w.count >= m.limit {
		return Result{
			Allowed:    false,
			Limit:      m.limit,
			Remaining:  0,
			ResetAt:    w.resetAt,
			RetryAfter: retryAfter(w.resetAt.Sub(now)),
		}, nil
	}

	w.count++
	return Result{
		Allowed:   true,
		Limit:     m.limit,
		Remaining: m.limit - w.count,
		ResetAt:   w.resetAt,
	}, nil
}

// Sweep drops windows that have closed and returns how many were removed.
func (m *Memory) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// Run sweeps expired windows every interval until ctx is cancelled.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
