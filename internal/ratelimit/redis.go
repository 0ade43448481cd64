package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/northbeam/leadsite/internal/cache"
)

// WindowCounter is the shared counter store backing the Redis limiter.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (cache.WindowCount, error)
}

// Redis is a fixed-window limiter whose counters live in Redis, so limits
// hold across every API instance. Store failures fail open.
type Redis struct {
	counter WindowCounter
	limit   int
	window  time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

var _ Limiter = (*Redis)(nil)

// NewRedis creates a Redis backed limiter.
func NewRedis(counter WindowCounter, limit int, windowSize time.Duration, logger *slog.Logger, opts ...Option) *Redis {
	o := buildOptions(opts)
	return &Redis{
		counter: counter,
		limit:   limit,
		window:  windowSize,
		logger:  logger,
		now:     o.now,
	}
}

// Allow counts one request against key.
func (l *Redis) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()

	wc, err := l.counter.IncrWindow(ctx, key, l.window)
	if err != nil {
		l.logger.Warn("rate limit store unavailable, allowing request",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return Result{
			Allowed:   true,
			Limit:     l.limit,
			Remaining: l.limit,
			ResetAt:   now.Add(l.window),
		}, nil
	}

	resetAt := now.Add(wc.ResetIn)

	if wc.Count > int64(l.limit) {
		return Result{
			Allowed:    false,
			Limit:      l.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(wc.ResetIn),
		}, nil
	}

	return Result{
		Allowed:   true,
		Limit:     l.limit,
		Remaining: l.limit - int(wc.Count),
		ResetAt:   resetAt,
	}, nil
}
