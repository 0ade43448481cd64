package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateLimitPrefix is the Redis key prefix for fixed-window counters.
const rateLimitPrefix = keyPrefix + "ratelimit:"

// fixedWindowScript increments the counter for the current window. The
// expiry is set only by the request that opens the window, so the window
// starts at the first request and every key lives exactly one window.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local window_ms = tonumber(ARGV[1])

	local count = redis.call('INCR', key)
	if count == 1 then
		redis.call('PEXPIRE', key, window_ms)
	end

	local ttl = redis.call('PTTL', key)
	if ttl < 0 then
		redis.call('PEXPIRE', key, window_ms)
		ttl = window_ms
	end

	return {count, ttl}
`)

// WindowCount is the state of a fixed-window counter after an increment.
type WindowCount struct {
	Count   int64
	ResetIn time.Duration
}

// IncrWindow atomically counts one request against key for the window that
// contains now.
func (c *Cache) IncrWindow(ctx context.Context, key string, window time.Duration) (WindowCount, error) {
	if window <= 0 {
		return WindowCount{}, fmt.Errorf("invalid window %s", window)
	}

	res, err := fixedWindowScript.Run(ctx, c.client,
		[]string{rateLimitPrefix + key},
		window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return WindowCount{}, fmt.Errorf("fixed window script: %w", err)
	}
	if len(res) != 2 {
		return WindowCount{}, fmt.Errorf("fixed window script: unexpected reply length %d", len(res))
	}

	return WindowCount{
		Count:   res[0],
		ResetIn: time.Duration(res[1]) * time.Millisecond,
	}, nil
}
