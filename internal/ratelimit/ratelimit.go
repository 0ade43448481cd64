// Package ratelimit implements fixed-window request limiting keyed by
// client.
//
// Two limiters are provided. Memory keeps counters in process and is only
// correct for a single instance. Redis shares counters between instances.
package ratelimit

import (
	"context"
	"math"
	"time"

	"github.com/northbeam/leadsite/internal/clientip"
)

// Limit groups.
const (
	GroupForms = "forms"
	GroupTools = "tools"
	GroupAdmin = "admin"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Result is the outcome of a single Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RetryAfterSeconds returns RetryAfter as whole seconds for the Retry-After
// header.
func (r Result) RetryAfterSeconds() int {
	return int(r.RetryAfter / time.Second)
}

// Key builds the limiter key for a client IP within a group.
func Key(group, ip string) string {
	return group + ":" + clientip.Hash(ip)
}

// retryAfter rounds the time left in a window up to whole seconds, never
// below one second.
func retryAfter(left time.Duration) time.Duration {
	secs := math.Ceil(left.Seconds())
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

// Option configures a limiter.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
