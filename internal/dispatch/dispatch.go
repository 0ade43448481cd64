// Package dispatch runs fire-and-forget side effects (email, CRM) off the
// request path. Failures are logged and counted, never returned.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/northbeam/leadsite/internal/errtrack"
	"github.com/northbeam/leadsite/internal/metrics"
)

// Task is one side effect. ctx carries the per-task timeout.
type Task func(ctx context.Context) error

// Runner executes tasks in background goroutines.
type Runner struct {
	logger  *slog.Logger
	metrics metrics.Recorder
	timeout time.Duration

	// base is cancelled when Shutdown gives up waiting.
	base   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a Runner. Each task gets timeout to finish.
func New(timeout time.Duration, logger *slog.Logger, recorder metrics.Recorder) *Runner {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	base, cancel := context.WithCancel(context.Background())
	return &Runner{
		logger:  logger.With("component", "dispatch"),
		metrics: recorder,
		timeout: timeout,
		base:    base,
		cancel:  cancel,
	}
}

// Go schedules fn under kind (e.g. "mail.autoreply"). It returns false when
// the runner is shutting down and the task was dropped.
func (r *Runner) Go(kind string, fn Task) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("side effect dropped during shutdown", "kind", kind)
		r.metrics.IncSideEffect(kind, metrics.StatusDropped)
		return false
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		r.run(kind, fn)
	}()
	return true
}

func (r *Runner) run(kind string, fn Task) {
	ctx, cancel := context.WithTimeout(r.base, r.timeout)
	defer cancel()

	start := time.Now()
	err := safeCall(ctx, fn)
	duration := time.Since(start)

	if err != nil {
		r.logger.Warn("side effect failed",
			"kind", kind,
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		r.metrics.IncSideEffect(kind, metrics.StatusFailed)
		errtrack.CaptureError(err, map[string]any{"kind": kind})
		return
	}

	r.logger.Debug("side effect done", "kind", kind, "duration_ms", duration.Milliseconds())
	r.metrics.IncSideEffect(kind, metrics.StatusSuccess)
}

func safeCall(ctx context.Context, fn Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx)
}

// Shutdown stops accepting tasks and waits for in-flight ones. When ctx
// expires first, running tasks are cancelled and ctx.Err() is returned.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
