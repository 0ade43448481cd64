// Package errtrack reports unexpected errors and panics to Sentry.
// All functions are safe to call when Sentry was never initialised.
package errtrack

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// Options configures the Sentry client.
type Options struct {
	DSN         string
	Environment string
	Release     string
}

// Init configures the global Sentry hub. An empty DSN leaves reporting
// disabled and returns false.
func Init(opts Options) (bool, error) {
	if opts.DSN == "" {
		return false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         opts.DSN,
		Environment: opts.Environment,
		Release:     "leadsite@" + opts.Release,
		BeforeSend:  scrubEvent,
	})
	if err != nil {
		return false, fmt.Errorf("sentry initialization failed: %w", err)
	}
	return true, nil
}

// Flush waits for buffered events to be delivered.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// CaptureError reports err with extra context values.
func CaptureError(err error, extras map[string]any) {
	if err == nil {
		return
	}
	hub := sentry.CurrentHub()
	if hub == nil || hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range extras {
			scope.SetExtra(k, v)
		}
		hub.CaptureException(err)
	})
}

// CaptureRequestError reports err together with safe request details.
func CaptureRequestError(r *http.Request, err error, extras map[string]any) {
	if err == nil {
		return
	}
	hub := sentry.CurrentHub()
	if hub == nil || hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetContext("request", sentry.Context{
			"method":  r.Method,
			"path":    r.URL.Path,
			"headers": SafeHeaders(r.Header),
		})
		scope.SetTag("http.method", r.Method)
		for k, v := range extras {
			scope.SetExtra(k, v)
		}
		hub.CaptureException(err)
	})
}

// SafeHeaders copies h with credentials filtered out.
func SafeHeaders(h http.Header) map[string]any {
	safe := make(map[string]any, len(h))
	for k, v := range h {
		if strings.EqualFold(k, "Authorization") || strings.EqualFold(k, "Cookie") {
			safe[k] = "[FILTERED]"
			continue
		}
		safe[k] = strings.Join(v, ", ")
	}
	return safe
}

// scrubEvent drops the raw client address before an event leaves the process.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User.IPAddress = ""
	if event.Request != nil {
		event.Request.Cookies = ""
		delete(event.Request.Headers, "Authorization")
		delete(event.Request.Headers, "Cookie")
		delete(event.Request.Env, "REMOTE_ADDR")
	}
	return event
}
