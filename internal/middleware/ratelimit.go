package middleware

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/northbeam/leadsite/internal/clientip"
	"github.com/northbeam/leadsite/internal/metrics"
	"github.com/northbeam/leadsite/internal/ratelimit"
)

// RateLimitConfig holds configuration for one rate limit group.
type RateLimitConfig struct {
	Enabled bool
	Group   string
	Limiter ratelimit.Limiter
	Logger  *slog.Logger
	Metrics metrics.Recorder
}

// RateLimit returns middleware that limits requests per client IP within
// cfg.Group. Limiter errors fail open.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled || cfg.Limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientip.FromRequest(r)

			result, err := cfg.Limiter.Allow(r.Context(), ratelimit.Key(cfg.Group, ip))
			if err != nil {
				cfg.Logger.Error("rate limit check failed",
					slog.String("error", err.Error()),
					slog.String("group", cfg.Group),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			setRateLimitHeaders(w, result)

			if !result.Allowed {
				cfg.Logger.Warn("rate limit exceeded",
					slog.String("group", cfg.Group),
					slog.String("ip_hash", clientip.Hash(ip)),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Int("retry_after_seconds", result.RetryAfterSeconds()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				cfg.Metrics.IncRateLimited(cfg.Group)

				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfterSeconds()))
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// setRateLimitHeaders sets standard rate limit response headers.
func setRateLimitHeaders(w http.ResponseWriter, result ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
