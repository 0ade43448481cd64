package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/northbeam/leadsite/internal/errtrack"
)

// Recoverer is a middleware that recovers from panics.
// It logs and reports the panic and returns a 500 JSON error.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				requestID := GetRequestID(r.Context())
				logger.Error("panic recovered",
					slog.String("request_id", requestID),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)
				errtrack.CaptureRequestError(r, fmt.Errorf("panic: %v", rvr), map[string]any{
					"request_id": requestID,
				})

				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
