package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/northbeam/leadsite/internal/auth"
	"github.com/northbeam/leadsite/internal/model"
)

// Authenticator checks back-office credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
}

// AdminAuth returns middleware enforcing HTTP Basic auth for admin users.
// isInvalid separates rejected credentials (401) from infrastructure
// failures (500). The authenticated user is stored in the request context.
func AdminAuth(authenticator Authenticator, isInvalid func(error) bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, password, ok := r.BasicAuth()
			if !ok || email == "" || password == "" {
				unauthorized(w)
				return
			}

			user, err := authenticator.Authenticate(r.Context(), email, password)
			if err != nil {
				if isInvalid(err) {
					logger.Warn("admin authentication failed",
						slog.String("request_id", GetRequestID(r.Context())),
					)
					unauthorized(w)
					return
				}
				logger.Error("admin authentication error",
					slog.String("error", err.Error()),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				return
			}

			ctx := auth.ContextWithAuth(r.Context(), &model.AuthContext{
				UserID: user.ID,
				Email:  user.Email,
				Role:   user.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="leadsite admin", charset="UTF-8"`)
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
}
