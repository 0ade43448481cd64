// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/northbeam/leadsite/internal/clientip"
	"github.com/northbeam/leadsite/internal/errtrack"
	"github.com/northbeam/leadsite/internal/handler/dto"
	"github.com/northbeam/leadsite/internal/middleware"
	"github.com/northbeam/leadsite/internal/model"
	"github.com/northbeam/leadsite/internal/repository"
	"github.com/northbeam/leadsite/internal/service"
	"github.com/northbeam/leadsite/internal/validation"
)

// Handler serves service info and the JSON fallbacks for unknown routes.
type Handler struct {
	version string
}

// New creates a new Handler instance.
func New(version string) *Handler {
	return &Handler{version: version}
}

// Hello reports the service name and version.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"service": "leadsite",
		"version": h.version,
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// internalErrorBody is sent when a response cannot be encoded.
var internalErrorBody = []byte(`{"success":false,"error":"An internal error occurred","code":"INTERNAL_ERROR"}` + "\n")

// writeJSON writes a JSON response with the given status code. Values that
// cannot be encoded produce a 500.
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("response_encode_failed", "error", err)
		errtrack.CaptureError(err, nil)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(internalErrorBody)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Success: false,
		Error:   message,
		Code:    code,
	})
}

// decodeJSON reads the request body into v. On failure it writes the
// error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return true
	case middleware.IsBodyTooLarge(err):
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is required")
	default:
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
	}
	return false
}

func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		IP:        clientip.FromRequest(r),
		UserAgent: r.UserAgent(),
	}
}

// respondError maps service errors to HTTP responses. Anything unknown is
// logged, reported and answered with a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *validation.Error
	var cerr *service.CalculationError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message)
	case errors.As(err, &cerr):
		writeError(w, http.StatusBadRequest, "CALCULATION_ERROR", cerr.Error())
	case errors.Is(err, service.ErrUnknownTool):
		writeError(w, http.StatusNotFound, "UNKNOWN_TOOL", "Unknown calculator")
	case errors.Is(err, service.ErrAssessmentNotFound):
		writeError(w, http.StatusNotFound, "ASSESSMENT_NOT_FOUND", "Assessment not found")
	case errors.Is(err, model.ErrAssessmentCompleted):
		writeError(w, http.StatusConflict, "ASSESSMENT_COMPLETED", "Assessment already completed")
	case errors.Is(err, service.ErrMissingToken):
		writeError(w, http.StatusBadRequest, "MISSING_TOKEN", "Token is required")
	case errors.Is(err, repository.ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, "INVALID_CURSOR", "Invalid pagination cursor")
	case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrInvalidToolFilter):
		writeError(w, http.StatusBadRequest, "INVALID_FILTER", err.Error())
	default:
		requestID := middleware.GetRequestID(r.Context())
		logger.ErrorContext(r.Context(), "internal_error",
			"error", err,
			"path", r.URL.Path,
			"request_id", requestID,
		)
		errtrack.CaptureRequestError(r, err, map[string]any{"request_id": requestID})
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
