package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/northbeam/leadsite/internal/auth"
	"github.com/northbeam/leadsite/internal/handler/dto"
	"github.com/northbeam/leadsite/internal/repository"
	"github.com/northbeam/leadsite/internal/service"
)

// AdminHandler exposes the collected leads to back-office users.
// Routes are mounted behind middleware.AdminAuth.
type AdminHandler struct {
	svc    *service.AdminService
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{svc: svc, logger: logger}
}

// pageParams reads cursor and limit. A limit outside 1..MaxPageSize is
// rejected rather than clamped.
func pageParams(w http.ResponseWriter, r *http.Request) (cursor string, limit int, ok bool) {
	query := r.URL.Query()
	limit = repository.DefaultPageSize
	if l := query.Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 || parsed > repository.MaxPageSize {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be between 1 and "+strconv.Itoa(repository.MaxPageSize))
			return "", 0, false
		}
		limit = parsed
	}
	return query.Get("cursor"), limit, true
}

// logAccess records which back-office user read which lead list.
func (h *AdminHandler) logAccess(r *http.Request, resource string, count int) {
	h.logger.InfoContext(r.Context(), "admin_list",
		"user_id", auth.UserIDFromContext(r.Context()),
		"resource", resource,
		"count", count,
	)
}

// ListContacts handles GET /api/admin/contacts.
func (h *AdminHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	cursor, limit, ok := pageParams(w, r)
	if !ok {
		return
	}

	page, err := h.svc.ListContacts(r.Context(), cursor, limit)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.logAccess(r, "contacts", len(page.Items))
	writeJSON(w, http.StatusOK, dto.ToListResponse(page.Items, page.NextCursor))
}

// ListSubscribers handles GET /api/admin/subscribers?status=.
func (h *AdminHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	cursor, limit, ok := pageParams(w, r)
	if !ok {
		return
	}

	page, err := h.svc.ListSubscribers(r.Context(), r.URL.Query().Get("status"), cursor, limit)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.logAccess(r, "subscribers", len(page.Items))
	writeJSON(w, http.StatusOK, dto.ToListResponse(page.Items, page.NextCursor))
}

// ListSubmissions handles GET /api/admin/submissions?tool=.
func (h *AdminHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	cursor, limit, ok := pageParams(w, r)
	if !ok {
		return
	}

	page, err := h.svc.ListSubmissions(r.Context(), r.URL.Query().Get("tool"), cursor, limit)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.logAccess(r, "submissions", len(page.Items))
	writeJSON(w, http.StatusOK, dto.ToListResponse(page.Items, page.NextCursor))
}
