package handler

import (
	"log/slog"
	"net/http"

	"github.com/northbeam/leadsite/internal/handler/dto"
	"github.com/northbeam/leadsite/internal/service"
)

// ContactHandler handles the public contact form.
type ContactHandler struct {
	svc    *service.ContactService
	logger *slog.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(svc *service.ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{svc: svc, logger: logger}
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in service.ContactInput
	if !decodeJSON(w, r, &in) {
		return
	}

	result, err := h.svc.Submit(r.Context(), in, requestMeta(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ContactResponse{Success: true, ID: result.ID})
}
