package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/northbeam/leadsite/internal/handler/dto"
	"github.com/northbeam/leadsite/internal/service"
)

// CalculatorHandler runs the public calculators.
type CalculatorHandler struct {
	svc    *service.ToolService
	logger *slog.Logger
}

// NewCalculatorHandler creates a new CalculatorHandler.
func NewCalculatorHandler(svc *service.ToolService, logger *slog.Logger) *CalculatorHandler {
	return &CalculatorHandler{svc: svc, logger: logger}
}

// Run handles POST /api/calculators/{tool}.
func (h *CalculatorHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req service.ToolRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	outcome, err := h.svc.Run(r.Context(), chi.URLParam(r, "tool"), req, requestMeta(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToolResponse{
		Success:      true,
		Tool:         string(outcome.Tool),
		Result:       outcome.Result,
		SubmissionID: outcome.SubmissionID,
	})
}
