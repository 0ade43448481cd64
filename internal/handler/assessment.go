package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/northbeam/leadsite/internal/handler/dto"
	"github.com/northbeam/leadsite/internal/service"
)

// AssessmentHandler handles readiness assessment sessions.
type AssessmentHandler struct {
	svc    *service.AssessmentService
	logger *slog.Logger
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(svc *service.AssessmentService, logger *slog.Logger) *AssessmentHandler {
	return &AssessmentHandler{svc: svc, logger: logger}
}

// Start handles POST /api/assessments.
func (h *AssessmentHandler) Start(w http.ResponseWriter, r *http.Request) {
	var in service.StartAssessmentInput
	if !decodeJSON(w, r, &in) {
		return
	}

	session, err := h.svc.Start(r.Context(), in, requestMeta(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AssessmentStartedResponse{
		Success: true,
		ID:      session.ID,
		Status:  string(session.Status),
	})
}

// Complete handles POST /api/assessments/{id}/complete.
func (h *AssessmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var in service.CompleteAssessmentInput
	if !decodeJSON(w, r, &in) {
		return
	}

	outcome, err := h.svc.Complete(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AssessmentResultResponse{
		Success: true,
		ID:      outcome.Session.ID,
		Kind:    string(outcome.Session.Kind),
		Status:  string(outcome.Session.Status),
		Result:  outcome.Result,
		Stored:  outcome.Stored,
	})
}

// Get handles GET /api/assessments/{id}.
func (h *AssessmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AssessmentResponse{Success: true, Assessment: session})
}
