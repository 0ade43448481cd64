package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/northbeam/leadsite/internal/handler/dto"
	"github.com/northbeam/leadsite/internal/service"
)

// NewsletterHandler handles double opt-in signup and the links sent by
// email.
type NewsletterHandler struct {
	svc     *service.NewsletterService
	siteURL string
	logger  *slog.Logger
}

// NewNewsletterHandler creates a new NewsletterHandler. Confirm and
// unsubscribe links redirect to pages under siteURL.
func NewNewsletterHandler(svc *service.NewsletterService, siteURL string, logger *slog.Logger) *NewsletterHandler {
	return &NewsletterHandler{
		svc:     svc,
		siteURL: strings.TrimRight(siteURL, "/"),
		logger:  logger,
	}
}

// Subscribe handles POST /api/newsletter/subscribe.
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in service.SubscribeInput
	if !decodeJSON(w, r, &in) {
		return
	}

	status, err := h.svc.Subscribe(r.Context(), in, requestMeta(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SubscribeResponse{Success: true, Status: string(status)})
}

// Confirm handles GET /api/newsletter/confirm?token=.
func (h *NewsletterHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.svc.Confirm(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.redirect(w, r, outcome)
}

// Unsubscribe handles GET /api/newsletter/unsubscribe?token=.
func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.svc.Unsubscribe(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.redirect(w, r, outcome)
}

func (h *NewsletterHandler) redirect(w http.ResponseWriter, r *http.Request, outcome service.LinkOutcome) {
	target := h.siteURL + "/" + url.PathEscape(outcome.Locale) + "/newsletter?status=" + url.QueryEscape(outcome.Status)
	http.Redirect(w, r, target, http.StatusFound)
}
