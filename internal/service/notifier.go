package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/northbeam/leadsite/internal/mail"
)

// Side effect kinds, used as log fields and metric labels.
const (
	KindMailTeam      = "mail.team"
	KindMailAutoReply = "mail.autoreply"
	KindMailConfirm   = "mail.confirm"
	KindMailResults   = "mail.results"
	KindCRM           = "crm"
)

// Notifier schedules emails and CRM events through the dispatcher.
// Nothing it does can fail the calling request.
type Notifier struct {
	dispatcher  Dispatcher
	mailer      mail.Mailer
	templates   *mail.Templates
	crm         CRM
	teamAddress string
	siteURL     string
	logger      *slog.Logger
}

// NotifierConfig holds the Notifier collaborators.
type NotifierConfig struct {
	Dispatcher  Dispatcher
	Mailer      mail.Mailer
	Templates   *mail.Templates
	CRM         CRM
	TeamAddress string
	SiteURL     string
	Logger      *slog.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(cfg NotifierConfig) *Notifier {
	return &Notifier{
		dispatcher:  cfg.Dispatcher,
		mailer:      cfg.Mailer,
		templates:   cfg.Templates,
		crm:         cfg.CRM,
		teamAddress: cfg.TeamAddress,
		siteURL:     cfg.SiteURL,
		logger:      cfg.Logger.With("component", "notifier"),
	}
}

// SiteURL is the public site base URL used in emails.
func (n *Notifier) SiteURL() string {
	return n.siteURL
}

// Mail renders a template and sends it in the background.
func (n *Notifier) Mail(kind, locale, template, to, replyTo string, data any) {
	if to == "" {
		return
	}
	n.dispatcher.Go(kind, func(ctx context.Context) error {
		msg, err := n.templates.Compose(locale, template, to, data)
		if err != nil {
			return fmt.Errorf("compose %s: %w", template, err)
		}
		msg.ReplyTo = replyTo
		return n.mailer.Send(ctx, msg)
	})
}

// Event forwards a lead event to the CRM in the background.
func (n *Notifier) Event(eventType string, data any) {
	if n.crm == nil || !n.crm.Enabled() {
		return
	}
	n.dispatcher.Go(KindCRM, func(ctx context.Context) error {
		if err := n.crm.Send(ctx, eventType, data); err != nil {
			return fmt.Errorf("%s: %w", eventType, err)
		}
		return nil
	})
}
