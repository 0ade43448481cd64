package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/northbeam/leadsite/internal/crm"
	"github.com/northbeam/leadsite/internal/mail"
	"github.com/northbeam/leadsite/internal/metrics"
	"github.com/northbeam/leadsite/internal/model"
	"github.com/northbeam/leadsite/internal/validation"
)

// Form names used as metric labels.
const (
	FormContact    = "contact"
	FormNewsletter = "newsletter"
	FormAssessment = "assessment"
)

// ContactStore persists contact requests.
type ContactStore interface {
	CreateContact(ctx context.Context, c *model.Contact) error
}

// ContactInput is the public contact form.
type ContactInput struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Company string `json:"company" validate:"max=120"`
	Phone   string `json:"phone" validate:"max=40"`
	Service string `json:"service" validate:"omitempty,service"`
	Budget  string `json:"budget" validate:"max=100"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
	Locale  string `json:"locale" validate:"omitempty,locale"`
	Source  string `json:"source" validate:"max=100"`
	Consent bool   `json:"consent" validate:"eq=true"`
	// Website is a honeypot field hidden from humans.
	Website string `json:"website"`
}

func (in *ContactInput) normalize() {
	for _, f := range []*string{&in.Name, &in.Email, &in.Company, &in.Phone, &in.Service, &in.Budget, &in.Message, &in.Locale, &in.Source} {
		trim(f)
	}
}

// ContactResult is the outcome of a contact submission. Spam submissions
// get no ID and must be answered like a success.
type ContactResult struct {
	ID   string
	Spam bool
}

// ContactService handles contact form submissions.
type ContactService struct {
	store         ContactStore
	notifier      *Notifier
	metrics       metrics.Recorder
	logger        *slog.Logger
	defaultLocale string
	now           Clock
}

// NewContactService creates a new ContactService.
func NewContactService(store ContactStore, notifier *Notifier, defaultLocale string, logger *slog.Logger, recorder metrics.Recorder) *ContactService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ContactService{
		store:         store,
		notifier:      notifier,
		metrics:       recorder,
		logger:        componentLogger(logger, "contact"),
		defaultLocale: defaultLocale,
		now:           utcNow,
	}
}

// Submit validates and stores a contact request, then notifies the team,
// the visitor and the CRM in the background.
func (s *ContactService) Submit(ctx context.Context, in ContactInput, meta RequestMeta) (*ContactResult, error) {
	if in.Website != "" {
		s.logger.InfoContext(ctx, "honeypot triggered", "form", FormContact)
		s.metrics.IncFormSubmission(FormContact, metrics.StatusSpam)
		return &ContactResult{Spam: true}, nil
	}

	in.normalize()
	if err := validation.Struct(in); err != nil {
		s.metrics.IncFormSubmission(FormContact, metrics.StatusInvalid)
		return nil, err
	}

	contact := &model.Contact{
		ID:        newRecordID(),
		Name:      in.Name,
		Email:     validation.NormalizeEmail(in.Email),
		Company:   in.Company,
		Phone:     in.Phone,
		Service:   in.Service,
		Budget:    in.Budget,
		Message:   in.Message,
		Locale:    validation.NormalizeLocale(in.Locale, s.defaultLocale),
		Source:    in.Source,
		Consent:   in.Consent,
		IPHash:    meta.IPHash(),
		UserAgent: meta.userAgent(),
		CreatedAt: s.now(),
	}

	if err := s.store.CreateContact(ctx, contact); err != nil {
		s.metrics.IncFormSubmission(FormContact, metrics.StatusFailed)
		return nil, fmt.Errorf("failed to store contact: %w", err)
	}
	s.metrics.IncFormSubmission(FormContact, metrics.StatusSuccess)

	data := mail.ContactData{Contact: contact, SiteURL: s.notifier.SiteURL()}
	s.notifier.Mail(KindMailTeam, mail.FallbackLocale, mail.TemplateContactNotification, s.notifier.teamAddress, contact.Email, data)
	s.notifier.Mail(KindMailAutoReply, contact.Locale, mail.TemplateContactAutoReply, contact.Email, "", data)
	s.notifier.Event(crm.EventContactCreated, contact)

	return &ContactResult{ID: contact.ID}, nil
}
