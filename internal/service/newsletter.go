package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/northbeam/leadsite/internal/auth"
	"github.com/northbeam/leadsite/internal/crm"
	"github.com/northbeam/leadsite/internal/mail"
	"github.com/northbeam/leadsite/internal/metrics"
	"github.com/northbeam/leadsite/internal/model"
	"github.com/northbeam/leadsite/internal/repository"
	"github.com/northbeam/leadsite/internal/validation"
)

// Outcomes of the newsletter confirm and unsubscribe links.
const (
	LinkConfirmed    = "confirmed"
	LinkExpired      = "expired"
	LinkInvalid      = "invalid"
	LinkUnsubscribed = "unsubscribed"
)

// NewsletterStore persists newsletter subscriptions.
type NewsletterStore interface {
	CreateSubscription(ctx context.Context, s *model.NewsletterSubscription) error
	UpdateSubscription(ctx context.Context, s *model.NewsletterSubscription) error
	GetSubscriptionByEmail(ctx context.Context, email string) (*model.NewsletterSubscription, error)
	GetSubscriptionByConfirmToken(ctx context.Context, token string) (*model.NewsletterSubscription, error)
	GetSubscriptionByUnsubscribeToken(ctx context.Context, token string) (*model.NewsletterSubscription, error)
}

// SubscribeInput is the newsletter signup form.
type SubscribeInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	FirstName string `json:"first_name" validate:"max=100"`
	Locale    string `json:"locale" validate:"omitempty,locale"`
	Source    string `json:"source" validate:"max=100"`
}

// LinkOutcome tells the handler where to send the visitor after a
// confirm or unsubscribe link was opened.
type LinkOutcome struct {
	Status string
	Locale string
}

// NewsletterService implements double opt-in.
type NewsletterService struct {
	store         NewsletterStore
	notifier      *Notifier
	metrics       metrics.Recorder
	logger        *slog.Logger
	publicAPIURL  string
	tokenTTL      time.Duration
	defaultLocale string
	now           Clock
	newToken      func() (string, error)
}

// NewsletterConfig holds NewsletterService settings.
type NewsletterConfig struct {
	PublicAPIURL  string
	TokenTTL      time.Duration
	DefaultLocale string
}

// NewNewsletterService creates a new NewsletterService.
func NewNewsletterService(store NewsletterStore, notifier *Notifier, cfg NewsletterConfig, logger *slog.Logger, recorder metrics.Recorder) *NewsletterService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &NewsletterService{
		store:         store,
		notifier:      notifier,
		metrics:       recorder,
		logger:        componentLogger(logger, "newsletter"),
		publicAPIURL:  strings.TrimSuffix(cfg.PublicAPIURL, "/"),
		tokenTTL:      cfg.TokenTTL,
		defaultLocale: cfg.DefaultLocale,
		now:           utcNow,
		newToken:      auth.GenerateToken,
	}
}

// Subscribe starts or restarts double opt-in for an address and returns
// the resulting status. Confirmed subscribers are left alone.
func (s *NewsletterService) Subscribe(ctx context.Context, in SubscribeInput, meta RequestMeta) (model.SubscriptionStatus, error) {
	trim(&in.Email)
	trim(&in.FirstName)
	trim(&in.Locale)
	trim(&in.Source)
	if err := validation.Struct(in); err != nil {
		s.metrics.IncFormSubmission(FormNewsletter, metrics.StatusInvalid)
		return "", err
	}

	email := validation.NormalizeEmail(in.Email)
	locale := validation.NormalizeLocale(in.Locale, s.defaultLocale)

	sub, err := s.store.GetSubscriptionByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrSubscriptionNotFound):
		sub, err = s.create(ctx, email, in, locale)
		if errors.Is(err, repository.ErrSubscriptionExists) {
			// Lost a race with a concurrent signup for the same address.
			sub, err = s.store.GetSubscriptionByEmail(ctx, email)
			if err == nil {
				return s.resubscribe(ctx, sub, in, locale)
			}
		}
		if err != nil {
			s.metrics.IncFormSubmission(FormNewsletter, metrics.StatusFailed)
			return "", err
		}
		s.sendConfirmation(sub)
		s.metrics.IncFormSubmission(FormNewsletter, metrics.StatusSuccess)
		return sub.Status, nil
	case err != nil:
		s.metrics.IncFormSubmission(FormNewsletter, metrics.StatusFailed)
		return "", fmt.Errorf("failed to look up subscription: %w", err)
	}

	return s.resubscribe(ctx, sub, in, locale)
}

func (s *NewsletterService) create(ctx context.Context, email string, in SubscribeInput, locale string) (*model.NewsletterSubscription, error) {
	confirmToken, err := s.newToken()
	if err != nil {
		return nil, err
	}
	unsubscribeToken, err := s.newToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub := &model.NewsletterSubscription{
		ID:                    newRecordID(),
		Email:                 email,
		FirstName:             in.FirstName,
		Locale:                locale,
		Source:                in.Source,
		Status:                model.SubscriptionPending,
		ConfirmToken:          confirmToken,
		ConfirmTokenExpiresAt: now.Add(s.tokenTTL),
		UnsubscribeToken:      unsubscribeToken,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *NewsletterService) resubscribe(ctx context.Context, sub *model.NewsletterSubscription, in SubscribeInput, locale string) (model.SubscriptionStatus, error) {
	if sub.Status == model.SubscriptionConfirmed {
		s.metrics.IncFormSubmission(FormNewsletter, metrics.StatusSuccess)
		return sub.Status, nil
	}

	token, err := s.newToken()
	if err != nil {
		s.metrics.IncFormSubmission(FormNewsletter, metrics.StatusFailed)
		return "", err
	}

	now := s.now()
	sub.RequestConfirmation(token, now.Add(s.tokenTTL), now)
	if in.FirstName != "" {
		sub.FirstName = in.FirstName
	}
	if in.Source != "" {
		sub.Source = in.Source
	}
	sub.Locale = locale

	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		s.metrics.IncFormSubmission(FormNewsletter, metrics.StatusFailed)
		return "", fmt.Errorf("failed to update subscription: %w", err)
	}

	s.sendConfirmation(sub)
	s.metrics.IncFormSubmission(FormNewsletter, metrics.StatusSuccess)
	return sub.Status, nil
}

func (s *NewsletterService) sendConfirmation(sub *model.NewsletterSubscription) {
	s.notifier.Mail(KindMailConfirm, sub.Locale, mail.TemplateNewsletterConfirm, sub.Email, "", mail.NewsletterConfirmData{
		FirstName:      sub.FirstName,
		ConfirmURL:     s.linkURL("confirm", sub.ConfirmToken),
		UnsubscribeURL: s.linkURL("unsubscribe", sub.UnsubscribeToken),
		ExpiresInHours: int(s.tokenTTL.Hours()),
	})
}

func (s *NewsletterService) linkURL(action, token string) string {
	return s.publicAPIURL + "/api/newsletter/" + action + "?token=" + url.QueryEscape(token)
}

// Confirm completes double opt-in for the subscription holding token.
func (s *NewsletterService) Confirm(ctx context.Context, token string) (LinkOutcome, error) {
	if token == "" {
		return LinkOutcome{}, ErrMissingToken
	}
	invalid := LinkOutcome{Status: LinkInvalid, Locale: s.defaultLocale}
	if !auth.IsWellFormedToken(token) {
		return invalid, nil
	}

	sub, err := s.store.GetSubscriptionByConfirmToken(ctx, token)
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		return invalid, nil
	}
	if err != nil {
		return LinkOutcome{}, fmt.Errorf("failed to look up subscription: %w", err)
	}

	outcome := LinkOutcome{Locale: sub.Locale}
	wasPending := sub.Status == model.SubscriptionPending

	switch err := sub.Confirm(s.now()); {
	case errors.Is(err, model.ErrConfirmTokenExpired):
		outcome.Status = LinkExpired
		return outcome, nil
	case errors.Is(err, model.ErrNotPending):
		outcome.Status = LinkInvalid
		return outcome, nil
	case err != nil:
		return LinkOutcome{}, err
	}

	outcome.Status = LinkConfirmed
	if !wasPending {
		return outcome, nil
	}

	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		return LinkOutcome{}, fmt.Errorf("failed to confirm subscription: %w", err)
	}
	s.logger.InfoContext(ctx, "newsletter subscription confirmed", "subscription_id", sub.ID)
	s.notifier.Event(crm.EventNewsletterConfirmed, sub)

	return outcome, nil
}

// Unsubscribe opts out the subscription holding the stable unsubscribe token.
func (s *NewsletterService) Unsubscribe(ctx context.Context, token string) (LinkOutcome, error) {
	if token == "" {
		return LinkOutcome{}, ErrMissingToken
	}
	invalid := LinkOutcome{Status: LinkInvalid, Locale: s.defaultLocale}
	if !auth.IsWellFormedToken(token) {
		return invalid, nil
	}

	sub, err := s.store.GetSubscriptionByUnsubscribeToken(ctx, token)
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		return invalid, nil
	}
	if err != nil {
		return LinkOutcome{}, fmt.Errorf("failed to look up subscription: %w", err)
	}

	outcome := LinkOutcome{Status: LinkUnsubscribed, Locale: sub.Locale}
	if sub.Status == model.SubscriptionUnsubscribed {
		return outcome, nil
	}

	sub.Unsubscribe(s.now())
	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		return LinkOutcome{}, fmt.Errorf("failed to unsubscribe: %w", err)
	}
	s.logger.InfoContext(ctx, "newsletter subscription cancelled", "subscription_id", sub.ID)

	return outcome, nil
}
