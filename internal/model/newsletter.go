package model

import (
	"errors"
	"time"
)

// SubscriptionStatus is the double opt-in state of a newsletter subscriber.
type SubscriptionStatus string

const (
	SubscriptionPending      SubscriptionStatus = "pending"
	SubscriptionConfirmed    SubscriptionStatus = "confirmed"
	SubscriptionUnsubscribed SubscriptionStatus = "unsubscribed"
)

// IsValid checks if the status is known.
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionPending, SubscriptionConfirmed, SubscriptionUnsubscribed:
		return true
	}
	return false
}

// Subscription state errors.
var (
	ErrConfirmTokenExpired = errors.New("confirmation token expired")
	ErrNotPending          = errors.New("subscription is not pending confirmation")
)

// NewsletterSubscription tracks one address through double opt-in.
type NewsletterSubscription struct {
	ID                    string             `json:"id"`
	Email                 string             `json:"email"`
	FirstName             string             `json:"first_name,omitempty"`
	Locale                string             `json:"locale"`
	Source                string             `json:"source,omitempty"`
	Status                SubscriptionStatus `json:"status"`
	ConfirmToken          string             `json:"-"`
	ConfirmTokenExpiresAt time.Time          `json:"-"`
	UnsubscribeToken      string             `json:"-"`
	ConfirmedAt           *time.Time         `json:"confirmed_at,omitempty"`
	UnsubscribedAt        *time.Time         `json:"unsubscribed_at,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// RequestConfirmation moves a new, pending or unsubscribed subscription to
// pending with a fresh confirmation token. Confirmed subscriptions are left
// untouched and false is returned.
func (s *NewsletterSubscription) RequestConfirmation(token string, expiresAt, now time.Time) bool {
	if s.Status == SubscriptionConfirmed {
		return false
	}
	s.Status = SubscriptionPending
	s.ConfirmToken = token
	s.ConfirmTokenExpiresAt = expiresAt
	s.UnsubscribedAt = nil
	s.UpdatedAt = now
	return true
}

// Confirm completes double opt-in. Confirming an already confirmed
// subscription is a no-op.
func (s *NewsletterSubscription) Confirm(now time.Time) error {
	switch s.Status {
	case SubscriptionConfirmed:
		return nil
	case SubscriptionPending:
	default:
		return ErrNotPending
	}
	if !now.Before(s.ConfirmTokenExpiresAt) {
		return ErrConfirmTokenExpired
	}
	s.Status = SubscriptionConfirmed
	s.ConfirmedAt = &now
	s.UpdatedAt = now
	return nil
}

// Unsubscribe opts the address out. Repeated calls keep the first
// unsubscribe time.
func (s *NewsletterSubscription) Unsubscribe(now time.Time) {
	if s.Status == SubscriptionUnsubscribed {
		return
	}
	s.Status = SubscriptionUnsubscribed
	s.UnsubscribedAt = &now
	s.UpdatedAt = now
}
