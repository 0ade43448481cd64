package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/northbeam/leadsite/internal/model"
)

// Newsletter repository errors.
var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSubscriptionExists   = errors.New("subscription already exists")
)

const subscriptionColumns = `id, email, first_name, locale, source, status, confirm_token,
	confirm_token_expires_at, unsubscribe_token, confirmed_at, unsubscribed_at, created_at, updated_at`

// CreateSubscription inserts a new subscription. Emails are unique.
func (r *Repository) CreateSubscription(ctx context.Context, s *model.NewsletterSubscription) error {
	query := `INSERT INTO newsletter_subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Email,
		s.FirstName,
		s.Locale,
		s.Source,
		s.Status,
		s.ConfirmToken,
		s.ConfirmTokenExpiresAt,
		s.UnsubscribeToken,
		s.ConfirmedAt,
		s.UnsubscribedAt,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSubscriptionExists
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// UpdateSubscription persists the mutable fields of a subscription.
func (r *Repository) UpdateSubscription(ctx context.Context, s *model.NewsletterSubscription) error {
	query := `
		UPDATE newsletter_subscriptions
		SET first_name = $2, locale = $3, source = $4, status = $5, confirm_token = $6,
		    confirm_token_expires_at = $7, confirmed_at = $8, unsubscribed_at = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		s.ID,
		s.FirstName,
		s.Locale,
		s.Source,
		s.Status,
		s.ConfirmToken,
		s.ConfirmTokenExpiresAt,
		s.ConfirmedAt,
		s.UnsubscribedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

// GetSubscriptionByEmail looks a subscription up by normalized email.
func (r *Repository) GetSubscriptionByEmail(ctx context.Context, email string) (*model.NewsletterSubscription, error) {
	return r.getSubscription(ctx, "email", email)
}

// GetSubscriptionByConfirmToken looks a subscription up by its current
// confirmation token.
func (r *Repository) GetSubscriptionByConfirmToken(ctx context.Context, token string) (*model.NewsletterSubscription, error) {
	return r.getSubscription(ctx, "confirm_token", token)
}

// GetSubscriptionByUnsubscribeToken looks a subscription up by its stable
// unsubscribe token.
func (r *Repository) GetSubscriptionByUnsubscribeToken(ctx context.Context, token string) (*model.NewsletterSubscription, error) {
	return r.getSubscription(ctx, "unsubscribe_token", token)
}

// getSubscription is shared by the lookups above; column is never user input.
func (r *Repository) getSubscription(ctx context.Context, column, value string) (*model.NewsletterSubscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM newsletter_subscriptions WHERE ` + column + ` = $1`

	s, err := scanSubscription(r.pool.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to get subscription by %s: %w", column, err)
	}

	return s, nil
}

// ListSubscriptions returns subscriptions newest first, optionally filtered
// by status.
func (r *Repository) ListSubscriptions(ctx context.Context, status model.SubscriptionStatus, cursor string, limit int) (*Page[model.NewsletterSubscription], error) {
	q := listQuery[model.NewsletterSubscription]{
		selectFrom: `SELECT ` + subscriptionColumns + ` FROM newsletter_subscriptions`,
		scan:       scanSubscription,
		position: func(s *model.NewsletterSubscription) PaginationCursor {
			return PaginationCursor{ID: s.ID, CreatedAt: s.CreatedAt}
		},
	}
	if status != "" {
		q.where = " AND status = $1"
		q.args = []any{status}
	}

	page, err := listPage(ctx, r, q, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return page, nil
}

func scanSubscription(row pgx.Row) (*model.NewsletterSubscription, error) {
	var s model.NewsletterSubscription
	err := row.Scan(
		&s.ID,
		&s.Email,
		&s.FirstName,
		&s.Locale,
		&s.Source,
		&s.Status,
		&s.ConfirmToken,
		&s.ConfirmTokenExpiresAt,
		&s.UnsubscribeToken,
		&s.ConfirmedAt,
		&s.UnsubscribedAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return &s, err
}
