package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/northbeam/leadsite/internal/model"
)

const contactColumns = `id, name, email, company, phone, service, budget, message, locale, source, consent, ip_hash, user_agent, created_at`

// CreateContact inserts a contact form submission.
func (r *Repository) CreateContact(ctx context.Context, c *model.Contact) error {
	query := `INSERT INTO contacts (` + contactColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Email,
		c.Company,
		c.Phone,
		c.Service,
		c.Budget,
		c.Message,
		c.Locale,
		c.Source,
		c.Consent,
		c.IPHash,
		c.UserAgent,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

// ListContacts returns contacts newest first.
func (r *Repository) ListContacts(ctx context.Context, cursor string, limit int) (*Page[model.Contact], error) {
	page, err := listPage(ctx, r, listQuery[model.Contact]{
		selectFrom: `SELECT ` + contactColumns + ` FROM contacts`,
		scan:       scanContact,
		position: func(c *model.Contact) PaginationCursor {
			return PaginationCursor{ID: c.ID, CreatedAt: c.CreatedAt}
		},
	}, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return page, nil
}

func scanContact(row pgx.Row) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Company,
		&c.Phone,
		&c.Service,
		&c.Budget,
		&c.Message,
		&c.Locale,
		&c.Source,
		&c.Consent,
		&c.IPHash,
		&c.UserAgent,
		&c.CreatedAt,
	)
	return &c, err
}
