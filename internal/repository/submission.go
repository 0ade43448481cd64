package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/northbeam/leadsite/internal/model"
)

const submissionColumns = `id, tool, email, locale, input, result, ip_hash, user_agent, created_at`

// CreateSubmission stores a calculator run.
func (r *Repository) CreateSubmission(ctx context.Context, s *model.ToolSubmission) error {
	query := `INSERT INTO tool_submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		s.ID,
		s.Tool,
		s.Email,
		s.Locale,
		s.Input,
		s.Result,
		s.IPHash,
		s.UserAgent,
		s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tool submission: %w", err)
	}

	return nil
}

// ListSubmissions returns submissions newest first, optionally filtered by
// tool slug.
func (r *Repository) ListSubmissions(ctx context.Context, tool string, cursor string, limit int) (*Page[model.ToolSubmission], error) {
	q := listQuery[model.ToolSubmission]{
		selectFrom: `SELECT ` + submissionColumns + ` FROM tool_submissions`,
		scan:       scanSubmission,
		position: func(s *model.ToolSubmission) PaginationCursor {
			return PaginationCursor{ID: s.ID, CreatedAt: s.CreatedAt}
		},
	}
	if tool != "" {
		q.where = " AND tool = $1"
		q.args = []any{tool}
	}

	page, err := listPage(ctx, r, q, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list tool submissions: %w", err)
	}
	return page, nil
}

func scanSubmission(row pgx.Row) (*model.ToolSubmission, error) {
	var s model.ToolSubmission
	err := row.Scan(
		&s.ID,
		&s.Tool,
		&s.Email,
		&s.Locale,
		&s.Input,
		&s.Result,
		&s.IPHash,
		&s.UserAgent,
		&s.CreatedAt,
	)
	return &s, err
}
