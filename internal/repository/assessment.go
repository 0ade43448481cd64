package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/northbeam/leadsite/internal/model"
)

// ErrAssessmentNotFound is returned for unknown assessment IDs.
var ErrAssessmentNotFound = errors.New("assessment not found")

const assessmentColumns = `id, kind, status, email, locale, answers, result, score, tier, ip_hash, created_at, completed_at`

// CreateAssessment inserts a started assessment session.
func (r *Repository) CreateAssessment(ctx context.Context, a *model.AssessmentSession) error {
	query := `INSERT INTO assessment_sessions (id, kind, status, email, locale, ip_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.Kind,
		a.Status,
		a.Email,
		a.Locale,
		a.IPHash,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create assessment: %w", err)
	}

	return nil
}

// GetAssessment retrieves a session by ID.
func (r *Repository) GetAssessment(ctx context.Context, id string) (*model.AssessmentSession, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessment_sessions WHERE id = $1`

	a, err := scanAssessment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	return a, nil
}

// CompleteAssessment stores the answers and result of a started session.
// A session that was completed concurrently yields
// model.ErrAssessmentCompleted.
func (r *Repository) CompleteAssessment(ctx context.Context, a *model.AssessmentSession) error {
	query := `
		UPDATE assessment_sessions
		SET status = 'completed', answers = $2, result = $3, score = $4, tier = $5, completed_at = $6
		WHERE id = $1 AND status = 'started'
	`

	result, err := r.pool.Exec(ctx, query,
		a.ID,
		a.Answers,
		a.Result,
		a.Score,
		a.Tier,
		a.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to complete assessment: %w", err)
	}

	if result.RowsAffected() == 0 {
		if _, err := r.GetAssessment(ctx, a.ID); err != nil {
			return err
		}
		return model.ErrAssessmentCompleted
	}

	return nil
}

func scanAssessment(row pgx.Row) (*model.AssessmentSession, error) {
	var a model.AssessmentSession
	err := row.Scan(
		&a.ID,
		&a.Kind,
		&a.Status,
		&a.Email,
		&a.Locale,
		&a.Answers,
		&a.Result,
		&a.Score,
		&a.Tier,
		&a.IPHash,
		&a.CreatedAt,
		&a.CompletedAt,
	)
	return &a, err
}
