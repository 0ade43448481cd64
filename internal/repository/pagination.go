package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Page size bounds for list queries.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrInvalidCursor is returned for cursors that do not decode.
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// PaginationCursor is the position after the last row of a page.
type PaginationCursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Page is one slice of a keyset-paginated listing.
type Page[T any] struct {
	Items      []*T
	NextCursor string
}

// normalizeLimit clamps limit to [1, MaxPageSize], using the default for
// non-positive values.
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// listQuery describes a newest-first listing. where holds extra filter
// clauses starting with " AND"; args are their parameters.
type listQuery[T any] struct {
	selectFrom string
	where      string
	args       []any
	scan       func(pgx.Row) (*T, error)
	position   func(*T) PaginationCursor
}

// listPage runs q with keyset pagination on (created_at, id).
func listPage[T any](ctx context.Context, r *Repository, q listQuery[T], cursor string, limit int) (*Page[T], error) {
	limit = normalizeLimit(limit)

	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, ErrInvalidCursor
		}
	}

	query := q.selectFrom + " WHERE TRUE" + q.where
	args := append([]any{}, q.args...)

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", len(args)+1, len(args)+2)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, limit+1) // Fetch one extra to determine hasMore

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	items := make([]*T, 0, limit+1)
	for rows.Next() {
		item, err := q.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	page := &Page[T]{Items: items}
	if len(items) > limit {
		page.Items = items[:limit]
		last := q.position(page.Items[limit-1])
		page.NextCursor = encodeCursor(&last)
	}

	return page, nil
}

// encodeCursor encodes pagination cursor to base64.
func encodeCursor(cursor *PaginationCursor) string {
	data, _ := json.Marshal(cursor)
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor decodes base64 pagination cursor.
func decodeCursor(s string) (*PaginationCursor, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}

	var cursor PaginationCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, err
	}
	if cursor.ID == "" || cursor.CreatedAt.IsZero() {
		return nil, ErrInvalidCursor
	}

	return &cursor, nil
}
