// Package dto provides Data Transfer Objects for API responses.
package dto

import (
	"github.com/northbeam/leadsite/internal/model"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// ContactResponse is returned for contact form submissions. ID is empty
// for submissions dropped as spam.
type ContactResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}

// SubscribeResponse is returned for newsletter signups.
type SubscribeResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// ToolResponse is a calculator result.
type ToolResponse struct {
	Success      bool   `json:"success"`
	Tool         string `json:"tool"`
	Result       any    `json:"result"`
	SubmissionID string `json:"submission_id,omitempty"`
}

// AssessmentStartedResponse is returned when a session is opened.
type AssessmentStartedResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Status  string `json:"status"`
}

// AssessmentResultResponse is returned when a session is completed.
type AssessmentResultResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Status  string `json:"status"`
	Result  any    `json:"result"`
	Stored  bool   `json:"stored"`
}

// AssessmentResponse wraps a session for GET requests.
type AssessmentResponse struct {
	Success    bool                     `json:"success"`
	Assessment *model.AssessmentSession `json:"assessment"`
}

// ListResponse is one page of an admin listing.
type ListResponse[T any] struct {
	Success    bool        `json:"success"`
	Data       []*T        `json:"data"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination provides cursor-based pagination info.
type Pagination struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// ToListResponse converts a page of records to a ListResponse.
func ToListResponse[T any](items []*T, nextCursor string) *ListResponse[T] {
	if items == nil {
		items = []*T{}
	}
	return &ListResponse[T]{
		Success: true,
		Data:    items,
		Pagination: &Pagination{
			NextCursor: nextCursor,
			HasMore:    nextCursor != "",
		},
	}
}
