// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/northbeam/leadsite/internal/clientip"
	"github.com/northbeam/leadsite/internal/dispatch"
	"github.com/northbeam/leadsite/internal/model"
)

// Service errors.
var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrUnknownTool        = errors.New("unknown calculator")
	ErrMissingToken       = errors.New("token is required")
)

// CalculationError reports input a calculator rejected after it passed
// schema validation, such as a price below the variable cost.
type CalculationError struct {
	Err error
}

func (e *CalculationError) Error() string { return e.Err.Error() }

func (e *CalculationError) Unwrap() error { return e.Err }

// RequestMeta carries what a service may know about the caller.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// IPHash returns the stored, non-reversible form of the caller IP.
func (m RequestMeta) IPHash() string {
	if m.IP == "" {
		return ""
	}
	return clientip.Hash(m.IP)
}

const maxUserAgentLength = 512

func (m RequestMeta) userAgent() string {
	if len(m.UserAgent) > maxUserAgentLength {
		return m.UserAgent[:maxUserAgentLength]
	}
	return m.UserAgent
}

// Dispatcher runs side effects off the request path.
type Dispatcher interface {
	Go(kind string, fn dispatch.Task) bool
}

// CRM receives lead events.
type CRM interface {
	Enabled() bool
	Send(ctx context.Context, eventType string, data any) error
}

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

func trim(s *string) {
	*s = strings.TrimSpace(*s)
}

// newRecordID is swapped in tests for stable IDs.
var newRecordID = model.NewID

func componentLogger(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("component", "service."+name)
}
