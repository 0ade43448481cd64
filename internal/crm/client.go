// Package crm forwards lead events to a CRM over a signed JSON webhook.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/northbeam/leadsite/internal/model"
	"github.com/northbeam/leadsite/internal/outbound"
)

// Event types sent to the CRM.
const (
	EventContactCreated      = "contact.created"
	EventNewsletterConfirmed = "newsletter.confirmed"
	EventToolSubmitted       = "tool.submitted"
	EventAssessmentCompleted = "assessment.completed"
)

// Header names for CRM requests.
const (
	HeaderSignature = "X-Leadsite-Signature"
	HeaderTimestamp = "X-Leadsite-Timestamp"
	HeaderEventID   = "X-Leadsite-Event-Id"
)

// ErrUnexpectedStatus is returned when the CRM answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected CRM response status")

// Event is the JSON envelope posted to the CRM.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Client posts lead events. A Client without a URL is disabled and
// Send returns nil without doing anything.
type Client struct {
	url    string
	secret string
	http   *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default outbound client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

// New creates a CRM client. When checkTarget is set the URL must pass the
// outbound SSRF rules.
func New(url, secret string, checkTarget bool, logger *slog.Logger, opts ...Option) (*Client, error) {
	if url != "" && checkTarget {
		if err := outbound.ValidateTargetURL(url); err != nil {
			return nil, fmt.Errorf("crm webhook url: %w", err)
		}
	}

	c := &Client{
		url:    url,
		secret: secret,
		http:   outbound.NewHTTPClient(),
		logger: logger.With("component", "crm"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Enabled reports whether events are forwarded.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Send posts one event. Errors are returned for the caller to log.
func (c *Client) Send(ctx context.Context, eventType string, data any) error {
	if !c.Enabled() {
		return nil
	}

	now := c.now().UTC()
	event := Event{
		ID:         model.NewID(),
		Type:       eventType,
		OccurredAt: now,
		Data:       data,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	timestamp := now.Unix()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", outbound.UserAgent)
	req.Header.Set(HeaderSignature, Sign(c.secret, timestamp, body))
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(timestamp, 10))
	req.Header.Set(HeaderEventID, event.ID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	c.logger.Debug("crm event delivered",
		"event_id", event.ID,
		"event_type", eventType,
		"target_host", outbound.ExtractHost(c.url),
		"http_status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
