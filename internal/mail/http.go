package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/northbeam/leadsite/internal/outbound"
)

// ErrUnexpectedStatus is returned when the mail API answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected mail API response status")

// HTTPMailer posts messages to a generic JSON transactional mail API
// authenticated with a bearer key.
type HTTPMailer struct {
	url    string
	apiKey string
	from   string
	client *http.Client
}

// NewHTTPMailer creates an HTTPMailer. A nil client uses the shared outbound client.
func NewHTTPMailer(url, apiKey, from string, client *http.Client) *HTTPMailer {
	if client == nil {
		client = outbound.NewHTTPClient()
	}
	return &HTTPMailer{url: url, apiKey: apiKey, from: from, client: client}
}

type apiRequest struct {
	From string `json:"from"`
	Message
}

// Send posts one message.
func (m *HTTPMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(apiRequest{From: m.from, Message: msg})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", outbound.UserAgent)
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
