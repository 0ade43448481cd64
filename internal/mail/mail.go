// Package mail renders and sends transactional email.
package mail

import (
	"context"
	"errors"
)

// ErrInvalidMessage is returned for messages missing a recipient or subject.
var ErrInvalidMessage = errors.New("invalid mail message")

// Message is one outgoing plain-text email.
type Message struct {
	To      string `json:"to"`
	ReplyTo string `json:"reply_to,omitempty"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	// Tag labels the message kind for provider analytics and logs.
	Tag string `json:"tag,omitempty"`
}

// Validate checks required fields.
func (m Message) Validate() error {
	if m.To == "" || m.Subject == "" {
		return ErrInvalidMessage
	}
	return nil
}

// Mailer sends a message. Implementations must honour ctx cancellation.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
