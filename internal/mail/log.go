package mail

import (
	"context"
	"log/slog"
)

// LogMailer writes messages to the log instead of sending them.
// Used in development and when no mail API is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("component", "mail.log")}
}

// Send logs the message. The body is logged at debug level only.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "mail not sent (log transport)",
		"to", msg.To,
		"subject", msg.Subject,
		"tag", msg.Tag,
	)
	m.logger.DebugContext(ctx, "mail body", "tag", msg.Tag, "text", msg.Text)
	return nil
}
