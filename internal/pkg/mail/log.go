package mail

import (
	"context"
	"log/slog"
)

// Log is a development driver that writes messages to the default logger instead of sending them.
type Log struct{}

// NewLog returns a Log driver.
func NewLog() *Log {
	return &Log{}
}

func (*Log) Send(ctx context.Context, msg Message) error {
	if len(msg.Recipients()) == 0 {
		return ErrNoRecipients
	}

	slog.InfoContext(ctx, "mail (log driver)", "to", msg.To, "subject", msg.Subject, "text_body", msg.TextBody)
	return nil
}

func (*Log) Close() error {
	return nil
}
