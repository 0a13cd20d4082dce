package mail

import (
	"context"
	"log/slog"
)

// Log is a Mail implementation that records messages in the structured log
// instead of delivering them. Handy for local runs and demos.
type Log struct {
	defaultFrom string
}

// NewLog constructs a Log mail sender.
func NewLog(from string) *Log {
	return &Log{defaultFrom: from}
}

// Send logs the message envelope and size.
func (l *Log) Send(ctx context.Context, msg Message) error {
	msg, err := msg.resolve(l.defaultFrom)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "mail: message not delivered, log driver active",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"html_bytes", len(msg.HTMLBody),
		"text_bytes", len(msg.TextBody),
	)

	return ctx.Err()
}

// Close implements io.Closer.
func (l *Log) Close() error {
	return nil
}
