package notify

import (
	"context"
	"errors"
	"log/slog"
)

var ErrNoRecipient = errors.New("notification has no recipient")

// Message is a single outbound e-mail.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers a Message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, message Message) error
}

// LogSender writes messages to the logger instead of delivering them. It is
// selected when no SMTP host is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (sender *LogSender) Send(ctx context.Context, message Message) error {
	if message.To == "" {
		return ErrNoRecipient
	}
	sender.logger.InfoContext(ctx, "notification not delivered, smtp disabled",
		slog.String("to", message.To),
		slog.String("subject", message.Subject),
		slog.String("body", message.TextBody),
	)
	return nil
}
