package notify

import (
	"context"
	"log/slog"
)

// LogTransport writes notices to the log. It is the fallback when no mail or
// broker transport is configured.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Name() string { return "log" }

func (t *LogTransport) Deliver(ctx context.Context, msg Message) error {
	t.logger.InfoContext(ctx, "overdue notice",
		"subject", msg.Subject,
		"body", msg.Body,
		"recipients", msg.Recipients,
	)
	return nil
}
