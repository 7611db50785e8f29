package email

import (
	"context"
	"log/slog"
)

// LogSender writes messages to the log instead of delivering them. Used in
// development when no SMTP server is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, kind Kind, recipient string, vars map[string]string) error {
	subject, text, _, err := render(kind, vars)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "email (log only)",
		slog.String("kind", string(kind)),
		slog.String("to", recipient),
		slog.String("subject", subject),
		slog.String("body", text),
	)
	return nil
}
