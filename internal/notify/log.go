package notify

import (
	"context"
	"log/slog"
)

// LogSender writes would-be SMS messages to the log. Used in development and
// as the fallback when no delivery channel is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a log-backed sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msisdn, text string) error {
	s.logger.InfoContext(ctx, "sms (log sender)", "to", msisdn, "text", text)
	return nil
}
