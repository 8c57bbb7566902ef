package notification

import (
	"context"

	"go.uber.org/zap"
)

// EmailSender delivers one alert message. A failed send is captured in the
// notification record, never propagated.
type EmailSender interface {
	Send(ctx context.Context, address, subject, body string) error
}

// LogSender is a delivery stub that writes the message to the log instead
// of a mail relay. The production relay lives outside this worker.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the outgoing message.
func (s *LogSender) Send(ctx context.Context, address, subject, body string) error {
	s.logger.Info("email dispatched",
		zap.String("to", address),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
