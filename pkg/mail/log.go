package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogMailService is the fallback mailer used when no provider is
// configured: it logs the message instead of sending it and always
// succeeds.
type LogMailService struct {
	logger *zap.Logger
}

// NewLogMailService configures the log-only mailer.
func NewLogMailService(logger *zap.Logger) *LogMailService {
	return &LogMailService{logger: logger}
}

// SendPlainTextEmail logs the would-be message.
func (s *LogMailService) SendPlainTextEmail(_ context.Context, recipientEmail, subject, body string) error {
	s.logger.Info("mail (log-only delivery)",
		zap.String("to", recipientEmail),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
