package mail

import (
	"go.uber.org/zap"

	"github.com/spec-kit/commerce-service/internal/config"
)

// NewMailerService picks a provider from configuration: Resend when an
// API key is present, SMTP when a host is set, otherwise log-only.
func NewMailerService(cfg config.MailConfig, logger *zap.Logger) Mailer {
	switch {
	case cfg.ResendAPIKey != "":
		logger.Info("mail provider: resend")
		return NewResendMailService(cfg.ResendAPIKey, cfg.SenderEmail)
	case cfg.SMTPHost != "":
		logger.Info("mail provider: smtp", zap.String("host", cfg.SMTPHost))
		return NewSMTPMailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SenderEmail)
	default:
		logger.Warn("mail provider unconfigured; falling back to log-only delivery")
		return NewLogMailService(logger)
	}
}
