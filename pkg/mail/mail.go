package mail

import (
	"context"
	"fmt"
	"net/smtp"
)

// Mailer delivers transactional email.
type Mailer interface {
	SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error
}

// SMTPMailService delivers mail through a plain SMTP relay.
type SMTPMailService struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	senderEmail  string
}

// NewSMTPMailService configures an SMTP-backed mailer.
func NewSMTPMailService(host, port, username, password, from string) *SMTPMailService {
	return &SMTPMailService{
		smtpHost:     host,
		smtpPort:     port,
		smtpUsername: username,
		smtpPassword: password,
		senderEmail:  from,
	}
}

func (s *SMTPMailService) sendEmail(recipientEmail, subject, body string) error {
	from := s.senderEmail
	to := []string{recipientEmail}

	msg := []byte(
		"From: " + from + "\r\n" +
			"To: " + recipientEmail + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"\r\n" +
			body)

	auth := smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)
	return smtp.SendMail(fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort), auth, from, to, msg)
}

// SendPlainTextEmail sends body as a plain text message, honoring
// context cancellation while the SMTP dialog runs.
func (s *SMTPMailService) SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.sendEmail(recipientEmail, subject, body)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
