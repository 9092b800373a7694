package mail

import (
	"context"

	"github.com/resend/resend-go/v2"
)

// ResendMailService delivers mail through the Resend API.
type ResendMailService struct {
	client      *resend.Client
	senderEmail string
}

// NewResendMailService configures a Resend-backed mailer.
func NewResendMailService(apiKey, from string) *ResendMailService {
	return &ResendMailService{
		client:      resend.NewClient(apiKey),
		senderEmail: from,
	}
}

// SendPlainTextEmail sends body as a plain text message.
func (s *ResendMailService) SendPlainTextEmail(ctx context.Context, recipientEmail, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.senderEmail,
		To:      []string{recipientEmail},
		Subject: subject,
		Text:    body,
	}
	_, err := s.client.Emails.SendWithContext(ctx, params)
	return err
}
