package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"norgeskole/internal/domain"
)

// Mailer delivers invite links by e-mail
type Mailer interface {
	SendInvite(ctx context.Context, to, inviteURL string, role domain.Role) error
}

// sesAPI is the part of the SES client the mailer uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESMailer sends e-mail through Amazon SES
type SESMailer struct {
	client    sesAPI
	fromEmail string
	fromName  string
	enabled   bool
	logger    *zap.Logger
}

// NewSESMailer creates a mailer. An empty fromEmail yields a disabled mailer that only logs.
func NewSESMailer(ctx context.Context, region, fromEmail, fromName string, logger *zap.Logger) (*SESMailer, error) {
	if fromEmail == "" {
		logger.Info("Email disabled: SES_FROM_EMAIL not configured")
		return &SESMailer{logger: logger}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("Email enabled", zap.String("from", fromEmail), zap.String("region", region))
	return newSESMailer(sesv2.NewFromConfig(cfg), fromEmail, fromName, logger), nil
}

func newSESMailer(client sesAPI, fromEmail, fromName string, logger *zap.Logger) *SESMailer {
	return &SESMailer{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
		logger:    logger,
	}
}

// Enabled reports whether mail is actually sent
func (m *SESMailer) Enabled() bool {
	return m.enabled
}

// SendInvite e-mails an invite link for the given role
func (m *SESMailer) SendInvite(ctx context.Context, to, inviteURL string, role domain.Role) error {
	if !m.enabled {
		m.logger.Info("Skipping invite email (disabled)", zap.String("to", to), zap.String("role", string(role)))
		return nil
	}

	subject := fmt.Sprintf("Invitasjon til Norgeskole som %s", role.Label())
	textBody := fmt.Sprintf(`Hei!

Du er invitert til Norgeskole som %s.

Åpne lenken under for å opprette kontoen din:
%s

---
Dette er en automatisk e-post fra Norgeskole. Ikke svar på denne.
`, role.Label(), inviteURL)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h1>Velkommen til Norgeskole</h1>
	<p>Du er invitert som <strong>%s</strong>.</p>
	<p><a href="%s">Opprett konto</a></p>
	<p style="font-size: 12px; color: #666;">%s</p>
</body>
</html>
`, role.Label(), inviteURL, inviteURL)

	return m.send(ctx, to, subject, htmlBody, textBody)
}

func (m *SESMailer) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	from := m.fromEmail
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	m.logger.Info("Email sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("message_id", aws.ToString(result.MessageId)),
	)
	return nil
}
