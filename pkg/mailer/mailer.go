// Package mailer sends transactional email through Resend.
package mailer

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
)

type Mailer interface {
	SendPasswordReset(to, resetURL string) error
	SendAdminResetCode(to, code string) error
	SendSubscriptionConfirmation(to, planTitle string) error
}

type ResendMailer struct {
	client *resend.Client
	from   string
}

var _ Mailer = (*ResendMailer)(nil)

func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

func (m *ResendMailer) SendPasswordReset(to, resetURL string) error {
	html := fmt.Sprintf(`<p>You requested a password reset. This link is valid for 10 minutes.</p><p><a href=%q>Reset your password</a></p>`, resetURL)
	return m.send(to, "Reset your password", html)
}

func (m *ResendMailer) SendAdminResetCode(to, code string) error {
	html := fmt.Sprintf(`<p>Your verification code is <strong>%s</strong>. It expires in 10 minutes.</p>`, code)
	return m.send(to, "Your verification code", html)
}

func (m *ResendMailer) SendSubscriptionConfirmation(to, planTitle string) error {
	html := fmt.Sprintf(`<p>Your %s subscription is now active. Enjoy!</p>`, planTitle)
	return m.send(to, "Subscription confirmed", html)
}

func (m *ResendMailer) send(to, subject, html string) error {
	_, err := m.client.Emails.Send(&resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	return errors.WithStack(err)
}
