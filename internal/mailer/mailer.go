// Package mailer sends transactional email over SMTP: OTP verification
// links and license-expiry warnings. When SMTP is not configured the mailer
// logs the message instead of sending, so development works without a relay.
package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"moonui/internal/otp"
)

// Mailer wraps an SMTP client with the application's from address.
type Mailer struct {
	client *mail.Client
	from   string
}

// New creates a Mailer. Returns a log-only mailer when host is empty,
// allowing the app to start without SMTP credentials.
func New(host string, port int, username, password, from string) (*Mailer, error) {
	if host == "" {
		slog.Warn("smtp not configured — emails will be logged, not sent")
		return &Mailer{from: from}, nil
	}

	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
	)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &Mailer{client: client, from: from}, nil
}

// send builds and delivers a plain-text message.
func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if m.client == nil {
		slog.Info("email (smtp disabled)", "to", to, "subject", subject)
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mail send: %w", err)
	}
	return nil
}

// SendOTP emails a one-time code and its signed verification link.
func (m *Mailer) SendOTP(ctx context.Context, email string, purpose otp.Purpose, code, link string) error {
	subject := "Your MoonUI Design verification code"
	if purpose == otp.PurposeReset {
		subject = "Reset your MoonUI Design password"
	}

	body := fmt.Sprintf(
		"Your verification code is %s.\n\n"+
			"You can also follow this link directly:\n%s\n\n"+
			"The code expires in 10 minutes. If you did not request it, ignore this email.\n",
		code, link,
	)
	return m.send(ctx, email, subject, body)
}

// SendInvite emails a dashboard invitation with its acceptance link.
func (m *Mailer) SendInvite(ctx context.Context, email, role, link string) error {
	body := fmt.Sprintf(
		"You have been invited to the MoonUI Design dashboard with the %s role.\n\n"+
			"Accept the invite and set your password here:\n%s\n\n"+
			"The invite expires in 7 days. If you were not expecting it, ignore this email.\n",
		role, link,
	)
	return m.send(ctx, email, "You are invited to the MoonUI Design dashboard", body)
}

// SendExpiryWarning emails a renewal reminder for a license expiring in
// seven days.
func (m *Mailer) SendExpiryWarning(ctx context.Context, email, licenseKey string, expiresAt string) error {
	body := fmt.Sprintf(
		"Your MoonUI Design subscription license %s expires on %s.\n\n"+
			"Renew before then to keep access to pro components, templates, and designs.\n",
		licenseKey, expiresAt,
	)
	return m.send(ctx, email, "Your MoonUI Design license expires in 7 days", body)
}
