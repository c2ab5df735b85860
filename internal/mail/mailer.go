package mail

import (
	"fmt"

	"github.com/rs/zerolog/log"
	gomail "gopkg.in/gomail.v2"

	"github.com/stride-app/stride-backend/internal/config"
)

// Mailer sends transactional mail.
type Mailer interface {
	SendVerification(to, code string) error
}

// SMTPMailer sends mail over SMTP using gomail.
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
}

// NewSMTPMailer creates an SMTPMailer from config. Returns nil when no
// SMTP host is configured; callers treat a nil mailer as disabled.
func NewSMTPMailer(cfg config.SMTPConfig, baseURL string) *SMTPMailer {
	if cfg.Host == "" {
		return nil
	}
	return &SMTPMailer{
		dialer:  gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:    cfg.From,
		baseURL: baseURL,
	}
}

// SendVerification sends the email-verification link for the given
// code.
func (m *SMTPMailer) SendVerification(to, code string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Verify Your Email")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Please verify your email by clicking on the following link:\n%s/api/v1/users/verify-email?token=%s",
		m.baseURL, code,
	))

	if err := m.dialer.DialAndSend(msg); err != nil {
		log.Error().Err(err).Str("to", to).Msg("Failed to send verification email")
		return err
	}
	return nil
}
