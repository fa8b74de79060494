package pkg

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer delivers mail through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg  SMTPConfig
	send func(...*gomail.Message) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	return &SMTPMailer{cfg: cfg, send: d.DialAndSend}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	// gomail has no dial timeout; the send keeps running in the background
	// if ctx ends first.
	done := make(chan error, 1)
	go func() { done <- m.send(msg) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", to, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send mail to %s: %w", to, ctx.Err())
	}
}

// LogMailer writes outgoing mail to the log instead of sending it.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mailer").Logger()}
}

func (m *LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.log.Info().Str("to", to).Str("subject", subject).Str("body", htmlBody).Msg("mail not sent, smtp disabled")
	return nil
}

func ResetPasswordHTML(project, email, link string, ttl time.Duration) string {
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>We received a request to reset the password of your %s account.</p>
<p><a href="%s">Reset your password</a></p>
<p>The link is valid for %d minutes. If you did not ask for a reset, ignore this email.</p>`,
		html.EscapeString(email), html.EscapeString(project), html.EscapeString(link), int(ttl.Minutes()))
}
