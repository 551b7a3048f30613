package notification

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	voucherapp "github.com/vres/backend/internal/application/voucher"
	infraconfig "github.com/vres/backend/internal/infrastructure/config"
)

var _ voucherapp.EmailSender = (*SMTPSender)(nil)

// SMTPSender delivers operational email over plain SMTP with optional
// AUTH PLAIN. Used for operator notifications such as the registration
// sweep digest.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender creates an SMTPSender from configuration
func NewSMTPSender(cfg *infraconfig.EmailConfig) (*SMTPSender, error) {
	if cfg == nil {
		return nil, errors.New("email configuration is required")
	}
	if cfg.Host == "" {
		return nil, errors.New("email host is required")
	}
	if cfg.From == "" {
		return nil, errors.New("email sender address is required")
	}

	port := cfg.Port
	if port == 0 {
		port = 587
	}

	return &SMTPSender{
		host:     cfg.Host,
		port:     port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
	}, nil
}

// SendEmail sends one message to all recipients
func (s *SMTPSender) SendEmail(_ context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return errors.New("at least one recipient is required")
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	if err := smtp.SendMail(addr, auth, s.from, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
