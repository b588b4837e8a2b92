package notify

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/hamed0406/uptimeengine/internal/domain"
)

const senderName = "Uptime Monitor"

// Email delivers through SendGrid when an API key is configured and falls
// back to plain SMTP otherwise. Credentials are read on every send so a
// settings change needs no restart.
type Email struct {
	Settings domain.SettingsProvider
	// Transports are swappable for tests.
	SendGrid func(ctx context.Context, apiKey string, m *mail.SGMailV3) error
	SMTP     func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewEmail(settings domain.SettingsProvider) *Email {
	return &Email{Settings: settings, SendGrid: sendGrid, SMTP: smtp.SendMail}
}

func (e *Email) Send(ctx context.Context, to domain.Notification, msg Message) error {
	if to.Address == "" {
		return errors.New("email: empty address")
	}
	s, err := e.Settings.Settings(ctx)
	if err != nil {
		return fmt.Errorf("email: load settings: %w", err)
	}
	if s.SMTP.From == "" {
		return errors.New("email: no sender address configured")
	}

	if s.SendGridAPIKey != "" {
		from := mail.NewEmail(senderName, s.SMTP.From)
		rcpt := mail.NewEmail("", to.Address)
		return e.SendGrid(ctx, s.SendGridAPIKey, mail.NewSingleEmail(from, msg.Title, rcpt, msg.Text, msg.HTML()))
	}

	if s.SMTP.Host == "" {
		return errors.New("email: neither sendgrid nor smtp configured")
	}
	port := s.SMTP.Port
	if port == 0 {
		port = 587
	}
	var auth smtp.Auth
	if s.SMTP.User != "" {
		auth = smtp.PlainAuth("", s.SMTP.User, s.SMTP.Password, s.SMTP.Host)
	}
	addr := net.JoinHostPort(s.SMTP.Host, strconv.Itoa(port))
	if err := e.SMTP(addr, auth, s.SMTP.From, []string{to.Address}, mimeMessage(s.SMTP.From, to.Address, msg)); err != nil {
		return fmt.Errorf("email: smtp %s: %w", addr, err)
	}
	return nil
}

func sendGrid(ctx context.Context, apiKey string, m *mail.SGMailV3) error {
	resp, err := sendgrid.NewSendClient(apiKey).SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("email: sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("email: sendgrid status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func mimeMessage(from, to string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", senderName, from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Title))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.HTML())
	return []byte(b.String())
}
