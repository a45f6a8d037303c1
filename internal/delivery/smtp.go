package delivery

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
)

// SMTPSender implements EmailSender over plain SMTP.
type SMTPSender struct {
	host string
	port int
	from string
	auth smtp.Auth
}

// SMTPConfig holds configuration for an SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
}

// NewSMTPSender creates an SMTP-backed email sender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPSender{host: cfg.Host, port: port, from: cfg.From, auth: auth}
}

// Send sends a multipart text+HTML email.
func (s *SMTPSender) Send(ctx context.Context, to, subject, text, html string) (Receipt, error) {
	if s.host == "" || s.from == "" {
		return Receipt{}, fmt.Errorf("SMTP not configured")
	}

	id := uuid.NewString()
	boundary := "routineforge-" + id[:8]

	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", s.from)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	fmt.Fprintf(&sb, "Message-ID: <%s@routineforge>\r\n", id)
	sb.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&sb, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&sb, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, text)
	if html != "" {
		fmt.Fprintf(&sb, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, html)
	}
	fmt.Fprintf(&sb, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	if err := smtp.SendMail(addr, s.auth, s.from, []string{to}, []byte(sb.String())); err != nil {
		return Receipt{}, fmt.Errorf("failed to send email: %w", err)
	}

	return Receipt{Channel: "email", Target: to, Status: "sent:" + id, OK: true}, nil
}
