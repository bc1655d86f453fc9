package config

import (
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"os"
	"strings"
)

// Mailer sends outbound notification email. Kept as an interface so
// handlers can be tested without a real SMTP server.
type Mailer interface {
	Send(to, subject, text, html string) error
}

var Mail Mailer

type smtpMailer struct {
	host string
	port string
	user string
	pass string
	from string
}

// InitMailer configures the shared SMTP mailer. Optional: when SMTP_HOST is
// not set a no-op mailer that only logs is installed, so signing flows keep
// working in development.
func InitMailer() {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		slog.Warn("SMTP_HOST not set, outbound email disabled")
		Mail = logMailer{}
		return
	}

	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}

	Mail = &smtpMailer{
		host: host,
		port: port,
		user: os.Getenv("SMTP_USER"),
		pass: os.Getenv("SMTP_PASS"),
		from: os.Getenv("SMTP_FROM"),
	}
	slog.Info("SMTP mailer initialized", "host", host)
}

func (m *smtpMailer) Send(to, subject, text, html string) error {
	boundary := "np-mail-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, text)
	if html != "" {
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, html)
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.pass, m.host)
	}
	return smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{to}, []byte(b.String()))
}

type logMailer struct{}

func (logMailer) Send(to, subject, text, html string) error {
	slog.Info("Email suppressed (no SMTP configured)", "to", to, "subject", subject)
	return nil
}
