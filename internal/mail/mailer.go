// Package mail sends transactional email for the auth flows.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// Sender delivers a single message. Implementations are injected into the auth
// service so tests can record sends instead of talking to a mail provider.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail over a plain SMTP transport. Sends run synchronously
// inside the request; a slow provider blocks the caller.
type SMTPMailer struct {
	addr     string
	from     string
	username string
	password string
	host     string
}

func NewSMTPMailer(host string, port int, from, username, password string) *SMTPMailer {
	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", host, port),
		from:     from,
		username: username,
		password: password,
		host:     host,
	}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := smtp.SendMail(m.addr, auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// ResetEmail builds the subject and body for a password-reset message. The raw
// token is embedded in the link; the page at the other end posts it back to
// the reset endpoint.
func ResetEmail(baseURL, token string) (subject, body string) {
	link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(baseURL, "/"), token)
	subject = "Reset your password"
	body = fmt.Sprintf(
		"We received a request to reset your password.\n\n"+
			"Open the link below to choose a new one. The link expires in 1 hour.\n\n"+
			"%s\n\n"+
			"If you did not request this, you can ignore this email.\n",
		link,
	)
	return subject, body
}
