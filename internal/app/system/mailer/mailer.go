// internal/app/system/mailer/mailer.go
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email is one outbound message with both HTML and plain-text bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers emails. All sends in the app are best-effort: callers
// wrap Send in notify.BestEffort, so a failing sender never alters a
// workflow outcome.
type Sender interface {
	Send(email Email) error
}

// SMTPSender sends through a plain SMTP relay (Mailpit locally, SES or
// similar in production).
type SMTPSender struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
	Log      *zap.Logger
}

// NewSMTPSender builds a sender from the mail_* config values.
func NewSMTPSender(host string, port int, user, pass, from, fromName string, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{
		Host: host, Port: port,
		User: user, Pass: pass,
		From: from, FromName: fromName,
		Log: logger,
	}
}

// Send delivers one email as a multipart/alternative message.
func (s *SMTPSender) Send(email Email) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	msg := s.buildMessage(email)
	if err := smtp.SendMail(addr, auth, s.From, []string{email.To}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", email.To, err)
	}
	return nil
}

func (s *SMTPSender) buildMessage(email Email) []byte {
	const boundary = "fellowhub-alt-boundary"

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.FromName, s.From)
	fmt.Fprintf(&b, "To: %s\r\n", email.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(email.TextBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(email.HTMLBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

// DummySender records emails instead of delivering them. Tests use it to
// assert on notification fan-out.
type DummySender struct {
	Sent []Email
	Err  error // returned from Send when non-nil, to exercise failure paths
}

func (d *DummySender) Send(email Email) error {
	if d.Err != nil {
		return d.Err
	}
	d.Sent = append(d.Sent, email)
	return nil
}
