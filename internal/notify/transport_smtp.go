package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SendMailFunc matches smtp.SendMail.
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPTransport mails one message with every recipient on the envelope and
// none in the headers, so borrowers do not see each other.
type SMTPTransport struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail SendMailFunc
}

type SMTPOption func(*SMTPTransport)

// WithSendMail overrides the delivery function (tests).
func WithSendMail(fn SendMailFunc) SMTPOption {
	return func(t *SMTPTransport) {
		if fn != nil {
			t.sendMail = fn
		}
	}
}

// NewSMTPTransport builds a transport for the server at addr ("host:port").
// PLAIN auth is used when username is set.
func NewSMTPTransport(addr, from, username, password string, opts ...SMTPOption) *SMTPTransport {
	t := &SMTPTransport{addr: addr, from: from, sendMail: smtp.SendMail}
	if username != "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		t.auth = smtp.PlainAuth("", username, password, host)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *SMTPTransport) Name() string { return "smtp" }

// Deliver sends msg. smtp.SendMail has no context support, so ctx only
// short-circuits a send that is already cancelled.
func (t *SMTPTransport) Deliver(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.sendMail(t.addr, t.auth, t.from, msg.Recipients, t.render(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (t *SMTPTransport) render(msg Message) []byte {
	sentAt := msg.SentAt
	if sentAt.IsZero() {
		sentAt = time.Now()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", t.from)
	fmt.Fprintf(&b, "To: undisclosed-recipients:;\r\n")
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", sentAt.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
