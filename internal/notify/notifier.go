// Package notify delivers overdue notices to borrowers. Delivery is
// fire-and-forget: transport failures are logged and counted, never returned.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"library/pkg/email"
	"library/pkg/platform/circuit"
	"library/pkg/requestcontext"
)

// Subject is the subject line of every overdue notice.
const Subject = "Overdue book loan"

// Message is one notice addressed to a batch of recipients.
type Message struct {
	Subject    string
	Body       string
	Recipients []string
	SentAt     time.Time
}

// Transport moves a message to its recipients.
type Transport interface {
	Name() string
	Deliver(ctx context.Context, msg Message) error
}

// Notifier guards a Transport with a circuit breaker so a dead transport is
// skipped for the cooldown instead of being retried on every send.
type Notifier struct {
	transport Transport
	breaker   *circuit.Breaker
	logger    *slog.Logger
	metrics   *Metrics
}

type Option func(*Notifier)

func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(n *Notifier) {
		n.metrics = m
	}
}

// WithBreaker replaces the default breaker (5 failures, one minute cooldown).
func WithBreaker(b *circuit.Breaker) Option {
	return func(n *Notifier) {
		if b != nil {
			n.breaker = b
		}
	}
}

func New(transport Transport, opts ...Option) (*Notifier, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	n := &Notifier{
		transport: transport,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.breaker == nil {
		n.breaker = circuit.New("notify."+transport.Name(), circuit.WithCooldown(time.Minute))
	}
	return n, nil
}

// Send delivers message to recipients. Blank and duplicate addresses are
// dropped first; nothing is sent when no recipient is left.
func (n *Notifier) Send(ctx context.Context, message string, recipients []string) {
	recipients = email.Dedupe(recipients)
	if len(recipients) == 0 {
		return
	}
	transport := n.transport.Name()

	if !n.breaker.Allow() {
		n.logger.WarnContext(ctx, "notification skipped, transport circuit open",
			"transport", transport,
			"recipients", len(recipients),
		)
		n.observe(transport, "skipped", len(recipients))
		return
	}

	msg := Message{
		Subject:    Subject,
		Body:       message,
		Recipients: recipients,
		SentAt:     requestcontext.Now(ctx),
	}
	if err := n.transport.Deliver(ctx, msg); err != nil {
		_, change := n.breaker.RecordFailure()
		if change.Opened {
			n.logger.ErrorContext(ctx, "notification transport circuit opened", "transport", transport)
		}
		n.logger.ErrorContext(ctx, "failed to deliver notification",
			"transport", transport,
			"recipients", len(recipients),
			"error", err,
		)
		n.observe(transport, "failed", len(recipients))
		return
	}

	if _, change := n.breaker.RecordSuccess(); change.Closed {
		n.logger.InfoContext(ctx, "notification transport circuit closed", "transport", transport)
	}
	n.logger.InfoContext(ctx, "notification delivered",
		"transport", transport,
		"recipients", len(recipients),
	)
	n.observe(transport, "delivered", len(recipients))
}

func (n *Notifier) observe(transport, outcome string, recipients int) {
	if n.metrics != nil {
		n.metrics.ObserveSend(transport, outcome, recipients)
	}
}
