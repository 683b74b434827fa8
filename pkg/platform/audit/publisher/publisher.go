// Package publisher stamps audit events and hands them to a store, either
// inline or through a bounded queue drained by worker.Worker.
package publisher

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	audit "library/pkg/platform/audit"
	"library/pkg/requestcontext"
)

// Publisher implements audit.Emitter.
type Publisher struct {
	store  audit.Store
	queue  chan<- audit.Event
	logger *slog.Logger
}

type Option func(*Publisher)

// WithQueue switches to non-blocking emission: events go to queue and a
// worker persists them. Events are dropped, and logged, when queue is full.
func WithQueue(queue chan<- audit.Event) Option {
	return func(p *Publisher) {
		p.queue = queue
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills in id, timestamp and request metadata, then persists or queues
// the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}

	if p.queue == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.queue <- event:
	default:
		p.logger.WarnContext(ctx, "audit queue full, event dropped",
			"action", event.Action,
			"subject", event.Subject,
			"request_id", event.RequestID,
		)
	}
	return nil
}

// List returns the events recorded for subject.
func (p *Publisher) List(ctx context.Context, subject string) ([]audit.Event, error) {
	return p.store.ListBySubject(ctx, subject)
}
