// Package sweep runs the periodic overdue-loan scan and hands borrower
// addresses to the notifier.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"library/internal/lending/metrics"
	"library/internal/lending/models"
	"library/pkg/attrs"
	"library/pkg/email"
	"library/pkg/platform/audit"
	"library/pkg/requestcontext"
)

const (
	DefaultInterval = 24 * time.Hour
	DefaultMessage  = "Attention! You have an overdue loan. Please return the book as soon as possible."
)

type LateLoanFinder interface {
	GetAllLateLoans(ctx context.Context) ([]models.Loan, error)
}

// Notifier delivers message to recipients. It reports nothing back.
type Notifier interface {
	Send(ctx context.Context, message string, recipients []string)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Result summarizes one run.
type Result struct {
	Overdue    int
	Recipients []string
	Notified   bool
}

// Sweep finds late loans and notifies their borrowers in one batch per run.
// A loan that stays late is notified again on every run.
type Sweep struct {
	loans          LateLoanFinder
	notifier       Notifier
	message        string
	interval       time.Duration
	now            func() time.Time
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Sweep)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweep) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Sweep) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Sweep) {
		s.auditPublisher = publisher
	}
}

// WithMessage sets the notice body. Blank messages are ignored.
func WithMessage(message string) Option {
	return func(s *Sweep) {
		if message != "" {
			s.message = message
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(s *Sweep) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Sweep) {
		if now != nil {
			s.now = now
		}
	}
}

func New(loans LateLoanFinder, notifier Notifier, opts ...Option) (*Sweep, error) {
	if loans == nil {
		return nil, errors.New("late loan finder is required")
	}
	if notifier == nil {
		return nil, errors.New("notifier is required")
	}
	s := &Sweep{
		loans:    loans,
		notifier: notifier,
		message:  DefaultMessage,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   slog.Default(),
		tracer:   otel.Tracer("library/internal/lending/sweep"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RunOnce performs a single sweep. The notifier is not called when no late
// loan has a deliverable address.
func (s *Sweep) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	ctx = requestcontext.WithTime(ctx, s.now())
	ctx, span := s.tracer.Start(ctx, "sweep.RunOnce")
	defer span.End()

	late, err := s.loans.GetAllLateLoans(ctx)
	if err != nil {
		s.observe("error", 0, 0, start)
		return Result{}, fmt.Errorf("load late loans: %w", err)
	}

	addresses := make([]string, 0, len(late))
	for _, l := range late {
		addresses = append(addresses, l.CustomerEmail)
	}
	recipients := email.Dedupe(addresses)
	result := Result{Overdue: len(late), Recipients: recipients}
	span.SetAttributes(
		attribute.Int("sweep.overdue", len(late)),
		attribute.Int("sweep.recipients", len(recipients)),
	)

	if len(recipients) == 0 {
		s.logger.InfoContext(ctx, "overdue sweep found nobody to notify", "overdue", len(late))
		s.observe("empty", len(late), 0, start)
		return result, nil
	}

	s.notifier.Send(ctx, s.message, recipients)
	result.Notified = true

	s.observe("notified", len(late), len(recipients), start)
	s.logAudit(ctx, audit.ActionOverdueNotified,
		"overdue", len(late),
		"recipients", len(recipients),
	)
	return result, nil
}

// Run sweeps once per interval until ctx is cancelled. Failed runs are logged
// and retried on the next tick.
func (s *Sweep) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "overdue sweep scheduled", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "overdue sweep failed", "error", err)
			}
		}
	}
}

func (s *Sweep) logAudit(ctx context.Context, action audit.Action, attributes ...any) {
	args := append(attributes, "event", string(action), "log_type", "audit")
	s.logger.InfoContext(ctx, string(action), args...)
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:  action,
		Subject: "sweep",
		Detail:  attrs.Detail(attributes),
	})
}

func (s *Sweep) observe(outcome string, overdue, recipients int, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveSweep(outcome, overdue, recipients, start)
	}
}
