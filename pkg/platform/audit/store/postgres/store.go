package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	pg "library/internal/platform/postgres"
	audit "library/pkg/platform/audit"
)

const tableAuditEvents = "audit_events"

// Store implements audit.Store on the audit_events table.
type Store struct {
	db      *sqlx.DB
	builder goqu.DialectWrapper
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db, builder: goqu.Dialect(pg.Dialect)}
}

type eventRow struct {
	ID         uuid.UUID `db:"id"`
	OccurredAt time.Time `db:"occurred_at"`
	Action     string    `db:"action"`
	Subject    string    `db:"subject"`
	Detail     string    `db:"detail"`
	RequestID  string    `db:"request_id"`
	ClientIP   string    `db:"client_ip"`
}

// Append inserts the event. Replays of the same id are ignored.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query, args, err := s.builder.Insert(tableAuditEvents).Prepared(true).Rows(goqu.Record{
		"id":          event.ID,
		"occurred_at": event.Timestamp,
		"action":      string(event.Action),
		"subject":     event.Subject,
		"detail":      event.Detail,
		"request_id":  event.RequestID,
		"client_ip":   event.ClientIP,
	}).OnConflict(goqu.DoNothing()).ToSQL()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit event: %w", pg.Classify(err))
	}
	return nil
}

// ListBySubject returns events for subject, oldest first.
func (s *Store) ListBySubject(ctx context.Context, subject string) ([]audit.Event, error) {
	query, args, err := s.builder.From(tableAuditEvents).Prepared(true).
		Select("id", "occurred_at", "action", "subject", "detail", "request_id", "client_ip").
		Where(goqu.C("subject").Eq(subject)).
		Order(goqu.C("occurred_at").Asc(), goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build audit query: %w", err)
	}

	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("query audit events: %w", pg.Classify(err))
	}
	events := make([]audit.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, audit.Event{
			ID:        r.ID,
			Timestamp: r.OccurredAt,
			Action:    audit.Action(r.Action),
			Subject:   r.Subject,
			Detail:    r.Detail,
			RequestID: r.RequestID,
			ClientIP:  r.ClientIP,
		})
	}
	return events, nil
}
