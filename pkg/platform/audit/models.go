package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names a recorded state change.
type Action string

const (
	ActionBookCreated     Action = "book_created"
	ActionBookUpdated     Action = "book_updated"
	ActionBookDeleted     Action = "book_deleted"
	ActionLoanCreated     Action = "loan_created"
	ActionLoanUpdated     Action = "loan_updated"
	ActionLoanReturned    Action = "loan_returned"
	ActionOverdueNotified Action = "overdue_notified"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        uuid.UUID
	Timestamp time.Time
	Action    Action
	// Subject identifies the affected entity, e.g. "book:12" or "loan:7".
	Subject   string
	Detail    string
	RequestID string
	ClientIP  string
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string) ([]Event, error)
}

// Emitter is what services depend on.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}
