package service

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
	"library/internal/storage"
	"library/pkg/attrs"
	id "library/pkg/domain"
	dErrors "library/pkg/domain-errors"
	"library/pkg/platform/audit"
	"library/pkg/platform/lock"
	"library/pkg/platform/sentinel"
	"library/pkg/requestcontext"
)

// DefaultOverdueAfterDays is how many days a loan may run before it is late.
const DefaultOverdueAfterDays = 3

type LoanStore interface {
	Create(ctx context.Context, loan *models.Loan) error
	ExistsOutstandingForBook(ctx context.Context, bookID id.BookID) (bool, error)
	FindByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) error
	FindByIsbnOrCustomer(ctx context.Context, filter models.LoanFilter, page id.PageRequest) (id.Page[models.Loan], error)
	FindByBook(ctx context.Context, bookID id.BookID, page id.PageRequest) (id.Page[models.Loan], error)
	FindOverdueUnreturned(ctx context.Context, cutoff time.Time) ([]models.Loan, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the loan lifecycle and guarantees a book has at most one
// outstanding loan.
type Service struct {
	loans            LoanStore
	bookLocks        *lock.Keyed[id.BookID]
	overdueAfterDays int
	storeTimeout     time.Duration
	logger           *slog.Logger
	auditPublisher   AuditPublisher
	metrics          *metrics.Metrics
	tracer           trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithBookLocks shares the per-book lock with the catalog service.
func WithBookLocks(locks *lock.Keyed[id.BookID]) Option {
	return func(s *Service) {
		if locks != nil {
			s.bookLocks = locks
		}
	}
}

// WithOverdueAfterDays sets how many days a loan may run before it is late.
// Values below 1 are ignored: a loan made today is never late.
func WithOverdueAfterDays(days int) Option {
	return func(s *Service) {
		if days >= 1 {
			s.overdueAfterDays = days
		}
	}
}

func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.storeTimeout = d
	}
}

func New(loans LoanStore, opts ...Option) (*Service, error) {
	if loans == nil {
		return nil, errors.New("loan store is required")
	}
	s := &Service{
		loans:            loans,
		bookLocks:        lock.NewKeyed[id.BookID](),
		overdueAfterDays: DefaultOverdueAfterDays,
		storeTimeout:     storage.DefaultTimeout,
		logger:           slog.Default(),
		tracer:           otel.Tracer("library/internal/lending/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Save lends loan.Book to loan.Customer. It fails with book_already_loaned
// when the book has an outstanding loan and persists nothing in that case.
//
// The availability check and the insert run under the book's lock; the store
// rejects a second outstanding loan as well, so the invariant holds across
// processes sharing one database.
func (s *Service) Save(ctx context.Context, loan *models.Loan) (*models.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "lending.Save")
	defer span.End()

	if loan == nil {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "loan is required")
	}
	pending := *loan
	pending.ID = 0
	pending.Status = models.StatusOutstanding
	if pending.LoanDate.IsZero() {
		pending.LoanDate = requestcontext.Today(ctx)
	}
	pending.LoanDate = models.DateOf(pending.LoanDate)
	if err := pending.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("book.id", int64(pending.Book.ID)))

	ctx, cancel := storage.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	unlock, err := s.bookLocks.LockContext(ctx, pending.Book.ID)
	if err != nil {
		return nil, storage.Translate(err, "failed to lock book")
	}
	defer unlock()

	loaned, err := s.loans.ExistsOutstandingForBook(ctx, pending.Book.ID)
	if err != nil {
		return nil, storage.Translate(err, "failed to check book availability")
	}
	if loaned {
		s.incrementLoanConflicts()
		return nil, dErrors.New(dErrors.CodeBookAlreadyLoaned, "book already loaned")
	}

	if err := s.loans.Create(ctx, &pending); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.incrementLoanConflicts()
			return nil, dErrors.New(dErrors.CodeBookAlreadyLoaned, "book already loaned")
		}
		return nil, storage.Translate(err, "failed to create loan")
	}

	s.incrementLoansCreated()
	s.logAudit(ctx, audit.ActionLoanCreated,
		"loan_id", pending.ID.String(),
		"book_id", pending.Book.ID.String(),
		"customer", pending.Customer,
	)
	return &pending, nil
}

// GetByID returns the loan, or nil and no error when it does not exist.
func (s *Service) GetByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "lending.GetByID")
	defer span.End()

	ctx, cancel := storage.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, storage.Translate(err, "failed to load loan")
	}
	return loan, nil
}

// Update persists the loan's status and returns the stored record. Marking a
// loan returned frees its book for a new loan.
func (s *Service) Update(ctx context.Context, loan *models.Loan) (*models.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "lending.Update")
	defer span.End()

	if loan == nil || loan.ID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "loan id is required")
	}

	ctx, cancel := storage.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if !loan.Book.ID.IsZero() {
		unlock, err := s.bookLocks.LockContext(ctx, loan.Book.ID)
		if err != nil {
			return nil, storage.Translate(err, "failed to lock book")
		}
		defer unlock()
	}

	updated := *loan
	if err := s.loans.Update(ctx, &updated); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "loan not found")
		case errors.Is(err, sentinel.ErrConflict):
			s.incrementLoanConflicts()
			return nil, dErrors.New(dErrors.CodeBookAlreadyLoaned, "book already loaned")
		}
		return nil, storage.Translate(err, "failed to update loan")
	}

	action := audit.ActionLoanUpdated
	if updated.Returned() {
		action = audit.ActionLoanReturned
		s.incrementLoansReturned()
	}
	s.logAudit(ctx, action,
		"loan_id", updated.ID.String(),
		"book_id", updated.Book.ID.String(),
		"status", string(updated.Status),
	)
	return &updated, nil
}

// Find pages through loans whose book isbn or customer equals the filter's.
// A filter with neither field set matches nothing.
func (s *Service) Find(ctx context.Context, filter models.LoanFilter, page id.PageRequest) (id.Page[models.Loan], error) {
	ctx, span := s.tracer.Start(ctx, "lending.Find")
	defer span.End()

	if filter.IsEmpty() {
		return id.NewPage[models.Loan](nil, 0, page), nil
	}

	ctx, cancel := storage.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	result, err := s.loans.FindByIsbnOrCustomer(ctx, filter, page)
	if err != nil {
		return id.Page[models.Loan]{}, storage.Translate(err, "failed to search loans")
	}
	return result, nil
}

// GetLoansByBook pages through every loan of the book, returned or not.
func (s *Service) GetLoansByBook(ctx context.Context, bookID id.BookID, page id.PageRequest) (id.Page[models.Loan], error) {
	ctx, span := s.tracer.Start(ctx, "lending.GetLoansByBook")
	defer span.End()

	ctx, cancel := storage.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	result, err := s.loans.FindByBook(ctx, bookID, page)
	if err != nil {
		return id.Page[models.Loan]{}, storage.Translate(err, "failed to load book loans")
	}
	return result, nil
}

// GetAllLateLoans returns every outstanding loan dated on or before today
// minus the overdue threshold.
func (s *Service) GetAllLateLoans(ctx context.Context) ([]models.Loan, error) {
	ctx, span := s.tracer.Start(ctx, "lending.GetAllLateLoans")
	defer span.End()

	cutoff := models.OverdueCutoff(requestcontext.Today(ctx), s.overdueAfterDays)
	span.SetAttributes(attribute.String("loan.cutoff", cutoff.Format(time.DateOnly)))

	ctx, cancel := storage.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	late, err := s.loans.FindOverdueUnreturned(ctx, cutoff)
	if err != nil {
		return nil, storage.Translate(err, "failed to load late loans")
	}
	return late, nil
}

// OverdueAfterDays reports the configured threshold.
func (s *Service) OverdueAfterDays() int {
	return s.overdueAfterDays
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(action), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	loanID := attrs.ExtractString(attributes, "loan_id")
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:  action,
		Subject: fmt.Sprintf("loan:%s", loanID),
		Detail:  attrs.Detail(attributes, "loan_id", "request_id"),
	})
}

func (s *Service) incrementLoansCreated() {
	if s.metrics != nil {
		s.metrics.IncrementLoansCreated()
	}
}

func (s *Service) incrementLoanConflicts() {
	if s.metrics != nil {
		s.metrics.IncrementLoanConflicts()
	}
}

func (s *Service) incrementLoansReturned() {
	if s.metrics != nil {
		s.metrics.IncrementLoansReturned()
	}
}
