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

	"library/internal/catalog/metrics"
	"library/internal/catalog/models"
	"library/internal/storage"
	"library/pkg/attrs"
	id "library/pkg/domain"
	dErrors "library/pkg/domain-errors"
	"library/pkg/platform/audit"
	"library/pkg/platform/lock"
	"library/pkg/platform/sentinel"
	"library/pkg/requestcontext"
)

type BookStore interface {
	Create(ctx context.Context, book *models.Book) error
	FindByID(ctx context.Context, bookID id.BookID) (*models.Book, error)
	FindByISBN(ctx context.Context, isbn string) (*models.Book, error)
	ExistsByISBN(ctx context.Context, isbn string) (bool, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, bookID id.BookID) error
	Find(ctx context.Context, filter models.BookFilter, page id.PageRequest) (id.Page[models.Book], error)
}

// LoanChecker reports whether a book currently has an outstanding loan.
type LoanChecker interface {
	ExistsOutstandingForBook(ctx context.Context, bookID id.BookID) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service owns the book lifecycle and the isbn uniqueness rule.
type Service struct {
	books          BookStore
	loans          LoanChecker
	bookLocks      *lock.Keyed[id.BookID]
	storeTimeout   time.Duration
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
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

// WithBookLocks shares the per-book lock with the lending service so a
// delete and a loan creation for the same book never interleave.
func WithBookLocks(locks *lock.Keyed[id.BookID]) Option {
	return func(s *Service) {
		if locks != nil {
			s.bookLocks = locks
		}
	}
}

// WithStoreTimeout bounds store calls made without a caller deadline.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.storeTimeout = d
	}
}

// New constructs a Service.
func New(books BookStore, loans LoanChecker, opts ...Option) (*Service, error) {
	if books == nil {
		return nil, errors.New("book store is required")
	}
	if loans == nil {
		return nil, errors.New("loan checker is required")
	}
	s := &Service{
		books:        books,
		loans:        loans,
		bookLocks:    lock.NewKeyed[id.BookID](),
		storeTimeout: storage.DefaultTimeout,
		logger:       slog.Default(),
		tracer:       otel.Tracer("library/internal/catalog/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create registers a new book. Fails with duplicate_isbn if the isbn is taken.
func (s *Service) Create(ctx context.Context, book *models.Book) (*models.Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Create")
	defer span.End()

	if book == nil {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "book is required")
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("book.isbn", book.ISBN))

	ctx, cancel := storage.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	exists, err := s.books.ExistsByISBN(ctx, book.ISBN)
	if err != nil {
		return nil, storage.Translate(err, "failed to check isbn")
	}
	if exists {
		s.incrementDuplicateISBN()
		return nil, dErrors.New(dErrors.CodeDuplicateIsbn, "isbn already registered")
	}

	created := *book
	created.ID = 0
	if err := s.books.Create(ctx, &created); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.incrementDuplicateISBN()
			return nil, dErrors.New(dErrors.CodeDuplicateIsbn, "isbn already registered")
		}
		return nil, storage.Translate(err, "failed to create book")
	}

	s.incrementBooksCreated()
	s.logAudit(ctx, audit.ActionBookCreated, "book_id", created.ID.String(), "isbn", created.ISBN)
	return &created, nil
}

// GetByID returns the book, or nil and no error when it does not exist.
func (s *Service) GetByID(ctx context.Context, bookID id.BookID) (*models.Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.GetByID")
	defer span.End()

	ctx, cancel := storage.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, storage.Translate(err, "failed to load book")
	}
	return book, nil
}

// GetByIsbn returns the book, or nil and no error when it does not exist.
func (s *Service) GetByIsbn(ctx context.Context, isbn string) (*models.Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.GetByIsbn")
	defer span.End()

	ctx, cancel := storage.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	book, err := s.books.FindByISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return nil, storage.Translate(err, "failed to load book")
	}
	return book, nil
}

// Update persists book as a full replacement of the stored record.
func (s *Service) Update(ctx context.Context, book *models.Book) (*models.Book, error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Update")
	defer span.End()

	if book == nil || book.ID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "book id is required")
	}

	ctx, cancel := storage.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	updated := *book
	if err := s.books.Update(ctx, &updated); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "book not found")
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeDuplicateIsbn, "isbn already registered")
		}
		return nil, storage.Translate(err, "failed to update book")
	}

	s.logAudit(ctx, audit.ActionBookUpdated, "book_id", updated.ID.String())
	return &updated, nil
}

// Delete removes the book. A book with an outstanding loan cannot be deleted
// and yields book_on_loan.
func (s *Service) Delete(ctx context.Context, book *models.Book) error {
	ctx, span := s.tracer.Start(ctx, "catalog.Delete")
	defer span.End()

	if book == nil || book.ID.IsZero() {
		return dErrors.New(dErrors.CodeInvalidArgument, "book id is required")
	}
	span.SetAttributes(attribute.Int64("book.id", int64(book.ID)))

	ctx, cancel := storage.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	unlock, err := s.bookLocks.LockContext(ctx, book.ID)
	if err != nil {
		return storage.Translate(err, "failed to lock book")
	}
	defer unlock()

	onLoan, err := s.loans.ExistsOutstandingForBook(ctx, book.ID)
	if err != nil {
		return storage.Translate(err, "failed to check outstanding loans")
	}
	if onLoan {
		s.incrementDeleteRejected()
		return dErrors.New(dErrors.CodeBookOnLoan, "book has an outstanding loan")
	}

	if err := s.books.Delete(ctx, book.ID); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "book not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			s.incrementDeleteRejected()
			return dErrors.New(dErrors.CodeBookOnLoan, "book has an outstanding loan")
		}
		return storage.Translate(err, "failed to delete book")
	}

	s.incrementBooksDeleted()
	s.logAudit(ctx, audit.ActionBookDeleted, "book_id", book.ID.String(), "isbn", book.ISBN)
	return nil
}

// Find pages through books matching filter.
func (s *Service) Find(ctx context.Context, filter models.BookFilter, page id.PageRequest) (id.Page[models.Book], error) {
	ctx, span := s.tracer.Start(ctx, "catalog.Find")
	defer span.End()
	start := time.Now()

	ctx, cancel := storage.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	result, err := s.books.Find(ctx, filter, page)
	if err != nil {
		return id.Page[models.Book]{}, storage.Translate(err, "failed to search books")
	}
	s.observeFind(start)
	return result, nil
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
	bookID := attrs.ExtractString(attributes, "book_id")
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:  action,
		Subject: fmt.Sprintf("book:%s", bookID),
		Detail:  attrs.Detail(attributes, "book_id", "request_id"),
	})
}

func (s *Service) incrementBooksCreated() {
	if s.metrics != nil {
		s.metrics.IncrementBooksCreated()
	}
}

func (s *Service) incrementBooksDeleted() {
	if s.metrics != nil {
		s.metrics.IncrementBooksDeleted()
	}
}

func (s *Service) incrementDuplicateISBN() {
	if s.metrics != nil {
		s.metrics.IncrementDuplicateISBN()
	}
}

func (s *Service) incrementDeleteRejected() {
	if s.metrics != nil {
		s.metrics.IncrementDeleteRejected()
	}
}

func (s *Service) observeFind(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveFind(start)
	}
}
