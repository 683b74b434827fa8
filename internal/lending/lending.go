// Package lending owns loans: lending a book, returning it, and finding the
// loans that are overdue.
package lending

import (
	"log/slog"

	"library/internal/lending/handler"
	"library/internal/lending/models"
	"library/internal/lending/service"
)

// Loan records one book lent to one customer.
type Loan = models.Loan

// Service exposes lending operations.
type Service = service.Service

// Handler wires HTTP endpoints to the lending service.
type Handler = handler.Handler

// NewService constructs the lending service with required dependencies.
func NewService(loans service.LoanStore, opts ...service.Option) (*Service, error) {
	return service.New(loans, opts...)
}

// NewHandler constructs an HTTP handler for the loan routes.
func NewHandler(s *Service, books handler.BookFinder, logger *slog.Logger) *Handler {
	return handler.New(s, books, logger)
}
