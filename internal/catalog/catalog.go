// Package catalog owns books: registration, lookup, search and removal.
package catalog

import (
	"log/slog"

	"library/internal/catalog/handler"
	"library/internal/catalog/models"
	"library/internal/catalog/service"
)

// Book is a catalog entry.
type Book = models.Book

// Service exposes catalog operations.
type Service = service.Service

// Handler wires HTTP endpoints to the catalog service.
type Handler = handler.Handler

// NewService constructs the catalog service with required dependencies.
func NewService(books service.BookStore, loans service.LoanChecker, opts ...service.Option) (*Service, error) {
	return service.New(books, loans, opts...)
}

// NewHandler constructs an HTTP handler for the book routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
