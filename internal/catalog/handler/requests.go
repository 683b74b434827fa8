package handler

import (
	"strings"

	"library/internal/catalog/models"
	dErrors "library/pkg/domain-errors"
)

// CreateBookRequest is the body of POST /api/books.
type CreateBookRequest struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Validate trims fields and checks them against the book rules.
func (r *CreateBookRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	r.ISBN = strings.TrimSpace(r.ISBN)
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	return r.toModel().Validate()
}

func (r *CreateBookRequest) toModel() *models.Book {
	return &models.Book{ISBN: r.ISBN, Title: r.Title, Author: r.Author}
}

// UpdateBookRequest is the body of PUT /api/books/{id}. The isbn of a book
// cannot change, so only title and author are accepted.
type UpdateBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

func (r *UpdateBookRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required")
	}
	if r.Author == "" {
		return dErrors.New(dErrors.CodeValidation, "author is required")
	}
	return nil
}

// applyTo replaces the mutable fields of book and re-checks length bounds.
func (r *UpdateBookRequest) applyTo(book *models.Book) error {
	book.Title = r.Title
	book.Author = r.Author
	return book.Validate()
}
