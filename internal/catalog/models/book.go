package models

import (
	"strings"

	id "library/pkg/domain"
	dErrors "library/pkg/domain-errors"
)

const (
	maxISBNLength = 32
	maxTextLength = 255
)

// Book is a catalog entry. One Book is one physical copy.
//
// Invariants:
//   - ISBN, Title and Author are non-empty
//   - ISBN is unique across the catalog (enforced by the store)
//   - ID is assigned by the store and never changes
type Book struct {
	ID     id.BookID
	ISBN   string
	Title  string
	Author string
}

// NewBook validates and trims the fields of a book that has no id yet.
func NewBook(isbn, title, author string) (*Book, error) {
	b := &Book{
		ISBN:   strings.TrimSpace(isbn),
		Title:  strings.TrimSpace(title),
		Author: strings.TrimSpace(author),
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks required fields and length bounds.
func (b *Book) Validate() error {
	switch {
	case b.ISBN == "":
		return dErrors.New(dErrors.CodeValidation, "isbn is required")
	case len(b.ISBN) > maxISBNLength:
		return dErrors.New(dErrors.CodeValidation, "isbn must be at most 32 characters")
	case b.Title == "":
		return dErrors.New(dErrors.CodeValidation, "title is required")
	case len(b.Title) > maxTextLength:
		return dErrors.New(dErrors.CodeValidation, "title must be at most 255 characters")
	case b.Author == "":
		return dErrors.New(dErrors.CodeValidation, "author is required")
	case len(b.Author) > maxTextLength:
		return dErrors.New(dErrors.CodeValidation, "author must be at most 255 characters")
	}
	return nil
}

// BookFilter selects books by case-sensitive substring on title and author.
// Empty fields match everything; non-empty fields are AND-combined.
type BookFilter struct {
	Title  string
	Author string
}

// Matches reports whether b satisfies the filter.
func (f BookFilter) Matches(b Book) bool {
	return strings.Contains(b.Title, f.Title) && strings.Contains(b.Author, f.Author)
}
