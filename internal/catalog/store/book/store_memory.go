package book

import (
	"context"
	"sort"
	"sync"

	"library/internal/catalog/models"
	id "library/pkg/domain"
	"library/pkg/platform/sentinel"
)

// InMemory is a process-local book store. Returned books are copies.
type InMemory struct {
	mu     sync.RWMutex
	books  map[id.BookID]models.Book
	byISBN map[string]id.BookID
	nextID id.BookID
}

func NewInMemory() *InMemory {
	return &InMemory{
		books:  make(map[id.BookID]models.Book),
		byISBN: make(map[string]id.BookID),
	}
}

// Create assigns an id and stores book. Returns sentinel.ErrConflict if the
// isbn is taken.
func (s *InMemory) Create(_ context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byISBN[book.ISBN]; taken {
		return sentinel.ErrConflict
	}
	s.nextID++
	book.ID = s.nextID
	s.books[book.ID] = *book
	s.byISBN[book.ISBN] = book.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, bookID id.BookID) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[bookID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &b, nil
}

func (s *InMemory) FindByISBN(_ context.Context, isbn string) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookID, ok := s.byISBN[isbn]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	b := s.books[bookID]
	return &b, nil
}

func (s *InMemory) ExistsByISBN(_ context.Context, isbn string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byISBN[isbn]
	return ok, nil
}

// Update replaces the stored record. Returns sentinel.ErrNotFound for an
// unknown id and sentinel.ErrConflict if the new isbn belongs to another book.
func (s *InMemory) Update(_ context.Context, book *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.books[book.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner, taken := s.byISBN[book.ISBN]; taken && owner != book.ID {
		return sentinel.ErrConflict
	}
	delete(s.byISBN, current.ISBN)
	s.books[book.ID] = *book
	s.byISBN[book.ISBN] = book.ID
	return nil
}

func (s *InMemory) Delete(_ context.Context, bookID id.BookID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[bookID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.books, bookID)
	delete(s.byISBN, b.ISBN)
	return nil
}

// Find returns matching books ordered by id.
func (s *InMemory) Find(_ context.Context, filter models.BookFilter, page id.PageRequest) (id.Page[models.Book], error) {
	s.mu.RLock()
	matched := make([]models.Book, 0, len(s.books))
	for _, b := range s.books {
		if filter.Matches(b) {
			matched = append(matched, b)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return id.Slice(matched, page), nil
}
