package loan

import (
	"context"
	"sort"
	"sync"
	"time"

	"library/internal/lending/models"
	id "library/pkg/domain"
	"library/pkg/platform/sentinel"
)

// InMemory keeps loans in process memory. The outstanding-loan check and the
// insert happen under one lock, so concurrent creates for a book serialize.
type InMemory struct {
	mu          sync.RWMutex
	loans       map[id.LoanID]models.Loan
	outstanding map[id.BookID]id.LoanID
	nextID      id.LoanID
}

func NewInMemory() *InMemory {
	return &InMemory{
		loans:       make(map[id.LoanID]models.Loan),
		outstanding: make(map[id.BookID]id.LoanID),
	}
}

// Create assigns an id and stores loan. Returns sentinel.ErrConflict if the
// book already has an outstanding loan.
func (s *InMemory) Create(_ context.Context, loan *models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if loan.Outstanding() {
		if _, taken := s.outstanding[loan.Book.ID]; taken {
			return sentinel.ErrConflict
		}
	}
	s.nextID++
	loan.ID = s.nextID
	if loan.Status == "" {
		loan.Status = models.StatusOutstanding
	}
	s.loans[loan.ID] = *loan
	if loan.Outstanding() {
		s.outstanding[loan.Book.ID] = loan.ID
	}
	return nil
}

func (s *InMemory) ExistsOutstandingForBook(_ context.Context, bookID id.BookID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.outstanding[bookID]
	return ok, nil
}

func (s *InMemory) FindByID(_ context.Context, loanID id.LoanID) (*models.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.loans[loanID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &l, nil
}

// Update stores the loan's status. Other fields are fixed at creation.
func (s *InMemory) Update(_ context.Context, loan *models.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.loans[loan.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	bookID := current.Book.ID
	if loan.Outstanding() {
		if owner, taken := s.outstanding[bookID]; taken && owner != loan.ID {
			return sentinel.ErrConflict
		}
		s.outstanding[bookID] = loan.ID
	} else if s.outstanding[bookID] == loan.ID {
		delete(s.outstanding, bookID)
	}
	current.Status = models.StatusFromReturned(loan.Returned())
	s.loans[loan.ID] = current
	*loan = current
	return nil
}

func (s *InMemory) FindByIsbnOrCustomer(_ context.Context, filter models.LoanFilter, page id.PageRequest) (id.Page[models.Loan], error) {
	return id.Slice(s.collect(filter.Matches), page), nil
}

func (s *InMemory) FindByBook(_ context.Context, bookID id.BookID, page id.PageRequest) (id.Page[models.Loan], error) {
	return id.Slice(s.collect(func(l models.Loan) bool { return l.Book.ID == bookID }), page), nil
}

// FindOverdueUnreturned returns outstanding loans dated on or before cutoff,
// oldest first.
func (s *InMemory) FindOverdueUnreturned(_ context.Context, cutoff time.Time) ([]models.Loan, error) {
	late := s.collect(func(l models.Loan) bool {
		return l.Outstanding() && !l.LoanDate.After(cutoff)
	})
	sort.SliceStable(late, func(i, j int) bool { return late[i].LoanDate.Before(late[j].LoanDate) })
	return late, nil
}

// collect returns matching loans ordered by id.
func (s *InMemory) collect(match func(models.Loan) bool) []models.Loan {
	s.mu.RLock()
	out := make([]models.Loan, 0)
	for _, l := range s.loans {
		if match(l) {
			out = append(out, l)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
