// Package loan holds the lending module's loan stores.
package loan

import (
	"context"
	"time"

	"library/internal/lending/models"
	id "library/pkg/domain"
)

// Store is the contract every loan store satisfies. Unknown ids return
// sentinel.ErrNotFound. Writes that would leave a book with two outstanding
// loans return sentinel.ErrConflict.
type Store interface {
	Create(ctx context.Context, loan *models.Loan) error
	ExistsOutstandingForBook(ctx context.Context, bookID id.BookID) (bool, error)
	FindByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) error
	FindByIsbnOrCustomer(ctx context.Context, filter models.LoanFilter, page id.PageRequest) (id.Page[models.Loan], error)
	FindByBook(ctx context.Context, bookID id.BookID, page id.PageRequest) (id.Page[models.Loan], error)
	FindOverdueUnreturned(ctx context.Context, cutoff time.Time) ([]models.Loan, error)
}

var (
	_ Store = (*InMemory)(nil)
	_ Store = (*PostgresStore)(nil)
)
