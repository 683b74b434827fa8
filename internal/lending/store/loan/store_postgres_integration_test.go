//go:build integration

package loan_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	catalog "library/internal/catalog/models"
	"library/internal/catalog/store/book"
	"library/internal/lending/models"
	"library/internal/lending/store/loan"
	id "library/pkg/domain"
	"library/pkg/platform/sentinel"
	"library/pkg/testutil/containers"
)

type PostgresLoanStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	books    *book.PostgresStore
	store    *loan.PostgresStore
	ctx      context.Context
	today    time.Time
}

func TestPostgresLoanStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLoanStoreSuite))
}

func (s *PostgresLoanStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.books = book.NewPostgres(s.postgres.DB)
	s.store = loan.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
	s.today = models.DateOf(time.Now())
}

func (s *PostgresLoanStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "loans", "books"))
}

func (s *PostgresLoanStoreSuite) book(isbn string) catalog.Book {
	b := &catalog.Book{ISBN: isbn, Title: "Title " + isbn, Author: "Author"}
	s.Require().NoError(s.books.Create(s.ctx, b))
	return *b
}

func (s *PostgresLoanStoreSuite) lend(b catalog.Book, customer string, daysAgo int) *models.Loan {
	l := &models.Loan{
		Book:          b,
		Customer:      customer,
		CustomerEmail: customer + "@email.com",
		LoanDate:      s.today.AddDate(0, 0, -daysAgo),
		Status:        models.StatusOutstanding,
	}
	s.Require().NoError(s.store.Create(s.ctx, l))
	return l
}

func (s *PostgresLoanStoreSuite) TestCreateAndFind() {
	b := s.book("123")
	l := s.lend(b, "fulano", 1)

	found, err := s.store.FindByID(s.ctx, l.ID)
	s.Require().NoError(err)
	s.Equal(b, found.Book)
	s.Equal("fulano", found.Customer)
	s.True(found.LoanDate.Equal(s.today.AddDate(0, 0, -1)))
	s.True(found.Outstanding())

	_, err = s.store.FindByID(s.ctx, l.ID+100)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentCreate verifies the partial unique index turns a race between
// creates for one book into a single outstanding loan.
func (s *PostgresLoanStoreSuite) TestConcurrentCreate() {
	b := s.book("race")

	const goroutines = 30
	var wg sync.WaitGroup
	var created, conflicts atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(s.ctx, &models.Loan{Book: b, Customer: "c", LoanDate: s.today})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			default:
				s.Failf("unexpected error", "%v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresLoanStoreSuite) TestReturnAndReopen() {
	b := s.book("ret")
	first := s.lend(b, "fulano", 5)

	first.MarkReturned()
	s.Require().NoError(s.store.Update(s.ctx, first))
	s.True(first.Returned())

	exists, err := s.store.ExistsOutstandingForBook(s.ctx, b.ID)
	s.Require().NoError(err)
	s.False(exists)

	s.lend(b, "ciclano", 0)

	reopened := *first
	reopened.Status = models.StatusOutstanding
	s.ErrorIs(s.store.Update(s.ctx, &reopened), sentinel.ErrConflict)

	s.ErrorIs(s.store.Update(s.ctx, &models.Loan{ID: 9999}), sentinel.ErrNotFound)
}

func (s *PostgresLoanStoreSuite) TestFindByIsbnOrCustomer() {
	s.lend(s.book("123"), "fulano", 0)
	s.lend(s.book("456"), "ciclano", 0)
	s.lend(s.book("789"), "beltrano", 0)

	page, err := s.store.FindByIsbnOrCustomer(s.ctx, models.LoanFilter{ISBN: "123", Customer: "ciclano"}, id.FirstPage(10))
	s.Require().NoError(err)
	s.Equal(int64(2), page.Total)
	s.Require().Len(page.Content, 2)
	s.Equal("123", page.Content[0].Book.ISBN)
	s.Equal("ciclano", page.Content[1].Customer)

	empty, err := s.store.FindByIsbnOrCustomer(s.ctx, models.LoanFilter{}, id.FirstPage(10))
	s.Require().NoError(err)
	s.Empty(empty.Content)
}

func (s *PostgresLoanStoreSuite) TestFindByBookIncludesReturned() {
	b := s.book("hist")
	old := s.lend(b, "fulano", 20)
	old.MarkReturned()
	s.Require().NoError(s.store.Update(s.ctx, old))
	s.lend(b, "ciclano", 0)

	page, err := s.store.FindByBook(s.ctx, b.ID, id.FirstPage(1))
	s.Require().NoError(err)
	s.Equal(int64(2), page.Total)
	s.Equal(2, page.TotalPages())
	s.Equal(old.ID, page.Content[0].ID)
}

func (s *PostgresLoanStoreSuite) TestFindOverdueUnreturned() {
	const overdueAfter = 3
	late := s.lend(s.book("late"), "late", overdueAfter+1)
	s.lend(s.book("fresh"), "fresh", 0)
	returned := s.lend(s.book("done"), "done", 30)
	returned.MarkReturned()
	s.Require().NoError(s.store.Update(s.ctx, returned))

	got, err := s.store.FindOverdueUnreturned(s.ctx, models.OverdueCutoff(s.today, overdueAfter))
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(late.ID, got[0].ID)
	s.Equal("late@email.com", got[0].CustomerEmail)
}
