package loan

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	catalog "library/internal/catalog/models"
	"library/internal/lending/models"
	pg "library/internal/platform/postgres"
	id "library/pkg/domain"
	"library/pkg/platform/sentinel"
)

const (
	tableLoans = "loans"
	tableBooks = "books"
)

// PostgresStore persists loans in the loans table. The partial unique index
// loans_one_outstanding_per_book rejects a second outstanding loan per book.
type PostgresStore struct {
	db      *sqlx.DB
	builder goqu.DialectWrapper
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, builder: goqu.Dialect(pg.Dialect)}
}

// loanRow is a loan joined with its book. Book columns are empty when the
// book has since been deleted.
type loanRow struct {
	ID            int64     `db:"id"`
	BookID        int64     `db:"book_id"`
	ISBN          string    `db:"isbn"`
	Title         string    `db:"title"`
	Author        string    `db:"author"`
	Customer      string    `db:"customer"`
	CustomerEmail string    `db:"customer_email"`
	LoanDate      time.Time `db:"loan_date"`
	Returned      bool      `db:"returned"`
}

func (r loanRow) toModel() models.Loan {
	return models.Loan{
		ID: id.LoanID(r.ID),
		Book: catalog.Book{
			ID:     id.BookID(r.BookID),
			ISBN:   r.ISBN,
			Title:  r.Title,
			Author: r.Author,
		},
		Customer:      r.Customer,
		CustomerEmail: r.CustomerEmail,
		LoanDate:      models.DateOf(r.LoanDate),
		Status:        models.StatusFromReturned(r.Returned),
	}
}

func (s *PostgresStore) Create(ctx context.Context, loan *models.Loan) error {
	query, args, err := s.builder.Insert(tableLoans).Prepared(true).
		Rows(goqu.Record{
			"book_id":        int64(loan.Book.ID),
			"customer":       loan.Customer,
			"customer_email": loan.CustomerEmail,
			"loan_date":      models.DateOf(loan.LoanDate),
			"returned":       loan.Returned(),
		}).
		Returning("id").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build loan insert: %w", err)
	}
	var newID int64
	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&newID); err != nil {
		return fmt.Errorf("insert loan: %w", pg.Classify(err))
	}
	loan.ID = id.LoanID(newID)
	if loan.Status == "" {
		loan.Status = models.StatusOutstanding
	}
	return nil
}

func (s *PostgresStore) ExistsOutstandingForBook(ctx context.Context, bookID id.BookID) (bool, error) {
	inner := s.builder.From(tableLoans).Select(goqu.L("1")).Where(
		goqu.C("book_id").Eq(int64(bookID)),
		goqu.C("returned").IsFalse(),
	)
	query, args, err := s.builder.Select(goqu.L("EXISTS ?", inner)).Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build outstanding query: %w", err)
	}
	var exists bool
	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check outstanding loan: %w", pg.Classify(err))
	}
	return exists, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error) {
	query, args, err := s.selectLoans().Where(goqu.T(tableLoans).Col("id").Eq(int64(loanID))).Limit(1).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build loan query: %w", err)
	}
	var row loanRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find loan: %w", pg.Classify(err))
	}
	loan := row.toModel()
	return &loan, nil
}

// Update stores the loan's returned flag. Re-opening a loan while the book
// has another outstanding loan violates the partial index and yields
// sentinel.ErrConflict.
func (s *PostgresStore) Update(ctx context.Context, loan *models.Loan) error {
	query, args, err := s.builder.Update(tableLoans).Prepared(true).
		Set(goqu.Record{"returned": loan.Returned()}).
		Where(goqu.C("id").Eq(int64(loan.ID))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build loan update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update loan: %w", pg.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	stored, err := s.FindByID(ctx, loan.ID)
	if err != nil {
		return err
	}
	*loan = *stored
	return nil
}

func (s *PostgresStore) FindByIsbnOrCustomer(ctx context.Context, filter models.LoanFilter, page id.PageRequest) (id.Page[models.Loan], error) {
	var either []exp.Expression
	if filter.ISBN != "" {
		either = append(either, goqu.T(tableBooks).Col("isbn").Eq(filter.ISBN))
	}
	if filter.Customer != "" {
		either = append(either, goqu.T(tableLoans).Col("customer").Eq(filter.Customer))
	}
	if len(either) == 0 {
		return id.NewPage[models.Loan](nil, 0, page), nil
	}
	return s.findPage(ctx, goqu.Or(either...), page)
}

func (s *PostgresStore) FindByBook(ctx context.Context, bookID id.BookID, page id.PageRequest) (id.Page[models.Loan], error) {
	return s.findPage(ctx, goqu.T(tableLoans).Col("book_id").Eq(int64(bookID)), page)
}

// FindOverdueUnreturned returns outstanding loans dated on or before cutoff,
// oldest first.
func (s *PostgresStore) FindOverdueUnreturned(ctx context.Context, cutoff time.Time) ([]models.Loan, error) {
	query, args, err := s.selectLoans().
		Where(
			goqu.T(tableLoans).Col("returned").IsFalse(),
			goqu.T(tableLoans).Col("loan_date").Lte(models.DateOf(cutoff)),
		).
		Order(goqu.T(tableLoans).Col("loan_date").Asc(), goqu.T(tableLoans).Col("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build overdue query: %w", err)
	}
	var rows []loanRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("find overdue loans: %w", pg.Classify(err))
	}
	return toModels(rows), nil
}

func (s *PostgresStore) findPage(ctx context.Context, where exp.Expression, page id.PageRequest) (id.Page[models.Loan], error) {
	countQuery, countArgs, err := s.builder.From(tableLoans).Prepared(true).
		LeftJoin(goqu.T(tableBooks), goqu.On(goqu.T(tableBooks).Col("id").Eq(goqu.T(tableLoans).Col("book_id")))).
		Select(goqu.COUNT("*")).
		Where(where).
		ToSQL()
	if err != nil {
		return id.Page[models.Loan]{}, fmt.Errorf("build loan count: %w", err)
	}
	var total int64
	if err := s.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return id.Page[models.Loan]{}, fmt.Errorf("count loans: %w", pg.Classify(err))
	}

	query, args, err := s.selectLoans().Where(where).
		Order(goqu.T(tableLoans).Col("id").Asc()).
		Limit(uint(page.Size)).Offset(uint(page.Offset())).
		ToSQL()
	if err != nil {
		return id.Page[models.Loan]{}, fmt.Errorf("build loan find: %w", err)
	}
	var rows []loanRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return id.Page[models.Loan]{}, fmt.Errorf("find loans: %w", pg.Classify(err))
	}
	return id.NewPage(toModels(rows), total, page), nil
}

func (s *PostgresStore) selectLoans() *goqu.SelectDataset {
	l, b := goqu.T(tableLoans), goqu.T(tableBooks)
	return s.builder.From(l).Prepared(true).
		LeftJoin(b, goqu.On(b.Col("id").Eq(l.Col("book_id")))).
		Select(
			l.Col("id"),
			l.Col("book_id"),
			goqu.COALESCE(b.Col("isbn"), "").As("isbn"),
			goqu.COALESCE(b.Col("title"), "").As("title"),
			goqu.COALESCE(b.Col("author"), "").As("author"),
			l.Col("customer"),
			l.Col("customer_email"),
			l.Col("loan_date"),
			l.Col("returned"),
		)
}

func toModels(rows []loanRow) []models.Loan {
	out := make([]models.Loan, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out
}
