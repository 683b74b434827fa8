package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"library/internal/catalog/models"
	pg "library/internal/platform/postgres"
	id "library/pkg/domain"
	"library/pkg/platform/sentinel"
)

const (
	tableBooks = "books"
	tableLoans = "loans"
)

// PostgresStore persists books in the books table. Uniqueness of isbn is
// enforced by the books_isbn_key index.
type PostgresStore struct {
	db      *sqlx.DB
	builder goqu.DialectWrapper
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, builder: goqu.Dialect(pg.Dialect)}
}

type bookRow struct {
	ID     int64  `db:"id"`
	ISBN   string `db:"isbn"`
	Title  string `db:"title"`
	Author string `db:"author"`
}

func (r bookRow) toModel() *models.Book {
	return &models.Book{ID: id.BookID(r.ID), ISBN: r.ISBN, Title: r.Title, Author: r.Author}
}

func (s *PostgresStore) Create(ctx context.Context, book *models.Book) error {
	query, args, err := s.builder.Insert(tableBooks).Prepared(true).
		Rows(goqu.Record{"isbn": book.ISBN, "title": book.Title, "author": book.Author}).
		Returning("id").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build book insert: %w", err)
	}
	var newID int64
	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&newID); err != nil {
		return fmt.Errorf("insert book: %w", pg.Classify(err))
	}
	book.ID = id.BookID(newID)
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, bookID id.BookID) (*models.Book, error) {
	return s.findOne(ctx, goqu.C("id").Eq(int64(bookID)))
}

func (s *PostgresStore) FindByISBN(ctx context.Context, isbn string) (*models.Book, error) {
	return s.findOne(ctx, goqu.C("isbn").Eq(isbn))
}

func (s *PostgresStore) findOne(ctx context.Context, where exp.Expression) (*models.Book, error) {
	query, args, err := s.selectBooks().Where(where).Limit(1).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build book query: %w", err)
	}
	var row bookRow
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find book: %w", pg.Classify(err))
	}
	return row.toModel(), nil
}

func (s *PostgresStore) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	inner := s.builder.From(tableBooks).Select(goqu.L("1")).Where(goqu.C("isbn").Eq(isbn))
	query, args, err := s.builder.Select(goqu.L("EXISTS ?", inner)).Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}
	var exists bool
	if err := s.db.QueryRowxContext(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check isbn: %w", pg.Classify(err))
	}
	return exists, nil
}

func (s *PostgresStore) Update(ctx context.Context, book *models.Book) error {
	query, args, err := s.builder.Update(tableBooks).Prepared(true).
		Set(goqu.Record{"isbn": book.ISBN, "title": book.Title, "author": book.Author}).
		Where(goqu.C("id").Eq(int64(book.ID))).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build book update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update book: %w", pg.Classify(err))
	}
	return requireAffected(res)
}

// Delete removes the book unless an outstanding loan references it, in which
// case it returns sentinel.ErrInvalidState. The guard runs in the same
// statement as the delete.
func (s *PostgresStore) Delete(ctx context.Context, bookID id.BookID) error {
	outstanding := s.builder.From(tableLoans).Select(goqu.L("1")).Where(
		goqu.C("book_id").Eq(int64(bookID)),
		goqu.C("returned").IsFalse(),
	)
	query, args, err := s.builder.Delete(tableBooks).Prepared(true).
		Where(
			goqu.C("id").Eq(int64(bookID)),
			goqu.L("NOT EXISTS ?", outstanding),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build book delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete book: %w", pg.Classify(err))
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	if _, err := s.FindByID(ctx, bookID); err != nil {
		return err
	}
	return sentinel.ErrInvalidState
}

// Find pages through matching books ordered by id. Filters are substring
// matches with LIKE wildcards in the input escaped.
func (s *PostgresStore) Find(ctx context.Context, filter models.BookFilter, page id.PageRequest) (id.Page[models.Book], error) {
	var where []exp.Expression
	if filter.Title != "" {
		where = append(where, goqu.C("title").Like(containsPattern(filter.Title)))
	}
	if filter.Author != "" {
		where = append(where, goqu.C("author").Like(containsPattern(filter.Author)))
	}

	countQuery, countArgs, err := s.builder.From(tableBooks).Prepared(true).
		Select(goqu.COUNT("*")).Where(where...).ToSQL()
	if err != nil {
		return id.Page[models.Book]{}, fmt.Errorf("build book count: %w", err)
	}
	var total int64
	if err := s.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return id.Page[models.Book]{}, fmt.Errorf("count books: %w", pg.Classify(err))
	}

	query, args, err := s.selectBooks().Where(where...).
		Order(goqu.C("id").Asc()).
		Limit(uint(page.Size)).Offset(uint(page.Offset())).
		ToSQL()
	if err != nil {
		return id.Page[models.Book]{}, fmt.Errorf("build book find: %w", err)
	}
	var rows []bookRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return id.Page[models.Book]{}, fmt.Errorf("find books: %w", pg.Classify(err))
	}
	books := make([]models.Book, 0, len(rows))
	for _, r := range rows {
		books = append(books, *r.toModel())
	}
	return id.NewPage(books, total, page), nil
}

func (s *PostgresStore) selectBooks() *goqu.SelectDataset {
	return s.builder.From(tableBooks).Prepared(true).Select("id", "isbn", "title", "author")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
