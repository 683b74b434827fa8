package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"library/pkg/platform/sentinel"
)

func TestClassify(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Classify(nil))
	})

	t.Run("unique violation is a conflict", func(t *testing.T) {
		err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "books_isbn_key"})
		got := Classify(err)
		assert.ErrorIs(t, got, sentinel.ErrConflict)
		assert.Contains(t, got.Error(), "books_isbn_key")
	})

	t.Run("connection exception is unavailable", func(t *testing.T) {
		got := Classify(&pgconn.PgError{Code: "08006"})
		assert.ErrorIs(t, got, sentinel.ErrUnavailable)
	})

	t.Run("bad conn is unavailable", func(t *testing.T) {
		assert.ErrorIs(t, Classify(driver.ErrBadConn), sentinel.ErrUnavailable)
	})

	t.Run("deadline is unavailable", func(t *testing.T) {
		assert.ErrorIs(t, Classify(context.DeadlineExceeded), sentinel.ErrUnavailable)
	})

	t.Run("other errors pass through", func(t *testing.T) {
		plain := errors.New("syntax error")
		assert.Same(t, plain, Classify(plain))

		check := &pgconn.PgError{Code: "23514"}
		assert.Equal(t, error(check), Classify(check))
	})
}
