package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "library/internal/catalog/models"
	dErrors "library/pkg/domain-errors"
)

func TestNewLoan(t *testing.T) {
	book := catalog.Book{ID: 1, ISBN: "123"}
	at := time.Date(2024, 3, 10, 23, 30, 0, 0, time.FixedZone("X", -3*3600))

	t.Run("starts outstanding on the UTC date", func(t *testing.T) {
		loan, err := NewLoan(book, " Fulano ", " fulano@email.com ", at)
		require.NoError(t, err)
		assert.Equal(t, "Fulano", loan.Customer)
		assert.Equal(t, "fulano@email.com", loan.CustomerEmail)
		assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), loan.LoanDate)
		assert.True(t, loan.Outstanding())
	})

	t.Run("customer is required", func(t *testing.T) {
		_, err := NewLoan(book, " ", "", at)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("book must be stored", func(t *testing.T) {
		_, err := NewLoan(catalog.Book{ISBN: "123"}, "Fulano", "", at)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("malformed email is rejected", func(t *testing.T) {
		_, err := NewLoan(book, "Fulano", "not-an-email", at)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestLoanStatus(t *testing.T) {
	loan := &Loan{Status: StatusFromReturned(false)}
	assert.True(t, loan.Outstanding())
	assert.False(t, loan.Returned())

	loan.MarkReturned()
	assert.True(t, loan.Returned())
	assert.Equal(t, StatusReturned, StatusFromReturned(true))

	var zero Loan
	assert.True(t, zero.Outstanding(), "zero status counts as outstanding")
}

func TestOverdueCutoff(t *testing.T) {
	today := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), OverdueCutoff(today, 3))
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), OverdueCutoff(today, 0))
}

func TestLoanFilter(t *testing.T) {
	loan := Loan{Book: catalog.Book{ISBN: "123"}, Customer: "Fulano"}

	cases := []struct {
		name   string
		filter LoanFilter
		want   bool
	}{
		{"isbn only", LoanFilter{ISBN: "123"}, true},
		{"customer only", LoanFilter{Customer: "Fulano"}, true},
		{"either matches", LoanFilter{ISBN: "999", Customer: "Fulano"}, true},
		{"neither matches", LoanFilter{ISBN: "999", Customer: "Ciclano"}, false},
		{"empty never matches", LoanFilter{}, false},
		{"customer match is exact", LoanFilter{Customer: "Fula"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter.Matches(loan))
		})
	}
	assert.True(t, LoanFilter{}.IsEmpty())
}
