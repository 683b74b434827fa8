package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "library/pkg/domain-errors"
)

func TestNewBook(t *testing.T) {
	t.Run("trims fields", func(t *testing.T) {
		b, err := NewBook(" 123 ", " Aventuras ", " Artur ")
		require.NoError(t, err)
		assert.Equal(t, "123", b.ISBN)
		assert.Equal(t, "Aventuras", b.Title)
		assert.Equal(t, "Artur", b.Author)
		assert.True(t, b.ID.IsZero())
	})

	for name, args := range map[string][3]string{
		"missing isbn":   {"", "t", "a"},
		"missing title":  {"1", "  ", "a"},
		"missing author": {"1", "t", ""},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewBook(args[0], args[1], args[2])
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestBookFilterMatches(t *testing.T) {
	book := Book{ISBN: "1", Title: "Dom Casmurro", Author: "Machado de Assis"}

	tests := []struct {
		name   string
		filter BookFilter
		want   bool
	}{
		{"empty filter matches everything", BookFilter{}, true},
		{"title substring", BookFilter{Title: "Casm"}, true},
		{"case-sensitive", BookFilter{Title: "casm"}, false},
		{"both fields must match", BookFilter{Title: "Dom", Author: "Lispector"}, false},
		{"both fields match", BookFilter{Title: "Dom", Author: "Assis"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(book))
		})
	}
}
