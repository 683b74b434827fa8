package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeDuplicateIsbn, "isbn already registered")
		assert.True(t, HasCode(err, CodeDuplicateIsbn))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches wrapped code through fmt wrapping", func(t *testing.T) {
		inner := New(CodeBookAlreadyLoaned, "book already loaned")
		err := fmt.Errorf("save loan: %w", inner)
		assert.True(t, HasCode(err, CodeBookAlreadyLoaned))
	})

	t.Run("matches inner code of nested domain errors", func(t *testing.T) {
		inner := New(CodeUnavailable, "store down")
		err := Wrap(inner, CodeInternal, "failed to save")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeUnavailable))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "storage unavailable")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage unavailable: connection refused", err.Error())
	assert.Equal(t, CodeUnavailable, CodeOf(err))
	assert.Equal(t, "storage unavailable", MessageOf(err))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("x")))
	assert.Equal(t, "internal error", MessageOf(errors.New("x")))
}

func TestToHTTPStatus(t *testing.T) {
	tests := map[Code]int{
		CodeValidation:        http.StatusBadRequest,
		CodeInvalidArgument:   http.StatusBadRequest,
		CodeNotFound:          http.StatusNotFound,
		CodeDuplicateIsbn:     http.StatusConflict,
		CodeBookAlreadyLoaned: http.StatusConflict,
		CodeBookOnLoan:        http.StatusConflict,
		CodeUnavailable:       http.StatusServiceUnavailable,
		CodeTimeout:           http.StatusGatewayTimeout,
		CodeInternal:          http.StatusInternalServerError,
		Code("unknown"):       http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
