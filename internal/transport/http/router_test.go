package httptransport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library/internal/catalog"
	catalogservice "library/internal/catalog/service"
	"library/internal/catalog/store/book"
	"library/internal/lending"
	lendingservice "library/internal/lending/service"
	"library/internal/lending/store/loan"
	"library/internal/platform/metrics"
	"library/internal/platform/middleware"
	id "library/pkg/domain"
	"library/pkg/platform/lock"
	"library/pkg/testutil"
)

func newTestRouter(t *testing.T, checks map[string]HealthCheck) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	books := book.NewInMemory()
	loans := loan.NewInMemory()
	locks := lock.NewKeyed[id.BookID]()

	catalogSvc, err := catalog.NewService(books, loans, catalogservice.WithBookLocks(locks))
	require.NoError(t, err)
	lendingSvc, err := lending.NewService(loans, lendingservice.WithBookLocks(locks))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	return NewRouter(Config{
		Logger:   logger,
		Metrics:  metrics.NewWithRegisterer(reg),
		Gatherer: reg,
		Handlers: []Registrar{
			catalog.NewHandler(catalogSvc, logger),
			lending.NewHandler(lendingSvc, catalogSvc, logger),
		},
		HealthChecks: checks,
	})
}

func TestRouterLendingFlow(t *testing.T) {
	router := newTestRouter(t, nil)

	var bookID, loanID int64
	testutil.Given(t, "a registered book", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/books",
			map[string]string{"isbn": "978-0132350884", "title": "Clean Code", "author": "Robert C. Martin"}))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		bookID = testutil.UnmarshalResponse[struct {
			ID int64 `json:"id"`
		}](t, rr).ID
	})

	testutil.When(t, "the book is lent", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/loans",
			map[string]string{"isbn": "978-0132350884", "customer": "fulano", "email": "fulano@email.com"}))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		loanID = testutil.UnmarshalResponse[struct {
			ID int64 `json:"id"`
		}](t, rr).ID
	})

	testutil.Then(t, "a second loan is rejected", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/loans",
			map[string]string{"isbn": "978-0132350884", "customer": "ciclano"}))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "book_already_loaned")
	})

	testutil.And(t, "the book cannot be deleted while on loan", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, fmt.Sprintf("/api/books/%d", bookID)))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "book_on_loan")
	})

	testutil.And(t, "once returned the book can be deleted", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPatch, fmt.Sprintf("/api/loans/%d", loanID),
			map[string]bool{"returned": true}))
		testutil.AssertStatus(t, rr, http.StatusOK)

		rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, fmt.Sprintf("/api/books/%d", bookID)))
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})
}

func TestRouterMiddleware(t *testing.T) {
	router := newTestRouter(t, nil)

	t.Run("echoes a caller request id", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/api/books")
		req.Header.Set(middleware.RequestIDHeader, "req-123")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, "req-123", rr.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("generates a request id when absent", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/books"))
		assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("rejects non JSON bodies", func(t *testing.T) {
		req := testutil.NewRequestWithBody(t, http.MethodPost, "/api/books", "isbn=1")
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("unknown routes get the error envelope", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/nothing"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("exposes request metrics", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.True(t, strings.Contains(rr.Body.String(), "library_http_requests_total"))
	})
}

func TestHealthz(t *testing.T) {
	t.Run("ok when every check passes", func(t *testing.T) {
		router := newTestRouter(t, map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatus(t, rr, http.StatusOK)
		body := testutil.UnmarshalResponse[healthResponse](t, rr)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "ok", body.Checks["postgres"])
	})

	t.Run("degraded when a dependency is down", func(t *testing.T) {
		router := newTestRouter(t, map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
		body := testutil.UnmarshalResponse[healthResponse](t, rr)
		assert.Equal(t, "degraded", body.Status)
		assert.Equal(t, "connection refused", body.Checks["redis"])
	})
}
