package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"library/internal/catalog/models"
	"library/internal/catalog/service"
	"library/internal/catalog/store/book"
	id "library/pkg/domain"
	"library/pkg/platform/httputil"
	"library/pkg/testutil"
)

// loanChecker reports a fixed set of books as on loan.
type loanChecker map[id.BookID]bool

func (c loanChecker) ExistsOutstandingForBook(_ context.Context, bookID id.BookID) (bool, error) {
	return c[bookID], nil
}

type CatalogHandlerSuite struct {
	suite.Suite
	router *chi.Mux
	books  *book.InMemory
	onLoan loanChecker
}

func TestCatalogHandlerSuite(t *testing.T) {
	suite.Run(t, new(CatalogHandlerSuite))
}

func (s *CatalogHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.books = book.NewInMemory()
	s.onLoan = loanChecker{}

	svc, err := service.New(s.books, s.onLoan, service.WithLogger(logger))
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	New(svc, logger).Register(s.router)
}

func (s *CatalogHandlerSuite) seed(isbn, title, author string) models.Book {
	b := &models.Book{ISBN: isbn, Title: title, Author: author}
	s.Require().NoError(s.books.Create(context.Background(), b))
	return *b
}

func (s *CatalogHandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, req)
}

func (s *CatalogHandlerSuite) TestCreate() {
	s.Run("valid request returns 201 with the stored book", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/books",
			map[string]string{"isbn": " 123 ", "title": "Go", "author": "Pike"}))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[BookResponse](s.T(), rr)
		s.NotZero(resp.ID)
		s.Equal("123", resp.ISBN)
	})

	s.Run("duplicate isbn returns 409", func() {
		s.seed("dup", "A", "B")
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/books",
			map[string]string{"isbn": "dup", "title": "C", "author": "D"}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "duplicate_isbn")
	})

	s.Run("missing title returns 400 validation error", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/books",
			map[string]string{"isbn": "x", "author": "D"}))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
		testutil.AssertErrorDescription(s.T(), rr, "title is required")
	})

	s.Run("malformed json returns 400", func() {
		rr := s.do(testutil.NewRequestWithBody(s.T(), http.MethodPost, "/api/books", "{"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *CatalogHandlerSuite) TestGet() {
	b := s.seed("get-1", "Title", "Author")

	s.Run("existing book", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/books/"+b.ID.String()))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[BookResponse](s.T(), rr)
		s.Equal(toBookResponse(b), *resp)
	})

	s.Run("unknown id is 404", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/books/999"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("malformed id is 400", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/books/abc"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *CatalogHandlerSuite) TestUpdate() {
	b := s.seed("upd-1", "Old", "Someone")

	s.Run("replaces title and author but keeps isbn", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/api/books/"+b.ID.String(),
			map[string]string{"title": "New", "author": "Other", "isbn": "ignored"}))

		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[BookResponse](s.T(), rr)
		s.Equal("New", resp.Title)
		s.Equal("Other", resp.Author)
		s.Equal("upd-1", resp.ISBN)
	})

	s.Run("unknown book is 404", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/api/books/999",
			map[string]string{"title": "New", "author": "Other"}))
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})

	s.Run("blank author is 400", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/api/books/"+b.ID.String(),
			map[string]string{"title": "New", "author": "  "}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})
}

func (s *CatalogHandlerSuite) TestDelete() {
	s.Run("free book is deleted", func() {
		b := s.seed("del-1", "T", "A")
		rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/api/books/"+b.ID.String()))
		testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

		rr = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/books/"+b.ID.String()))
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})

	s.Run("book on loan is 409", func() {
		b := s.seed("del-2", "T", "A")
		s.onLoan[b.ID] = true

		rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/api/books/"+b.ID.String()))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "book_on_loan")
	})

	s.Run("unknown book is 404", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/api/books/12345"))
		testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	})
}

func (s *CatalogHandlerSuite) TestFind() {
	s.seed("f-1", "Go in Action", "Kennedy")
	s.seed("f-2", "The Go Programming Language", "Donovan")
	s.seed("f-3", "Rust in Action", "McNamara")

	s.Run("filters by title substring", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/books?title=Go&size=1"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)

		resp := testutil.UnmarshalResponse[httputil.PageResponse[BookResponse]](s.T(), rr)
		s.Len(resp.Content, 1)
		s.Equal(int64(2), resp.TotalElements)
		s.Equal(2, resp.TotalPages)
	})

	s.Run("filters are combined", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/books?title=Action&author=McNamara"))
		resp := testutil.UnmarshalResponse[httputil.PageResponse[BookResponse]](s.T(), rr)
		s.Require().Len(resp.Content, 1)
		s.Equal("f-3", resp.Content[0].ISBN)
	})

	s.Run("no match yields an empty content array", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/books?author=nobody"))
		testutil.AssertStatus(s.T(), rr, http.StatusOK)
		s.Contains(rr.Body.String(), `"content":[]`)
	})

	s.Run("invalid size is 400", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/api/books?size=-1"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func TestUpdateBookRequestApply(t *testing.T) {
	req := &UpdateBookRequest{Title: " T ", Author: " A "}
	require.NoError(t, req.Validate())

	b := &models.Book{ID: 1, ISBN: "i", Title: "old", Author: "old"}
	require.NoError(t, req.applyTo(b))
	assert.Equal(t, "T", b.Title)
	assert.Equal(t, "A", b.Author)
	assert.Equal(t, "i", b.ISBN)
}
