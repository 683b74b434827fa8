package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	catalog "library/internal/catalog/models"
	"library/internal/lending/models"
	id "library/pkg/domain"
	dErrors "library/pkg/domain-errors"
	"library/pkg/platform/httputil"
	"library/pkg/requestcontext"
)

// Service is the lending behavior the handler depends on.
type Service interface {
	Save(ctx context.Context, loan *models.Loan) (*models.Loan, error)
	GetByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error)
	Update(ctx context.Context, loan *models.Loan) (*models.Loan, error)
	Find(ctx context.Context, filter models.LoanFilter, page id.PageRequest) (id.Page[models.Loan], error)
	GetLoansByBook(ctx context.Context, bookID id.BookID, page id.PageRequest) (id.Page[models.Loan], error)
}

// BookFinder resolves the books loans refer to. Absent books are nil.
type BookFinder interface {
	GetByID(ctx context.Context, bookID id.BookID) (*catalog.Book, error)
	GetByIsbn(ctx context.Context, isbn string) (*catalog.Book, error)
}

// Handler serves the /api/loans endpoints and the loan history of a book.
type Handler struct {
	logger *slog.Logger
	loans  Service
	books  BookFinder
}

func New(loans Service, books BookFinder, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		loans:  loans,
		books:  books,
	}
}

// Register mounts the loan routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/loans", h.handleCreate)
	r.Get("/api/loans", h.handleFind)
	r.Get("/api/loans/{id}", h.handleGet)
	r.Patch("/api/loans/{id}", h.handleReturn)
	r.Get("/api/books/{id}/loans", h.handleBookLoans)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateLoanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	book, err := h.books.GetByIsbn(ctx, req.ISBN)
	if err != nil {
		h.logFailure(ctx, "failed to resolve book", err)
		httputil.WriteError(w, err)
		return
	}
	if book == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "book not found for passed isbn"))
		return
	}

	loan, err := models.NewLoan(*book, req.Customer, req.Email, requestcontext.Now(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	saved, err := h.loans.Save(ctx, loan)
	if err != nil {
		h.logFailure(ctx, "failed to create loan", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, CreateLoanResponse{ID: int64(saved.ID)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	loan, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanResponse(*loan))
}

// handleReturn sets the returned flag of a loan.
func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	loan, ok := h.loadLoan(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReturnLoanRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	loan.Status = models.StatusFromReturned(*req.Returned)

	updated, err := h.loans.Update(ctx, loan)
	if err != nil {
		h.logFailure(ctx, "failed to update loan", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toLoanResponse(*updated))
}

func (h *Handler) handleFind(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := httputil.PageFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	isbn, _ := httputil.QueryString(r, "isbn")
	customer, _ := httputil.QueryString(r, "customer")

	result, err := h.loans.Find(ctx, models.LoanFilter{ISBN: isbn, Customer: customer}, page)
	if err != nil {
		h.logFailure(ctx, "failed to search loans", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPageResponse(result, toLoanResponse))
}

func (h *Handler) handleBookLoans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	bookID, err := id.ParseBookID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := httputil.PageFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	book, err := h.books.GetByID(ctx, bookID)
	if err != nil {
		h.logFailure(ctx, "failed to load book", err)
		httputil.WriteError(w, err)
		return
	}
	if book == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "book not found"))
		return
	}

	result, err := h.loans.GetLoansByBook(ctx, book.ID, page)
	if err != nil {
		h.logFailure(ctx, "failed to load book loans", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPageResponse(result, toLoanResponse))
}

func (h *Handler) loadLoan(w http.ResponseWriter, r *http.Request) (*models.Loan, bool) {
	ctx := r.Context()

	loanID, err := id.ParseLoanID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	loan, err := h.loans.GetByID(ctx, loanID)
	if err != nil {
		h.logFailure(ctx, "failed to load loan", err)
		httputil.WriteError(w, err)
		return nil, false
	}
	if loan == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "loan not found"))
		return nil, false
	}
	return loan, true
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeUnavailable {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
