package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"library/internal/catalog/models"
	id "library/pkg/domain"
	dErrors "library/pkg/domain-errors"
	"library/pkg/platform/httputil"
	"library/pkg/requestcontext"
)

// Service is the catalog behavior the handler depends on.
type Service interface {
	Create(ctx context.Context, book *models.Book) (*models.Book, error)
	GetByID(ctx context.Context, bookID id.BookID) (*models.Book, error)
	Update(ctx context.Context, book *models.Book) (*models.Book, error)
	Delete(ctx context.Context, book *models.Book) error
	Find(ctx context.Context, filter models.BookFilter, page id.PageRequest) (id.Page[models.Book], error)
}

// Handler serves the /api/books endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a catalog Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Register mounts the book routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/books", h.handleCreate)
	r.Get("/api/books", h.handleFind)
	r.Get("/api/books/{id}", h.handleGet)
	r.Put("/api/books/{id}", h.handleUpdate)
	r.Delete("/api/books/{id}", h.handleDelete)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateBookRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.Create(ctx, req.toModel())
	if err != nil {
		h.logFailure(ctx, "failed to create book", err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toBookResponse(*created))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	book, ok := h.loadBook(w, r)
	if !ok {
		return
	}
	h.logger.DebugContext(ctx, "book loaded", "book_id", book.ID.String())
	httputil.WriteJSON(w, http.StatusOK, toBookResponse(*book))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	book, ok := h.loadBook(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateBookRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.applyTo(book); err != nil {
		httputil.WriteError(w, err)
		return
	}

	updated, err := h.service.Update(ctx, book)
	if err != nil {
		h.logFailure(ctx, "failed to update book", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBookResponse(*updated))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	book, ok := h.loadBook(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, book); err != nil {
		h.logFailure(ctx, "failed to delete book", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFind(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := httputil.PageFromQuery(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	title, _ := httputil.QueryString(r, "title")
	author, _ := httputil.QueryString(r, "author")

	result, err := h.service.Find(ctx, models.BookFilter{Title: title, Author: author}, page)
	if err != nil {
		h.logFailure(ctx, "failed to search books", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPageResponse(result, toBookResponse))
}

// loadBook resolves the {id} path parameter. It writes the error response
// itself and returns ok=false when the id is malformed or the book is absent.
func (h *Handler) loadBook(w http.ResponseWriter, r *http.Request) (*models.Book, bool) {
	ctx := r.Context()

	bookID, err := id.ParseBookID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return nil, false
	}
	book, err := h.service.GetByID(ctx, bookID)
	if err != nil {
		h.logFailure(ctx, "failed to load book", err)
		httputil.WriteError(w, err)
		return nil, false
	}
	if book == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "book not found"))
		return nil, false
	}
	return book, true
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal || dErrors.CodeOf(err) == dErrors.CodeUnavailable {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}
