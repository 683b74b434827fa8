// Package httputil holds JSON request decoding and response writing shared by
// every handler.
package httputil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	id "library/pkg/domain"
	dErrors "library/pkg/domain-errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Validatable is implemented by request bodies. Validate may normalize fields
// in place before checking them.
type Validatable interface {
	Validate() error
}

// ErrorResponse is the envelope for every non-2xx response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// DecodeAndPrepare decodes the JSON body into T and runs its Validate method.
// On failure it writes the error response itself and returns ok=false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		msg := "invalid JSON body"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		logger.WarnContext(ctx, "failed to decode request",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, msg))
		return nil, false
	}

	if err := PT(&req).Validate(); err != nil {
		logger.WarnContext(ctx, "request validation failed",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status code and writes the error envelope.
// Internal errors never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		resp.ErrorDescription = dErrors.MessageOf(err)
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}

// QueryInt reads an optional non-negative integer query parameter.
func QueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be a non-negative integer")
	}
	return v, nil
}

// QueryString reads an optional query parameter. The second result is false
// when the parameter is absent, distinguishing "absent" from "empty".
func QueryString(r *http.Request, name string) (string, bool) {
	values, ok := r.URL.Query()[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// PageFromQuery builds a page request from the page and size query parameters.
func PageFromQuery(r *http.Request) (id.PageRequest, error) {
	page, err := QueryInt(r, "page", 0)
	if err != nil {
		return id.PageRequest{}, err
	}
	size, err := QueryInt(r, "size", id.DefaultPageSize)
	if err != nil {
		return id.PageRequest{}, err
	}
	return id.NewPageRequest(page, size)
}

// PageResponse is the wire shape of a paged listing.
type PageResponse[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
}

// NewPageResponse converts each element of p with fn.
func NewPageResponse[T, U any](p id.Page[T], fn func(T) U) PageResponse[U] {
	mapped := id.MapPage(p, fn)
	return PageResponse[U]{
		Content:       mapped.Content,
		TotalElements: mapped.Total,
		TotalPages:    mapped.TotalPages(),
		Page:          mapped.Request.Page,
		Size:          mapped.Request.Size,
	}
}
