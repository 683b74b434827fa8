package domain

import (
	"math"

	dErrors "library/pkg/domain-errors"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest selects a 0-based page of results.
type PageRequest struct {
	Page int
	Size int
}

// NewPageRequest validates paging input. A zero size selects DefaultPageSize.
func NewPageRequest(page, size int) (PageRequest, error) {
	if page < 0 {
		return PageRequest{}, dErrors.New(dErrors.CodeValidation, "page must not be negative")
	}
	if size < 0 || size > MaxPageSize {
		return PageRequest{}, dErrors.New(dErrors.CodeValidation, "size must be between 1 and 100")
	}
	if size == 0 {
		size = DefaultPageSize
	}
	return PageRequest{Page: page, Size: size}, nil
}

// FirstPage returns the first page with the given size.
func FirstPage(size int) PageRequest {
	return PageRequest{Page: 0, Size: size}
}

// Offset is the number of rows skipped before this page. It saturates at
// math.MaxInt, so a page beyond any result set reads as empty.
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// Page is one slice of a larger, ordered result set.
type Page[T any] struct {
	Content []T
	Total   int64
	Request PageRequest
}

// NewPage builds a page, normalizing a nil content slice to empty.
func NewPage[T any](content []T, total int64, req PageRequest) Page[T] {
	if content == nil {
		content = []T{}
	}
	return Page[T]{Content: content, Total: total, Request: req}
}

// TotalPages reports how many pages of Request.Size the full result spans.
func (p Page[T]) TotalPages() int {
	if p.Request.Size <= 0 {
		return 0
	}
	return int((p.Total + int64(p.Request.Size) - 1) / int64(p.Request.Size))
}

// MapPage converts each element while keeping paging metadata.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Content))
	for _, item := range p.Content {
		out = append(out, fn(item))
	}
	return Page[U]{Content: out, Total: p.Total, Request: p.Request}
}

// Slice applies the request to an already-filtered, ordered slice.
// In-memory stores use it to mirror LIMIT/OFFSET semantics.
func Slice[T any](all []T, req PageRequest) Page[T] {
	total := int64(len(all))
	start := req.Offset()
	if start < 0 || start >= len(all) || req.Size <= 0 {
		return NewPage[T](nil, total, req)
	}
	end := start + req.Size
	if end > len(all) {
		end = len(all)
	}
	return NewPage(all[start:end], total, req)
}
