// Package storage holds the helpers services wrap around every store call:
// a default deadline and translation of store failures into domain errors.
package storage

import (
	"context"
	"errors"
	"time"

	dErrors "library/pkg/domain-errors"
	"library/pkg/platform/sentinel"
)

// DefaultTimeout bounds a store call when the caller set no deadline.
const DefaultTimeout = 3 * time.Second

// WithTimeout applies d only if ctx carries no deadline already.
func WithTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Translate converts an unexpected store error into a domain error.
// Deadline and connectivity failures become storage_unavailable; anything
// else is internal. Errors that already carry a domain code are kept.
func Translate(err error, msg string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg+": storage unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
