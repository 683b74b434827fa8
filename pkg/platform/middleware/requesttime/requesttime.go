// Package requesttime captures one "now" per request so every timestamp
// written while serving it (loan dates, audit events) agrees.
package requesttime

import (
	"net/http"
	"time"

	"library/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return Clocked(time.Now)(next)
}

// Clocked is Middleware with an injectable clock.
func Clocked(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithTime(r.Context(), now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
