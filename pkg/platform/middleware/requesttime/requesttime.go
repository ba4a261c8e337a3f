// Package requesttime pins one "now" per request so audit timestamps, expiry
// checks and envelope timestamps agree.
package requesttime

import (
	"net/http"
	"time"

	"veil/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
