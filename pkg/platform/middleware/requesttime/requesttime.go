// Package requesttime provides middleware that pins a single "now" per request,
// so staleness checks, audit timestamps and logs agree within a request.
package requesttime

import (
	"net/http"
	"time"

	"sdi-resolver/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
