package middleware

import (
	"context"
	"net/http"
	"time"
)

// RequestTimeout bounds the request context so a stuck remote extraction
// cannot hold the connection past the server's write timeout. The
// extraction pipeline watches the context and aborts its retry loop when
// the deadline hits.
func RequestTimeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
