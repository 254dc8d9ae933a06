package middleware

import (
	"net/http"

	"goa.design/clue/log"
)

// Logging gives every request its own clue logger tagged with the request ID,
// method and path. The response writer is passed through unwrapped so
// streaming handlers can still flush and hijack it.
func Logging(format log.FormatFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := log.Context(r.Context(), log.WithFormat(format))
			ctx = log.With(ctx,
				log.KV{K: "request_id", V: r.Header.Get(RequestIDHeader)},
				log.KV{K: "method", V: r.Method},
				log.KV{K: "path", V: r.URL.Path})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
