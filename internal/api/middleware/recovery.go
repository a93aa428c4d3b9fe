package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/rakshithgowda/traceboard/internal/api/response"
)

// Recovery converts handler panics into opaque 500s.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
					"method", r.Method,
					"path", r.URL.Path,
				)
				response.Internal(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
