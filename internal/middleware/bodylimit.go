package middleware

import (
	"net/http"

	"github.com/opsdesk/admin-console-go/internal/httputil"
)

const DefaultMaxBodySize = 1 << 20 // 1MB

func BodyLimit(maxSize int64) func(http.Handler) http.Handler {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.ContentLength > maxSize {
				httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
					"error": "Request body too large",
				})
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxSize)
			next.ServeHTTP(w, r)
		})
	}
}
