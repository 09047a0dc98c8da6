package http

import (
	"net/http"

	"turn-notify/internal/handler/http/respond"
)

// InputLimits bounds request inputs checked by InputValidation.
type InputLimits struct {
	MaxAuthHeader int
	MaxPath       int
	MaxBody       int64
}

// DefaultInputLimits allows an 8KB Authorization header, a 2KB path and a
// 1MB body. Session tokens are well under 1KB.
func DefaultInputLimits() InputLimits {
	return InputLimits{MaxAuthHeader: 8 << 10, MaxPath: 2 << 10, MaxBody: 1 << 20}
}

// InputValidation rejects oversized headers and paths and caps the body.
func InputValidation(limits InputLimits) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limits.MaxAuthHeader > 0 && len(r.Header.Get("Authorization")) > limits.MaxAuthHeader {
				respond.JSON(w, http.StatusBadRequest, map[string]string{"error": "authorization header too large"})
				return
			}
			if limits.MaxPath > 0 && len(r.URL.Path) > limits.MaxPath {
				respond.JSON(w, http.StatusRequestURITooLong, map[string]string{"error": "URI too long"})
				return
			}
			if limits.MaxBody > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, limits.MaxBody)
			}
			next.ServeHTTP(w, r)
		})
	}
}
