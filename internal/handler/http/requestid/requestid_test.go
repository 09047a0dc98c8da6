package requestid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	assert.Equal(t, "abc", FromContext(WithRequestID(context.Background(), "abc")))
	assert.Equal(t, "", FromContext(context.Background()))
	assert.Equal(t, "", FromContext(context.WithValue(context.Background(), RequestIDKey, 12345)))
}

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantReused bool
	}{
		{name: "reuses caller id", header: "webhook-42.retry:1", wantReused: true},
		{name: "generates when missing", header: ""},
		{name: "replaces id with spaces", header: "bad id"},
		{name: "replaces id with newline", header: "abc\ninjected"},
		{name: "replaces oversized id", header: strings.Repeat("a", maxIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var seen string
			handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = FromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodPost, "/18xx", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			rr := httptest.NewRecorder()

			// Act
			handler.ServeHTTP(rr, req)

			// Assert
			assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))
			if tt.wantReused {
				assert.Equal(t, tt.header, seen)
				return
			}
			_, err := uuid.Parse(seen)
			require.NoError(t, err, "expected generated UUID, got %q", seen)
		})
	}
}

func TestMiddleware_UniquePerRequest(t *testing.T) {
	ids := make(map[string]bool)
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids[FromContext(r.Context())] = true
	}))

	for i := 0; i < 20; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	}

	assert.Len(t, ids, 20)
}
