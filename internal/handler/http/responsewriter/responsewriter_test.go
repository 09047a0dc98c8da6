package responsewriter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseWriter(t *testing.T) {
	t.Run("defaults to 200 on implicit write", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := Wrap(rec)

		n, err := rw.Write([]byte("ok"))

		assert.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, http.StatusOK, rw.StatusCode())
		assert.Equal(t, 2, rw.BytesWritten())
		assert.True(t, rw.Written())
	})

	t.Run("keeps first status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		rw := Wrap(rec)

		rw.WriteHeader(http.StatusBadRequest)
		rw.WriteHeader(http.StatusInternalServerError)
		_, _ = rw.Write([]byte(`{"error":"malformed webhook"}`))
		_, _ = rw.Write([]byte("\n"))

		assert.Equal(t, http.StatusBadRequest, rw.StatusCode())
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, 30, rw.BytesWritten())
	})

	t.Run("nothing written", func(t *testing.T) {
		rw := Wrap(httptest.NewRecorder())
		assert.False(t, rw.Written())
		assert.Equal(t, http.StatusOK, rw.StatusCode())
	})
}

func TestWrap_Idempotent(t *testing.T) {
	rec := httptest.NewRecorder()
	outer := Wrap(rec)

	inner := Wrap(outer)
	inner.WriteHeader(http.StatusNoContent)

	assert.Same(t, outer, inner)
	assert.Equal(t, http.StatusNoContent, outer.StatusCode())
	assert.Same(t, rec, outer.Unwrap())
}
