package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func serveTimeout(d time.Duration, h http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	Timeout(d)(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profiles", nil))
	return rec
}

func TestTimeout_Success(t *testing.T) {
	rec := serveTimeout(time.Second, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":1}`))
	})

	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if rec.Body.String() != `{"id":1}` {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected handler headers to be copied, got %v", rec.Header())
	}
}

func TestTimeout_Timeout(t *testing.T) {
	rec := serveTimeout(50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(150 * time.Millisecond)
		_, _ = w.Write([]byte("should not reach here"))
	})

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("expected status 504, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "request timeout") {
		t.Errorf("expected timeout message, got %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}
}

func TestTimeout_ContextCancellation(t *testing.T) {
	canceled := make(chan struct{})

	rec := serveTimeout(50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
			close(canceled)
		}
	})

	select {
	case <-canceled:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("expected handler context to be canceled")
	}
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("expected status 504, got %d", rec.Code)
	}
}

func TestTimeout_ZeroDuration(t *testing.T) {
	rec := serveTimeout(0, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("expected status 504 with zero timeout, got %d", rec.Code)
	}
}

func TestTimeout_ContextHasDeadline(t *testing.T) {
	deadlineCh := make(chan time.Time, 1)
	start := time.Now()

	serveTimeout(time.Second, func(w http.ResponseWriter, r *http.Request) {
		if dl, ok := r.Context().Deadline(); ok {
			deadlineCh <- dl
		}
		w.WriteHeader(http.StatusOK)
	})

	select {
	case dl := <-deadlineCh:
		want := start.Add(time.Second)
		if dl.Before(want.Add(-100*time.Millisecond)) || dl.After(want.Add(100*time.Millisecond)) {
			t.Errorf("expected deadline around %v, got %v", want, dl)
		}
	default:
		t.Fatal("expected context to have a deadline")
	}
}

func TestTimeout_WriteAfterTimeout(t *testing.T) {
	writeErr := make(chan error, 1)

	rec := serveTimeout(30*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
		time.Sleep(30 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("too late"))
		writeErr <- err
	})

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("expected status 504, got %d", rec.Code)
	}
	select {
	case err := <-writeErr:
		if err != http.ErrHandlerTimeout {
			t.Errorf("expected ErrHandlerTimeout, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("handler did not finish")
	}
	if strings.Contains(rec.Body.String(), "too late") {
		t.Errorf("late write leaked into response: %q", rec.Body.String())
	}
}

func TestTimeout_MultipleWrites(t *testing.T) {
	rec := serveTimeout(time.Second, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("first "))
		_, _ = w.Write([]byte("second "))
		_, _ = w.Write([]byte("third"))
	})

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "first second third" {
		t.Errorf("expected combined body, got %q", rec.Body.String())
	}
}

func TestTimeout_PanicPropagates(t *testing.T) {
	defer func() {
		if rec := recover(); rec != "boom" {
			t.Errorf("expected panic to reach the caller, got %v", rec)
		}
	}()

	serveTimeout(time.Second, func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
}
