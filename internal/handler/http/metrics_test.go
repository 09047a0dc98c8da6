package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_PathNormalization(t *testing.T) {
	httpRequestsTotal.Reset()

	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, id := range []string{"1", "2", "1800", "999999"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/profiles/"+id, nil))
	}
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/profiles/1800/bind?force=true", nil))

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("DELETE", "/profiles/:id", "204")); got != 4 {
		t.Errorf("expected 4 requests under /profiles/:id, got %v", got)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/profiles/:id/bind", "204")); got != 1 {
		t.Errorf("expected 1 request under /profiles/:id/bind, got %v", got)
	}
	if n := testutil.CollectAndCount(httpRequestsTotal); n != 2 {
		t.Errorf("expected 2 label sets, got %d", n)
	}
}

func TestMetricsMiddleware_StatusCodes(t *testing.T) {
	httpRequestsTotal.Reset()

	tests := []struct {
		name   string
		status int
		write  bool
		want   string
	}{
		{name: "implicit 200", write: true, want: "200"},
		{name: "bad request", status: http.StatusBadRequest, want: "400"},
		{name: "rate limited", status: http.StatusTooManyRequests, want: "429"},
		{name: "server error", status: http.StatusInternalServerError, want: "500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				if tt.write {
					_, _ = w.Write([]byte("ok"))
				}
			}))
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/18xx", tt.want))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/18xx", nil))

			after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/18xx", tt.want))
			if after-before != 1 {
				t.Errorf("expected status %s to be counted once, got delta %v", tt.want, after-before)
			}
		})
	}
}

func TestMetricsMiddleware_InFlight(t *testing.T) {
	var during float64
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(httpRequestsInFlight)
	}))

	before := testutil.ToFloat64(httpRequestsInFlight)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if during != before+1 {
		t.Errorf("expected in-flight %v during request, got %v", before+1, during)
	}
	if got := testutil.ToFloat64(httpRequestsInFlight); got != before {
		t.Errorf("expected in-flight back to %v, got %v", before, got)
	}
}

func TestMetricsMiddleware_ResponseSize(t *testing.T) {
	httpResponseSize.Reset()
	body := strings.Repeat("x", 100)
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/profiles", nil))

	if n := testutil.CollectAndCount(httpResponseSize); n != 1 {
		t.Errorf("expected one response size series, got %d", n)
	}
}

func TestRateLimiter_CountsRejections(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1})
	h := rl.Limit(okHandler())
	before := testutil.ToFloat64(rateLimitedTotal)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/18xx", nil)
		req.RemoteAddr = "198.51.100.1:1"
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(rateLimitedTotal) - before; got != 2 {
		t.Errorf("expected 2 rejections, got %v", got)
	}
}

func TestMetricsHandler(t *testing.T) {
	httpRequestsTotal.WithLabelValues("GET", "/health", "200").Inc()

	rr := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Error("expected http_requests_total in exposition")
	}
}
