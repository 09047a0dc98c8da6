package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"turn-notify/internal/handler/http/auth"
	"turn-notify/internal/handler/http/requestid"
	"turn-notify/internal/usecase/binding"
	"turn-notify/internal/usecase/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDispatcher struct{ calls int }

func (d *countingDispatcher) HandleWebhook(_ context.Context, text string) notify.Outcome {
	d.calls++
	if text == "" {
		return notify.Outcome{Status: http.StatusBadRequest}
	}
	return notify.Outcome{Status: http.StatusOK}
}

func TestNewRouter(t *testing.T) {
	secret := []byte("router-secret")
	d := &countingDispatcher{}
	router := NewRouter(RouterConfig{
		Dispatcher: d,
		Bindings:   &binding.Service{},
		Auth:       &auth.Authenticator{Secret: secret},
		APITimeout: time.Second,
		Health:     &HealthHandler{Store: stubPinger{}, Version: "v1"},
		Limits:     DefaultInputLimits(),
	})

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{name: "TC-1: live", method: http.MethodGet, target: "/live", want: http.StatusOK},
		{name: "TC-2: ready", method: http.MethodGet, target: "/ready", want: http.StatusOK},
		{name: "TC-3: health", method: http.MethodGet, target: "/health", want: http.StatusOK},
		{name: "TC-4: metrics", method: http.MethodGet, target: "/metrics", want: http.StatusOK},
		{name: "TC-5: webhook", method: http.MethodPost, target: DefaultWebhookPath, body: "Game X: your turn", want: http.StatusOK},
		{name: "TC-6: webhook wrong method", method: http.MethodGet, target: DefaultWebhookPath, want: http.StatusMethodNotAllowed},
		{name: "TC-7: profile API needs a token", method: http.MethodGet, target: "/profiles", want: http.StatusUnauthorized},
		{name: "TC-8: unknown route", method: http.MethodGet, target: "/games", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			router.ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
			assert.NotEmpty(t, rr.Header().Get(requestid.RequestIDHeader))
		})
	}
	assert.Equal(t, 1, d.calls)
}

func TestNewRouter_ProfileAPIWithToken(t *testing.T) {
	secret := []byte("router-secret")
	router := NewRouter(RouterConfig{
		Bindings: &binding.Service{},
		Auth:     &auth.Authenticator{Secret: secret},
	})
	tok, err := auth.IssueToken(secret, binding.Session{UserID: "u1", Platform: "discord", BotID: "b1"}, time.Hour, time.Now())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/profiles/notify", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	// The body is rejected before the service is reached.
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNewWebhookRouter(t *testing.T) {
	d := &countingDispatcher{}
	router := NewWebhookRouter(RouterConfig{
		Dispatcher:     d,
		WebhookPath:    "/hook",
		WebhookLimiter: NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 1}),
	})

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader("turn"))
		req.RemoteAddr = "203.0.113.50:1"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())
	assert.Equal(t, 1, d.calls)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/profiles", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNewRouter_WebhookBurstFromOneServer(t *testing.T) {
	// Arrange: no limiter configured, as in the default deployment
	d := &countingDispatcher{}
	router := NewRouter(RouterConfig{Dispatcher: d, Limits: DefaultInputLimits()})

	codes := map[int]int{}
	const burst = 20

	// Act
	for range burst {
		req := httptest.NewRequest(http.MethodPost, DefaultWebhookPath, strings.NewReader(`{"text":"<42> your turn"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.7:40000"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes[rr.Code]++
	}

	// Assert
	assert.Equal(t, map[int]int{http.StatusOK: burst}, codes)
	assert.Equal(t, burst, d.calls)
}
