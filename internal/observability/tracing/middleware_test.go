package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"turn-notify/internal/handler/http/requestid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupExporter installs an in-memory provider and re-resolves the package
// tracer against it.
func setupExporter(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer(TracerName)
	t.Cleanup(func() {
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
		tracer = otel.Tracer(TracerName)
	})
	return exporter, tp
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestMiddleware_CreatesSpan(t *testing.T) {
	exporter, tp := setupExporter(t)

	handler := requestid.Middleware(Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodPost, "/18xx", nil)
	req.Header.Set(requestid.RequestIDHeader, "req-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "POST /18xx" {
		t.Errorf("expected span name 'POST /18xx', got %q", span.Name)
	}
	if v, ok := attrValue(span.Attributes, "http.status_code"); !ok || v.AsInt64() != 200 {
		t.Errorf("expected http.status_code=200, got %v", v.Emit())
	}
	if v, ok := attrValue(span.Attributes, "http.method"); !ok || v.AsString() != "POST" {
		t.Errorf("expected http.method=POST, got %v", v.Emit())
	}
	if v, ok := attrValue(span.Attributes, "request_id"); !ok || v.AsString() != "req-1" {
		t.Errorf("expected request_id=req-1, got %v", v.Emit())
	}
}

func TestMiddleware_NormalizesSpanName(t *testing.T) {
	exporter, tp := setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodPost, "/profiles/42/bind", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "POST /profiles/:id/bind" {
		t.Errorf("expected normalized span name, got %q", spans[0].Name)
	}
}

func TestMiddleware_AddsTraceIDToResponse(t *testing.T) {
	setupExporter(t)

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	traceID := rr.Header().Get(TraceIDHeader)
	if len(traceID) != 32 {
		t.Errorf("expected 32 hex trace id, got %q", traceID)
	}
}

func TestMiddleware_PropagatesTraceContext(t *testing.T) {
	exporter, tp := setupExporter(t)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())

	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodPost, "/18xx", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if got := spans[0].SpanContext.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("expected propagated trace id, got %s", got)
	}
}

func TestMiddleware_ErrorStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantError bool
	}{
		{name: "5xx marks span as error", status: http.StatusInternalServerError, wantError: true},
		{name: "4xx leaves span ok", status: http.StatusNotFound, wantError: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, tp := setupExporter(t)

			handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/profiles", nil))
			_ = tp.ForceFlush(context.Background())

			spans := exporter.GetSpans()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			_, hasErr := attrValue(spans[0].Attributes, "error")
			if hasErr != tt.wantError {
				t.Errorf("error attribute present = %v, want %v", hasErr, tt.wantError)
			}
			if tt.wantError && spans[0].Status.Code != codes.Error {
				t.Errorf("expected error status, got %v", spans[0].Status.Code)
			}
		})
	}
}
