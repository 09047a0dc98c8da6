package tracing

import (
	"net/http"

	"turn-notify/internal/handler/http/pathutil"
	"turn-notify/internal/handler/http/requestid"
	"turn-notify/internal/handler/http/responsewriter"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader carries the trace id back to the caller.
const TraceIDHeader = "X-Trace-Id"

// Middleware starts a server span per request.
//
// Incoming W3C trace context is honoured. The span is named after the
// normalized route (/profiles/:id rather than /profiles/42) so span names
// stay bounded. 5xx responses mark the span as failed.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(
			r.Context(),
			propagation.HeaderCarrier(r.Header),
		)

		route := pathutil.NormalizePath(r.URL.Path)
		ctx, span := tracer.Start(ctx, r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()

		w.Header().Set(TraceIDHeader, span.SpanContext().TraceID().String())

		rw := responsewriter.Wrap(w)
		r = r.WithContext(ctx)
		next.ServeHTTP(rw, r)

		span.SetAttributes(
			attribute.Int("http.status_code", rw.StatusCode()),
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
		)
		if id := requestid.FromContext(ctx); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}

		if rw.StatusCode() >= 500 {
			span.SetAttributes(attribute.Bool("error", true))
			span.SetStatus(codes.Error, http.StatusText(rw.StatusCode()))
		}
	})
}
