package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for every span of the service.
const TracerName = "turn-notify"

var tracer = otel.Tracer(TracerName)

// GetTracer returns the service tracer.
//
//	ctx, span := tracing.GetTracer().Start(ctx, "notify.dispatch")
//	defer span.End()
func GetTracer() trace.Tracer {
	return tracer
}
