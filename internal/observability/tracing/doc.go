// Package tracing wires OpenTelemetry into the HTTP server and the
// notification dispatcher.
//
// The exporter is left to the process: main installs a tracer provider when
// one is configured and otherwise the global no-op provider is used. Span
// context is extracted from W3C trace headers on inbound requests and
// carried into the dispatch goroutines so a webhook and its deliveries share
// one trace.
package tracing
