// Package instrumentation provides OpenTelemetry metrics and tracing for the
// booking agent.
//
// Metrics are exported in Prometheus format through a dedicated registry and
// served by the HTTP server at /metrics. When metrics are disabled the
// Provider hands out a no-op *Metrics whose methods are safe to call.
//
// NewProvider also installs the global tracer provider. Turn and tool spans
// are sampled only when a trace exporter or span processor is configured.
package instrumentation
