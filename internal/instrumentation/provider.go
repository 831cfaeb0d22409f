package instrumentation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Provider owns the meter and tracer providers and the Prometheus registry
// the meter provider feeds.
type Provider struct {
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	registry       *promclient.Registry
	metrics        *Metrics
	enabled        bool
}

// Option configures the tracing side of a Provider.
type Option func(*options)

type options struct {
	processors []sdktrace.SpanProcessor
}

// WithTraceExporter batches finished spans to exp.
func WithTraceExporter(exp sdktrace.SpanExporter) Option {
	return func(o *options) {
		o.processors = append(o.processors, sdktrace.NewBatchSpanProcessor(exp))
	}
}

// WithSpanProcessor registers sp on the tracer provider.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) {
		o.processors = append(o.processors, sp)
	}
}

// NewProvider creates the metrics pipeline and installs a global tracer
// provider. Without a trace exporter or span processor every span is
// dropped at the sampler. When metrics are disabled the provider returns
// no-op metrics and a 404 handler.
func NewProvider(serviceName string, enabled bool, opts ...Option) (*Provider, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	p := &Provider{
		tracerProvider: newTracerProvider(res, o.processors),
		metrics:        &Metrics{},
	}
	otel.SetTracerProvider(p.tracerProvider)

	if !enabled {
		return p, nil
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		_ = p.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(exporter))
	metrics, err := NewMetrics(mp.Meter(serviceName))
	if err != nil {
		_ = mp.Shutdown(context.Background())
		_ = p.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create metrics recorder: %w", err)
	}

	p.meterProvider = mp
	p.registry = registry
	p.metrics = metrics
	p.enabled = true
	return p, nil
}

func newTracerProvider(res *resource.Resource, processors []sdktrace.SpanProcessor) *sdktrace.TracerProvider {
	if len(processors) == 0 {
		return sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.NeverSample()),
		)
	}
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}
	for _, sp := range processors {
		tpOpts = append(tpOpts, sdktrace.WithSpanProcessor(sp))
	}
	return sdktrace.NewTracerProvider(tpOpts...)
}

// Metrics returns the recorder; never nil.
func (p *Provider) Metrics() *Metrics {
	return p.metrics
}

// Enabled reports whether metrics are being collected.
func (p *Provider) Enabled() bool {
	return p.enabled
}

// Handler serves the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	if !p.enabled {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes pending spans and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider: %w", err))
		}
	}
	if p.meterProvider != nil {
		if err := p.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
