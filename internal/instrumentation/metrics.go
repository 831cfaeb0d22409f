package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrTool   = "tool"
	attrStatus = "status"
)

// Status values shared by all recorders.
const (
	StatusSuccess      = "success"
	StatusError        = "error"
	StatusLoopExceeded = "loop_limit_exceeded"
)

// Metrics provides methods for recording observability metrics.
// The zero value and a nil *Metrics record nothing.
type Metrics struct {
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
	modelCallsTotal      metric.Int64Counter
	turnsTotal           metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"tool_invocations_total",
		metric.WithDescription("Total number of tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"tool_duration_seconds",
		metric.WithDescription("Tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_duration_seconds histogram: %w", err)
	}

	m.modelCallsTotal, err = meter.Int64Counter(
		"model_calls_total",
		metric.WithDescription("Total number of language model invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_calls_total counter: %w", err)
	}

	m.turnsTotal, err = meter.Int64Counter(
		"turns_total",
		metric.WithDescription("Total number of dialogue turns by outcome"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create turns_total counter: %w", err)
	}

	return m, nil
}

// RecordToolInvocation records a tool invocation with its outcome and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordModelCall records one language model invocation.
func (m *Metrics) RecordModelCall(ctx context.Context, status string) {
	if m == nil || m.modelCallsTotal == nil {
		return
	}
	m.modelCallsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordTurn records the outcome of a full dialogue turn.
func (m *Metrics) RecordTurn(ctx context.Context, status string) {
	if m == nil || m.turnsTotal == nil {
		return
	}
	m.turnsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}
