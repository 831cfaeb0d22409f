package instrumentation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestProvider_ExposesRecordedMetrics(t *testing.T) {
	p, err := NewProvider("jarvis-booking-test", true)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	require.True(t, p.Enabled())

	ctx := context.Background()
	p.Metrics().RecordToolInvocation(ctx, "check_availability", StatusSuccess, 20*time.Millisecond)
	p.Metrics().RecordModelCall(ctx, StatusSuccess)
	p.Metrics().RecordTurn(ctx, StatusLoopExceeded)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "tool_invocations_total")
	require.Contains(t, string(body), "check_availability")
	require.Contains(t, string(body), "model_calls_total")
	require.Contains(t, string(body), "loop_limit_exceeded")
}

func TestProvider_Disabled(t *testing.T) {
	p, err := NewProvider("jarvis-booking-test", false)
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NotNil(t, p.Metrics())

	// no-op recorders must not panic
	p.Metrics().RecordToolInvocation(context.Background(), "x", StatusError, time.Second)
	p.Metrics().RecordTurn(context.Background(), StatusSuccess)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordModelCall(context.Background(), StatusError)
	m.RecordToolInvocation(context.Background(), "x", StatusError, time.Second)
	m.RecordTurn(context.Background(), StatusError)
}

func TestSpans_RecordedThroughProvider(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	p, err := NewProvider("jarvis-booking-test", false, WithSpanProcessor(recorder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	ctx, span := StartTurnSpan(context.Background(), 3)
	_, toolSpan := StartToolSpan(ctx, "create_appointment")
	RecordSpanError(toolSpan, errors.New("boom"))
	toolSpan.End()
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	tool, turn := ended[0], ended[1]
	require.Equal(t, "tool.create_appointment", tool.Name())
	require.Equal(t, codes.Error, tool.Status().Code)
	require.Equal(t, "boom", tool.Status().Description)
	require.Contains(t, tool.Attributes(), attribute.String("tool.name", "create_appointment"))
	require.Equal(t, turn.SpanContext().SpanID(), tool.Parent().SpanID())

	require.Equal(t, "agent.turn", turn.Name())
	require.Equal(t, codes.Unset, turn.Status().Code)
	require.Contains(t, turn.Attributes(), attribute.Int("transcript.length", 3))

	svc, ok := turn.Resource().Set().Value("service.name")
	require.True(t, ok)
	require.Equal(t, "jarvis-booking-test", svc.AsString())
}

func TestSpans_NilErrorLeavesStatusUnset(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	p, err := NewProvider("jarvis-booking-test", false, WithSpanProcessor(recorder))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	_, span := StartToolSpan(context.Background(), "check_availability")
	RecordSpanError(span, nil)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, codes.Unset, ended[0].Status().Code)
	require.Empty(t, ended[0].Events())
}

func TestSpans_DroppedWithoutExporter(t *testing.T) {
	p, err := NewProvider("jarvis-booking-test", false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	_, span := StartTurnSpan(context.Background(), 1)
	require.False(t, span.SpanContext().IsSampled())
	span.End()
}

func TestProvider_TraceExporterReceivesSpans(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	p, err := NewProvider("jarvis-booking-test", true, WithTraceExporter(exp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	_, span := StartTurnSpan(context.Background(), 2)
	span.End()

	// the in-memory exporter resets on shutdown, so flush instead
	require.NoError(t, p.tracerProvider.ForceFlush(context.Background()))
	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "agent.turn", spans[0].Name)
}
