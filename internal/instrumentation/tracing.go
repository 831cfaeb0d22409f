package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/comigor/jarvis-booking"

// StartTurnSpan starts the span covering one dialogue turn.
func StartTurnSpan(ctx context.Context, transcriptLen int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "agent.turn",
		trace.WithAttributes(attribute.Int("transcript.length", transcriptLen)))
}

// StartToolSpan starts a span for a single tool call.
func StartToolSpan(ctx context.Context, toolName string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "tool."+toolName,
		trace.WithAttributes(attribute.String("tool.name", toolName)))
}

// RecordSpanError marks the span as failed. A nil error is a no-op.
func RecordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
