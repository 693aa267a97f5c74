package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dimitrije/coachlink-api/internal/services"

var tracer = otel.Tracer(tracerName)

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan closes span. Typed failures are expected outcomes and are recorded as an
// attribute; anything else marks the span as errored.
func endSpan(span trace.Span, err error) {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	if kind := KindOf(err); kind != "" {
		span.SetAttributes(attribute.String("coachlink.error_kind", string(kind)))
		return
	}
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}

func recordError(ctx context.Context, err error) {
	trace.SpanFromContext(ctx).RecordError(err)
}
