package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// instrumentationName scopes the spans nodegraph packages create.
const instrumentationName = "github.com/zjrosen/nodegraph"

// Start opens an internal span on the global tracer provider.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// End records the outcome of the operation on span and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.AddEvent(EventErrorOccurred, trace.WithAttributes(
			attribute.String(AttrErrorMessage, err.Error()),
		))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
