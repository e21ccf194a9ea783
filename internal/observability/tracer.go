package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan creates a new span with the given name and attributes
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// SpanFromContext returns the current span from ctx, so a nested call that
// only has ctx (not the span its caller started) can still annotate it.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// SetSpanError marks the span as errored
func SetSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanOK marks the span as successful
func SetSpanOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// Common attribute keys for resolution-engine spans.
var (
	AttrTag      = attribute.Key("gitconddb.tag")
	AttrPath     = attribute.Key("gitconddb.path")
	AttrBackend  = attribute.Key("gitconddb.backend")
	AttrDepth    = attribute.Key("gitconddb.depth")
	AttrManifest = attribute.Key("gitconddb.manifest_hit")
)
