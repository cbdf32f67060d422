package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/xraph/assetsync"

// Tracer provides OpenTelemetry tracing for sync and delivery.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer from the global provider.
func NewTracer() *Tracer {
	return NewTracerWithProvider(otel.GetTracerProvider())
}

// NewTracerWithProvider creates a tracer from tp.
func NewTracerWithProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(tracerName)}
}

// StartSyncSpan starts the span covering one asset notification.
func (t *Tracer) StartSyncSpan(ctx context.Context, eventCode string, brands int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "assetsync.dispatch",
		trace.WithAttributes(
			attribute.String("assetsync.event_code", eventCode),
			attribute.Int("assetsync.brand_count", brands),
		),
	)
}

// StartDeliverySpan starts a span for one brand delivery.
func (t *Tracer) StartDeliverySpan(ctx context.Context, eventID, eventType, brandID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "assetsync.delivery",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("assetsync.event_id", eventID),
			attribute.String("assetsync.event_type", eventType),
			attribute.String("assetsync.brand_id", brandID),
		),
	)
}

// EndDeliverySpan ends a delivery span with result attributes.
func (t *Tracer) EndDeliverySpan(span trace.Span, statusCode, latencyMs int, outcome, errMsg string) {
	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Int("assetsync.latency_ms", latencyMs),
		attribute.String("assetsync.outcome", outcome),
	)
	if errMsg != "" {
		span.SetAttributes(attribute.String("assetsync.error", errMsg))
		span.SetStatus(codes.Error, errMsg)
	}
	span.End()
}
