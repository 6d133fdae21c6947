package tracing

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// InjectTraceContext adds the propagation headers for the span in ctx to
// headers, replacing any with the same key.
func InjectTraceContext(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	if len(carrier) == 0 {
		return headers
	}

	out := make([]kafka.Header, 0, len(headers)+len(carrier))
	for _, h := range headers {
		if _, replaced := carrier[h.Key]; !replaced {
			out = append(out, h)
		}
	}
	for _, key := range carrier.Keys() {
		out = append(out, kafka.Header{Key: key, Value: []byte(carrier[key])})
	}
	return out
}

// StartPublishSpan starts a producer span for a change event publish.
func StartPublishSpan(ctx context.Context, topic string) (context.Context, trace.Span) {
	return otel.Tracer("qscope-kafka").Start(ctx, "kafka.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", topic),
		))
}
