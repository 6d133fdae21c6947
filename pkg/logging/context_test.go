package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestGetLogFields(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetLogFields(ctx))

	ctx = WithRunID(ctx, "run-1")
	ctx = WithQueueName(ctx, "orders-dlq")

	assert.Equal(t, []interface{}{"run_id", "run-1", "queue_name", "orders-dlq"}, GetLogFields(ctx))
	assert.Equal(t, "", GetCommand(ctx))
}

func TestGetLogFields_TraceID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(WithCommand(context.Background(), "qscope list"), "op")
	defer span.End()

	fields := GetLogFields(ctx)
	assert.Equal(t, []interface{}{"command", "qscope list", "trace_id", span.SpanContext().TraceID().String()}, fields)
}

func TestEarlyLog(t *testing.T) {
	var buf bytes.Buffer
	l := NewEarlyLogTo(&buf)
	l.Error("config %s missing", "qscope.yaml")
	l.Warn("falling back")
	assert.Equal(t, "qscope: error: config qscope.yaml missing\nqscope: warn: falling back\n", buf.String())
}
