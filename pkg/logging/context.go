package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	RunIDKey     contextKey = "run_id"
	QueueNameKey contextKey = "queue_name"
	CommandKey   contextKey = "command"
)

func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

func WithQueueName(ctx context.Context, queueName string) context.Context {
	return context.WithValue(ctx, QueueNameKey, queueName)
}

func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, CommandKey, command)
}

func value(ctx context.Context, key contextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

func GetRunID(ctx context.Context) string     { return value(ctx, RunIDKey) }
func GetQueueName(ctx context.Context) string { return value(ctx, QueueNameKey) }
func GetCommand(ctx context.Context) string   { return value(ctx, CommandKey) }

// GetLogFields returns the key/value pairs stored in ctx, plus the active
// trace id when a span is recording.
func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 8)
	for _, key := range []contextKey{RunIDKey, QueueNameKey, CommandKey} {
		if v := value(ctx, key); v != "" {
			fields = append(fields, string(key), v)
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields = append(fields, "trace_id", sc.TraceID().String())
	}
	return fields
}
