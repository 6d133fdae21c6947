package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"qscope/internal/config"
)

func TestSampler(t *testing.T) {
	tests := []struct {
		typ     string
		wantErr bool
	}{
		{"", false},
		{"always_on", false},
		{"always_off", false},
		{"traceidratio", false},
		{"parentbased_always_on", false},
		{"parentbased_traceidratio", false},
		{"sometimes", true},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			s, err := Sampler(config.SamplerConfig{Type: tt.typ, Param: 0.5})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestInit_Disabled(t *testing.T) {
	tp, err := Init(config.TracingConfig{}, "list")
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestEndSpan_RecordsError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	assert.NotEmpty(t, TraceID(ctx))
	EndSpan(span, errors.New("boom"))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "boom", ended[0].Status().Description)
	assert.Empty(t, TraceID(context.Background()))
}
