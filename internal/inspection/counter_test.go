package inspection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qscope/internal/config"
	"qscope/internal/logger"
	apperrors "qscope/pkg/errors"
)

func newCounter(f *fakeTransport, every int) *Counter {
	cfg := config.InspectionConfig{WaitTimeSeconds: 1, ProgressEvery: every}
	return NewCounter(NewRetriever(f, cfg, logger.NopLogger()), cfg, logger.NopLogger())
}

func mixedQueue() []string {
	var bodies []string
	bodies = append(bodies, repeat(`{"status":"FAILED"}`, 2)...)
	bodies = append(bodies, repeat(`{"status":"Failed"}`, 2)...)
	bodies = append(bodies, repeat(`{broken`, 3)...)
	bodies = append(bodies, `[1,2]`, `"text"`)
	bodies = append(bodies, repeat(`{"other":"FAILED"}`, 4)...)
	bodies = append(bodies, repeat(`{"status":"OK"}`, 12)...)
	return bodies
}

func TestCountByField_Unbounded(t *testing.T) {
	f := newFakeTransport()
	f.load("q", mixedQueue()...)

	var progress []int
	c := newCounter(f, 10)
	c.OnProgress(func(processed, _ int) { progress = append(progress, processed) })

	result, err := c.CountByField(context.Background(), "q", "status", "FAILED", 0)
	require.NoError(t, err)

	assert.Equal(t, 25, result.Processed)
	assert.Equal(t, 4, result.Matched)
	assert.Equal(t, 5, result.JSONErrors)
	assert.Equal(t, 4, result.MissingField)
	assert.Equal(t, 12, result.Mismatched)
	assert.Equal(t, result.Processed, result.Matched+result.JSONErrors+result.MissingField+result.Mismatched)

	assert.Equal(t, []int{10, 10, 10, 10}, f.calls["q"])
	assert.Equal(t, []int{10, 20}, progress)
}

func TestCountByField_Bounded(t *testing.T) {
	f := newFakeTransport()
	f.load("q", mixedQueue()...)

	result, err := newCounter(f, 50).CountByField(context.Background(), "q", "status", "failed", 7)
	require.NoError(t, err)

	assert.Equal(t, 7, result.Processed)
	assert.Equal(t, 4, result.Matched)
	assert.Equal(t, 3, result.JSONErrors)
	assert.Equal(t, []int{7}, f.calls["q"])
}

func TestCountByField_ToleratesTypes(t *testing.T) {
	f := newFakeTransport()
	f.load("q",
		`{"retries":3}`,
		`{"retries":"3.0"}`,
		`{"retries":" 3 "}`,
		`{"retries":4}`,
		`{"retries":null}`,
	)

	result, err := newCounter(f, 50).CountByField(context.Background(), "q", "retries", 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Matched)
	assert.Equal(t, 2, result.Mismatched)
}

func TestCountByField_TransportErrorKeepsTally(t *testing.T) {
	f := newFakeTransport()
	f.load("q", mixedQueue()...)
	f.failAt["q"] = 2

	result, err := newCounter(f, 50).CountByField(context.Background(), "q", "status", "FAILED", 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	assert.Equal(t, 10, result.Processed)
	assert.NotEmpty(t, result.Error)
}
