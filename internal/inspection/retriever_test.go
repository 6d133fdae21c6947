package inspection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qscope/internal/config"
	"qscope/internal/logger"
	apperrors "qscope/pkg/errors"
	"qscope/pkg/models"
)

func newRetriever(f *fakeTransport) *Retriever {
	return NewRetriever(f, config.InspectionConfig{WaitTimeSeconds: 1}, logger.NopLogger())
}

func TestFetch_BatchesUpToLimit(t *testing.T) {
	f := newFakeTransport()
	f.load("q", repeat(`{"a":1}`, 15)...)

	msgs, err := newRetriever(f).Fetch(context.Background(), "q", 12)
	require.NoError(t, err)
	assert.Len(t, msgs, 12)
	assert.Equal(t, []int{10, 2}, f.calls["q"])
}

func TestFetch_StopsOnEmptyBatch(t *testing.T) {
	f := newFakeTransport()
	f.load("q", repeat(`{}`, 5)...)

	msgs, err := newRetriever(f).Fetch(context.Background(), "q", 25)
	require.NoError(t, err)
	assert.Len(t, msgs, 5)
	assert.Equal(t, []int{10, 10}, f.calls["q"])
}

func TestFetch_BatchCallCount(t *testing.T) {
	tests := []struct {
		limit     int
		available int
		calls     int
	}{
		{limit: 1, available: 50, calls: 1},
		{limit: 10, available: 50, calls: 1},
		{limit: 11, available: 50, calls: 2},
		{limit: 30, available: 50, calls: 3},
		{limit: 100, available: 100, calls: 10},
	}

	for _, tt := range tests {
		f := newFakeTransport()
		f.load("q", repeat(`{}`, tt.available)...)

		msgs, err := newRetriever(f).Fetch(context.Background(), "q", tt.limit)
		require.NoError(t, err)
		assert.Len(t, msgs, tt.limit)
		assert.Len(t, f.calls["q"], tt.calls, "limit %d", tt.limit)
	}
}

func TestFetch_UnboundedReadsUntilEmpty(t *testing.T) {
	f := newFakeTransport()
	f.load("q", repeat(`{}`, 23)...)

	msgs, err := newRetriever(f).Fetch(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Len(t, msgs, 23)
	assert.Equal(t, []int{10, 10, 10, 10}, f.calls["q"])
}

func TestFetch_TransportErrorKeepsPartial(t *testing.T) {
	f := newFakeTransport()
	f.load("q", repeat(`{}`, 30)...)
	f.failAt["q"] = 2

	msgs, err := newRetriever(f).Fetch(context.Background(), "q", 30)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	assert.Len(t, msgs, 10)
}

func TestStream_CallbackErrorStops(t *testing.T) {
	f := newFakeTransport()
	f.load("q", repeat(`{}`, 30)...)

	stop := assert.AnError
	batches := 0
	err := newRetriever(f).Stream(context.Background(), "q", 30, func(batch []models.RawMessage) error {
		batches++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, batches)
}

func TestStream_CancelledContext(t *testing.T) {
	f := newFakeTransport()
	f.load("q", repeat(`{}`, 30)...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newRetriever(f).Stream(ctx, "q", 30, func([]models.RawMessage) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.calls["q"])
}
