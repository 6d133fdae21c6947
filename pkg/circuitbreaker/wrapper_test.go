package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_OpensAfterFailures(t *testing.T) {
	cfg := DefaultConfig("depth:test")
	cfg.Timeout = time.Minute
	b := New(cfg)

	failing := func(context.Context) error { return errors.New("unreachable") }
	for i := 0; i < 3; i++ {
		require.Error(t, b.Do(context.Background(), failing))
	}

	assert.True(t, b.IsOpen())

	called := false
	err := b.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, called)
}

func TestBreaker_CancelledContext(t *testing.T) {
	b := New(DefaultConfig("cancelled"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Do(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSet_ReusesBreakers(t *testing.T) {
	s := NewSet(DefaultConfig("ignored"))

	a := s.Get("queue-a")
	assert.Same(t, a, s.Get("queue-a"))
	assert.NotSame(t, a, s.Get("queue-b"))
	assert.Equal(t, "queue-b", s.Get("queue-b").Name())
}
