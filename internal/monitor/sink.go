package monitor

import (
	"context"
	"errors"

	"qscope/internal/logger"
	"qscope/pkg/circuitbreaker"
	"qscope/pkg/metrics"
	"qscope/pkg/models"
)

// EventSink persists or forwards the result of one polling tick.
type EventSink interface {
	Name() string
	Record(ctx context.Context, snapshot models.QueueSnapshot, events []models.ChangeEvent) error
	Close() error
}

// Fanout delivers each tick to every sink. A failing sink is logged and
// skipped; it never blocks the others or the loop.
type Fanout struct {
	sinks    []EventSink
	breakers *circuitbreaker.Set
	logger   logger.Logger
}

func NewFanout(log logger.Logger, sinks ...EventSink) *Fanout {
	return &Fanout{
		sinks:    sinks,
		breakers: circuitbreaker.NewSet(circuitbreaker.DefaultConfig("sink")),
		logger:   log,
	}
}

func (f *Fanout) Len() int {
	return len(f.sinks)
}

func (f *Fanout) Record(ctx context.Context, snapshot models.QueueSnapshot, events []models.ChangeEvent) {
	for _, s := range f.sinks {
		sink := s
		err := f.breakers.Get("sink:"+sink.Name()).Do(ctx, func(ctx context.Context) error {
			return sink.Record(ctx, snapshot, events)
		})
		metrics.IncSinkWrite(sink.Name(), err)
		if err != nil {
			f.logger.WarnwCtx(ctx, "Sink write failed",
				"sink", sink.Name(),
				"events", len(events),
				"error", err,
			)
		}
	}
}

func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
