package monitor

import (
	"context"
	"fmt"
	"io"
	"time"

	"qscope/internal/constants"
	"qscope/internal/logger"
	apperrors "qscope/pkg/errors"
	"qscope/pkg/metrics"
	"qscope/pkg/models"
)

type WatcherOptions struct {
	Interval time.Duration
	// Log is optional; nil disables the JSON lines snapshot log.
	Log *SnapshotLog
	Out io.Writer
}

// Watcher is the polling loop: poll, render, detect changes, fan out.
type Watcher struct {
	poller  *Poller
	tracker *Tracker
	sinks   *Fanout
	queues  []models.QueueDescriptor
	opts    WatcherOptions
	logger  logger.Logger
	now     func() time.Time
}

func NewWatcher(poller *Poller, sinks *Fanout, queues []models.QueueDescriptor, opts WatcherOptions, log logger.Logger) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = constants.DefaultMonitorInterval
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if sinks == nil {
		sinks = NewFanout(log)
	}
	return &Watcher{
		poller:  poller,
		tracker: NewTracker(),
		sinks:   sinks,
		queues:  queues,
		opts:    opts,
		logger:  log,
		now:     time.Now,
	}
}

// Run ticks until ctx is cancelled. Cancellation is a clean stop.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.InfowCtx(ctx, "Queue watch started",
		"queues", len(w.queues),
		"interval", w.opts.Interval,
		"sinks", w.sinks.Len(),
	)

	for {
		w.safeTick(ctx)

		select {
		case <-ctx.Done():
			fmt.Fprintln(w.opts.Out, "\nMonitoring stopped.")
			w.logger.InfowCtx(ctx, "Queue watch stopped")
			return nil
		case <-time.After(w.opts.Interval):
		}
	}
}

func (w *Watcher) safeTick(ctx context.Context) {
	err := apperrors.Guard(func() { w.Tick(ctx) })
	if err != nil {
		w.logger.ErrorwCtx(ctx, "Panic recovered during watch tick", "error", err)
	}
}

// Tick runs one poll cycle and returns what it observed.
func (w *Watcher) Tick(ctx context.Context) (models.QueueSnapshot, []models.ChangeEvent) {
	snapshot := w.poller.Poll(ctx, w.queues)
	now := w.now()

	RenderTable(w.opts.Out, w.queues, snapshot, now)

	events := w.tracker.DetectChanges(snapshot)
	for _, e := range events {
		metrics.IncChangeEvent(e.QueueName, string(e.Kind))
		w.logger.InfowCtx(ctx, "Queue depth changed",
			"queue_name", e.QueueName,
			"previous", e.PreviousCount,
			"current", e.CurrentCount,
			"delta", e.Delta,
			"kind", e.Kind,
		)
	}
	RenderChanges(w.opts.Out, events)

	w.sinks.Record(ctx, snapshot, events)

	if w.opts.Log != nil {
		written, err := w.opts.Log.MaybeWrite(now, snapshot)
		if err != nil {
			w.logger.ErrorwCtx(ctx, "Failed to write snapshot log", "path", w.opts.Log.Path(), "error", err)
		} else if written {
			fmt.Fprintf(w.opts.Out, "Snapshot saved to %s\n", w.opts.Log.Path())
		}
	}

	return snapshot, events
}
