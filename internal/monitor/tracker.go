package monitor

import (
	"time"

	"qscope/pkg/models"
)

// Tracker remembers the last numeric depth per queue and reports changes
// between consecutive snapshots. It is owned by a single polling loop.
type Tracker struct {
	previous map[string]int
	now      func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		previous: make(map[string]int),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DetectChanges compares snapshot against the stored state and then stores
// it. The first observation of a queue emits nothing. Error sentinels are
// ignored and leave the stored value untouched. Events come out in queue
// name order.
func (t *Tracker) DetectChanges(snapshot models.QueueSnapshot) []models.ChangeEvent {
	var events []models.ChangeEvent
	ts := t.now()

	for _, name := range snapshot.Names() {
		depth := snapshot[name]
		if !depth.OK() {
			continue
		}

		prev, seen := t.previous[name]
		t.previous[name] = depth.Count
		if !seen || prev == depth.Count {
			continue
		}

		kind := models.ChangeIncrease
		if depth.Count < prev {
			kind = models.ChangeDecrease
		}
		events = append(events, models.ChangeEvent{
			QueueName:     name,
			PreviousCount: prev,
			CurrentCount:  depth.Count,
			Delta:         depth.Count - prev,
			Kind:          kind,
			Timestamp:     ts,
		})
	}

	return events
}

// Last returns the stored depth for a queue.
func (t *Tracker) Last(name string) (int, bool) {
	v, ok := t.previous[name]
	return v, ok
}
