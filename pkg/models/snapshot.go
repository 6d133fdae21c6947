package models

import (
	"sort"
	"time"
)

type ChangeKind string

const (
	ChangeIncrease ChangeKind = "increase"
	ChangeDecrease ChangeKind = "decrease"
)

// QueueDepth is one queue's observed count for a tick. A non-empty Err marks
// the entry as an error sentinel.
type QueueDepth struct {
	Count int    `json:"count"`
	Err   string `json:"error,omitempty"`
}

func (d QueueDepth) OK() bool {
	return d.Err == ""
}

type QueueSnapshot map[string]QueueDepth

// Total sums every numeric entry, skipping error sentinels.
func (s QueueSnapshot) Total() int {
	total := 0
	for _, d := range s {
		if d.OK() {
			total += d.Count
		}
	}
	return total
}

func (s QueueSnapshot) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type ChangeEvent struct {
	QueueName     string     `json:"queue_name" bson:"queue_name"`
	PreviousCount int        `json:"previous_count" bson:"previous_count"`
	CurrentCount  int        `json:"current_count" bson:"current_count"`
	Delta         int        `json:"delta" bson:"delta"`
	Kind          ChangeKind `json:"kind" bson:"kind"`
	Timestamp     time.Time  `json:"timestamp" bson:"timestamp"`
}
