package monitor

import (
	"encoding/json"
	"os"
	"time"

	apperrors "qscope/pkg/errors"
	"qscope/pkg/models"
)

const snapshotLogTimeLayout = "2006-01-02 15:04:05"

type snapshotLogEntry struct {
	Timestamp     string                 `json:"timestamp"`
	Data          map[string]interface{} `json:"data"`
	TotalMessages int                    `json:"total_messages"`
}

// SnapshotLog appends snapshots as JSON lines, at most once per interval.
// Error sentinels are written as their error text.
type SnapshotLog struct {
	path     string
	interval time.Duration
	last     time.Time
}

func NewSnapshotLog(path string, interval time.Duration) *SnapshotLog {
	return &SnapshotLog{path: path, interval: interval}
}

func (l *SnapshotLog) Path() string {
	return l.path
}

// MaybeWrite writes snapshot if the interval has elapsed since the last
// write, measured from the first call. It reports whether a line was written.
func (l *SnapshotLog) MaybeWrite(now time.Time, snapshot models.QueueSnapshot) (bool, error) {
	if l.last.IsZero() {
		l.last = now
		return false, nil
	}
	if now.Sub(l.last) < l.interval {
		return false, nil
	}
	if err := l.Write(now, snapshot); err != nil {
		return false, err
	}
	l.last = now
	return true, nil
}

func (l *SnapshotLog) Write(now time.Time, snapshot models.QueueSnapshot) error {
	entry := snapshotLogEntry{
		Timestamp:     now.Format(snapshotLogTimeLayout),
		Data:          make(map[string]interface{}, len(snapshot)),
		TotalMessages: snapshot.Total(),
	}
	for name, d := range snapshot {
		if d.OK() {
			entry.Data[name] = d.Count
		} else {
			entry.Data[name] = d.Err
		}
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return apperrors.ErrInternal.WithCause(err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return apperrors.ErrInternal.WithCause(err).WithDetail("path", l.path)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return apperrors.ErrInternal.WithCause(err).WithDetail("path", l.path)
	}
	return nil
}
