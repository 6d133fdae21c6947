package monitor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qscope/internal/logger"
	"qscope/pkg/circuitbreaker"
	"qscope/pkg/models"
)

type fakeDepths struct {
	depths map[string]int
	errs   map[string]error
	calls  map[string]int
}

func newFakeDepths() *fakeDepths {
	return &fakeDepths{depths: map[string]int{}, errs: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeDepths) Receive(context.Context, string, int, int) ([]models.RawMessage, error) {
	return nil, nil
}

func (f *fakeDepths) Depth(_ context.Context, endpoint string) (int, error) {
	f.calls[endpoint]++
	if err := f.errs[endpoint]; err != nil {
		return 0, err
	}
	return f.depths[endpoint], nil
}

func (f *fakeDepths) Ping(context.Context) error { return nil }

type recordingSink struct {
	name      string
	err       error
	snapshots []models.QueueSnapshot
	events    [][]models.ChangeEvent
	closed    bool
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Record(_ context.Context, snapshot models.QueueSnapshot, events []models.ChangeEvent) error {
	s.snapshots = append(s.snapshots, snapshot)
	s.events = append(s.events, events)
	return s.err
}

func (s *recordingSink) Close() error {
	s.closed = true
	return nil
}

var testQueues = []models.QueueDescriptor{
	{Name: "trigger dlq", Endpoint: "e-trigger-dlq"},
	{Name: "trigger queue", Endpoint: "e-trigger"},
	{Name: "context dlq", Endpoint: "e-context-dlq"},
}

func TestPoll_ErrorsBecomeSentinels(t *testing.T) {
	f := newFakeDepths()
	f.depths["e-trigger-dlq"] = 3
	f.depths["e-trigger"] = 7
	f.errs["e-context-dlq"] = errors.New("access denied")

	snapshot := NewPoller(f, nil, logger.NopLogger()).Poll(context.Background(), testQueues)

	require.Len(t, snapshot, 3)
	assert.Equal(t, models.QueueDepth{Count: 3}, snapshot["trigger dlq"])
	assert.False(t, snapshot["context dlq"].OK())
	assert.Contains(t, snapshot["context dlq"].Err, "access denied")
	assert.Equal(t, 10, snapshot.Total())
}

func TestPoll_BreakerSkipsDeadQueue(t *testing.T) {
	f := newFakeDepths()
	f.errs["e-context-dlq"] = errors.New("timeout")
	cfg := circuitbreaker.DefaultConfig("depth")
	cfg.Timeout = time.Hour
	p := NewPoller(f, circuitbreaker.NewSet(cfg), logger.NopLogger())

	for i := 0; i < 5; i++ {
		p.Poll(context.Background(), testQueues[2:])
	}

	assert.Equal(t, 3, f.calls["e-context-dlq"])
}

func TestWatcherTick(t *testing.T) {
	f := newFakeDepths()
	f.depths["e-trigger-dlq"] = 5
	f.depths["e-trigger"] = 0
	f.errs["e-context-dlq"] = errors.New("denied")

	good := &recordingSink{name: "good"}
	bad := &recordingSink{name: "bad", err: errors.New("down")}
	var out bytes.Buffer

	w := NewWatcher(NewPoller(f, nil, logger.NopLogger()), NewFanout(logger.NopLogger(), bad, good), testQueues,
		WatcherOptions{Interval: time.Millisecond, Out: &out}, logger.NopLogger())

	_, events := w.Tick(context.Background())
	assert.Empty(t, events)

	f.depths["e-trigger-dlq"] = 2
	snapshot, events := w.Tick(context.Background())
	require.Len(t, events, 1)
	assert.Equal(t, -3, events[0].Delta)
	assert.Equal(t, 2, snapshot.Total())

	require.Len(t, good.events, 2)
	assert.Len(t, good.events[1], 1)
	assert.Len(t, bad.events, 2)

	text := out.String()
	assert.Contains(t, text, "DEAD LETTER QUEUES:")
	assert.Contains(t, text, "MAIN QUEUES:")
	assert.Contains(t, text, "TRIGGER DLQ")
	assert.Contains(t, text, "TOTAL MESSAGES: 2")
	assert.Contains(t, text, "decrease trigger dlq: 5 -> 2 (-3)")

	require.NoError(t, w.sinks.Close())
	assert.True(t, good.closed)
}

func TestWatcherRun_StopsOnCancel(t *testing.T) {
	f := newFakeDepths()
	var out bytes.Buffer
	w := NewWatcher(NewPoller(f, nil, logger.NopLogger()), nil, testQueues[:1],
		WatcherOptions{Interval: 5 * time.Millisecond, Out: &out}, logger.NopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	require.NoError(t, w.Run(ctx))
	assert.GreaterOrEqual(t, f.calls["e-trigger-dlq"], 2)
	assert.Contains(t, out.String(), "Monitoring stopped.")
}

func TestSnapshotLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqs_monitoring.log")
	l := NewSnapshotLog(path, time.Minute)
	snapshot := models.QueueSnapshot{
		"a dlq": {Count: 4},
		"b":     {Err: "error: denied"},
	}
	start := time.Date(2024, 1, 15, 14, 0, 0, 0, time.Local)

	written, err := l.MaybeWrite(start, snapshot)
	require.NoError(t, err)
	assert.False(t, written)

	written, err = l.MaybeWrite(start.Add(30*time.Second), snapshot)
	require.NoError(t, err)
	assert.False(t, written)

	written, err = l.MaybeWrite(start.Add(61*time.Second), snapshot)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = l.MaybeWrite(start.Add(91*time.Second), snapshot)
	require.NoError(t, err)
	assert.False(t, written)

	require.NoError(t, l.Write(start.Add(2*time.Minute), snapshot))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "2024-01-15 14:01:01", lines[0]["timestamp"])
	assert.Equal(t, float64(4), lines[0]["total_messages"])
	data := lines[0]["data"].(map[string]interface{})
	assert.Equal(t, float64(4), data["a dlq"])
	assert.Equal(t, "error: denied", data["b"])
}

func TestIsDLQ(t *testing.T) {
	assert.True(t, IsDLQ("Context DLQ"))
	assert.True(t, IsDLQ("prd-kamis-dlq"))
	assert.False(t, IsDLQ("context queue"))
}
