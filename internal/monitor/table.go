package monitor

import (
	"fmt"
	"io"
	"strings"
	"time"

	"qscope/internal/constants"
	"qscope/pkg/models"
)

const tableRule = "============================================================"

// IsDLQ reports whether a queue name marks a dead-letter queue.
func IsDLQ(name string) bool {
	return strings.Contains(strings.ToLower(name), constants.DLQNameMarker)
}

// RenderTable prints a snapshot split into DLQs and main queues, in the
// given queue order, followed by the total.
func RenderTable(w io.Writer, queues []models.QueueDescriptor, snapshot models.QueueSnapshot, now time.Time) {
	fmt.Fprintln(w, tableRule)
	fmt.Fprintf(w, "QUEUE MONITOR - %s\n", now.Format("02/01/2006 15:04:05"))
	fmt.Fprintln(w, tableRule)

	var dlqs, mains []models.QueueDescriptor
	for _, q := range queues {
		if _, ok := snapshot[q.Name]; !ok {
			continue
		}
		if IsDLQ(q.Name) {
			dlqs = append(dlqs, q)
		} else {
			mains = append(mains, q)
		}
	}

	if len(dlqs) > 0 {
		fmt.Fprintln(w, "\nDEAD LETTER QUEUES:")
		fmt.Fprintln(w, strings.Repeat("-", 30))
		for _, q := range dlqs {
			writeRow(w, q.Name, snapshot[q.Name], "!!", "ok")
		}
	}

	if len(mains) > 0 {
		fmt.Fprintln(w, "\nMAIN QUEUES:")
		fmt.Fprintln(w, strings.Repeat("-", 30))
		for _, q := range mains {
			writeRow(w, q.Name, snapshot[q.Name], ">>", "--")
		}
	}

	fmt.Fprintf(w, "\nTOTAL MESSAGES: %d\n", snapshot.Total())
	fmt.Fprintln(w, tableRule)
}

func writeRow(w io.Writer, name string, d models.QueueDepth, busy, idle string) {
	if !d.OK() {
		fmt.Fprintf(w, "  %s %-20s | %s\n", "xx", strings.ToUpper(name), d.Err)
		return
	}
	status := idle
	if d.Count > 0 {
		status = busy
	}
	fmt.Fprintf(w, "  %s %-20s | %d messages\n", status, strings.ToUpper(name), d.Count)
}

// RenderChanges prints one line per change event.
func RenderChanges(w io.Writer, events []models.ChangeEvent) {
	for _, e := range events {
		fmt.Fprintf(w, "  %s %s: %d -> %d (%+d)\n", e.Kind, e.QueueName, e.PreviousCount, e.CurrentCount, e.Delta)
	}
}
