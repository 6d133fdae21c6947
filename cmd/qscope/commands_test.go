package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qscope/internal/config"
	"qscope/internal/filtering"
	"qscope/internal/inspection"
	"qscope/pkg/models"
)

func TestFilterFlags_Specs(t *testing.T) {
	cfg := &config.Config{Filters: []config.FilterConfig{{Kind: "ID", Target: "abc"}}}
	f := filterFlags{
		emptyDescription: true,
		fields:           []string{"status:FAILED", "url:http://x"},
		start:            "2024-01-01 00:00",
		cel:              []string{`body.retries > 2`},
	}

	specs, err := f.specs(cfg)
	require.NoError(t, err)

	kinds := make([]string, 0, len(specs))
	for _, s := range specs {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []string{
		filtering.KindID,
		filtering.KindEmptyDescription,
		filtering.KindField,
		filtering.KindField,
		filtering.KindTimeWindow,
		filtering.KindCEL,
	}, kinds)
	assert.Equal(t, "http://x", specs[3].Value)
}

func TestFilterFlags_BadField(t *testing.T) {
	f := filterFlags{fields: []string{"novalue"}}
	_, err := f.specs(&config.Config{})
	require.Error(t, err)
}

func TestRenderListResult(t *testing.T) {
	var buf bytes.Buffer
	renderListResult(&buf, &inspection.ListResult{
		RunID:   "run-1",
		Filters: []string{"messages with an empty 'description' field"},
		Unknown: []string{"nope"},
		Queues: []inspection.QueueListing{
			{Queue: "trigger dlq", Retrieved: 2, AfterFilter: 1, Messages: []models.FormattedMessage{
				{MessageID: "m1", ReceiptToken: "AQEB...", Body: map[string]interface{}{"description": ""}},
			}},
			{Queue: "context dlq", Error: "TRANSPORT_ERROR: boom"},
		},
		Retrieved:   2,
		AfterFilter: 1,
	})

	out := buf.String()
	assert.Contains(t, out, "Unknown queue skipped: nope")
	assert.Contains(t, out, "trigger dlq: 2 retrieved, 1 after filters")
	assert.Contains(t, out, "error: TRANSPORT_ERROR: boom")
	assert.Contains(t, out, "Total: 2 retrieved, 1 after filters across 2 queues")
}

func TestRenderCountSummary(t *testing.T) {
	var buf bytes.Buffer
	renderCountSummary(&buf, inspection.CountSummary{
		Field: "status",
		Value: "FAILED",
		Results: []models.CountResult{
			{Queue: "trigger dlq", Processed: 25, Matched: 7, Mismatched: 10, MissingField: 5, JSONErrors: 3},
		},
		Total: 7,
	})

	out := buf.String()
	assert.Contains(t, out, "COUNT status = FAILED")
	assert.Contains(t, out, "processed:     25")
	assert.Contains(t, out, "TOTAL MATCHED: 7")
}

func TestRootCmd_Tree(t *testing.T) {
	root := newRootCmd()

	tests := []struct {
		path  []string
		flags []string
	}{
		{path: []string{"list"}, flags: []string{"queues", "filter-cel", "save-filtered"}},
		{path: []string{"count"}},
		{path: []string{"watch"}},
		{path: []string{"functions", "list"}, flags: []string{"runtime", "arch"}},
		{path: []string{"functions", "metrics"}, flags: []string{"watch", "save-log"}},
		{path: []string{"functions", "logs"}, flags: []string{"functions", "hours", "all-logs", "tail", "save", "to-mongo", "json"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.path, " "), func(t *testing.T) {
			cmd, rest, err := root.Find(tt.path)
			require.NoError(t, err)
			assert.Empty(t, rest)
			assert.Equal(t, tt.path[len(tt.path)-1], cmd.Name())
			for _, name := range tt.flags {
				assert.NotNil(t, cmd.Flags().Lookup(name), name)
			}
		})
	}

	logs, _, err := root.Find([]string{"functions", "logs"})
	require.NoError(t, err)
	assert.Equal(t, "4", logs.Flags().Lookup("hours").DefValue)
	assert.Equal(t, "false", logs.Flags().Lookup("all-logs").DefValue)
}
