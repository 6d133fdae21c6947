package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qscope/internal/functions"
	"qscope/internal/inspection"
	apperrors "qscope/pkg/errors"
	"qscope/pkg/models"
)

var exportTime = time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC)

func sampleListResult() *inspection.ListResult {
	return &inspection.ListResult{
		RunID:   "run-1",
		Filters: []string{"messages with an empty 'description' field"},
		Queues: []inspection.QueueListing{
			{Queue: "trigger dlq", Retrieved: 3, AfterFilter: 2, Messages: []models.FormattedMessage{
				{QueueName: "trigger dlq", MessageID: "m1", ReceiptToken: "AQEB...", Body: map[string]interface{}{"id": "1"}},
				{QueueName: "trigger dlq", MessageID: "m2", ReceiptToken: "AQEC...", Body: "plain"},
			}},
			{Queue: "context dlq", Retrieved: 4},
			{Queue: "kamis dlq", Error: "TRANSPORT_ERROR: boom"},
		},
	}
}

func TestNewFilteredExport(t *testing.T) {
	exp := NewFilteredExport(sampleListResult(), exportTime)

	assert.Equal(t, "run-1", exp.Metadata.RunID)
	assert.Equal(t, 1, exp.Metadata.TotalQueues)
	assert.Equal(t, []string{"trigger dlq"}, exp.Metadata.SelectedQueues)
	assert.Equal(t, []string{"messages with an empty 'description' field"}, exp.Metadata.FiltersApplied)
	require.Len(t, exp.Results["trigger dlq"], 2)
	for _, m := range exp.Results["trigger dlq"] {
		assert.Empty(t, m.ReceiptToken)
	}
	assert.False(t, exp.Empty())
}

func TestFileExporter_ExportFiltered(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	e := NewFileExporter(dir)

	path, err := e.ExportFiltered(context.Background(), NewFilteredExport(sampleListResult(), exportTime))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "dlq_filtered_items_20240301_140509.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "AQEB")
	assert.NotContains(t, string(data), "receipt_token")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	meta := decoded["metadata"].(map[string]interface{})
	assert.Equal(t, float64(1), meta["total_queues"])
	assert.Equal(t, "run-1", meta["run_id"])
	assert.Contains(t, meta, "export_timestamp")
	assert.Contains(t, decoded["results"], "trigger dlq")
}

func TestFileExporter_EmptyFilteredExport(t *testing.T) {
	e := NewFileExporter(t.TempDir())
	_, err := e.ExportFiltered(context.Background(), NewFilteredExport(&inspection.ListResult{RunID: "r"}, exportTime))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestFileExporter_ExportCount(t *testing.T) {
	e := NewFileExporter(t.TempDir())
	summary := inspection.CountSummary{
		RunID: "run-2",
		Field: "status",
		Value: "FAILED",
		Results: []models.CountResult{
			{Queue: "trigger dlq", Field: "status", Value: "FAILED", Processed: 25, Matched: 7},
		},
		Total: 7,
	}

	path, err := e.ExportCount(context.Background(), NewCountExport(summary, exportTime))
	require.NoError(t, err)
	assert.Equal(t, "queue_count_20240301_140509.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded CountExport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 7, decoded.TotalMatched)
	assert.Equal(t, "FAILED", decoded.Value)
	require.Len(t, decoded.Results, 1)
	assert.Equal(t, 25, decoded.Results[0].Processed)
}

func TestFileExporter_ExportLogs(t *testing.T) {
	e := NewFileExporter(t.TempDir())
	r := functions.LogReport{
		Metadata: functions.LogReportMetadata{
			GeneratedAt:     exportTime,
			QueryParameters: functions.LogQueryParameters{FunctionNames: []string{"context"}, HoursBack: 4, ErrorsOnly: true},
			Summary:         functions.LogsSummary{TotalFunctions: 1, SuccessfulFunctions: 1, TotalEvents: 3, TotalErrors: 1},
		},
		Functions: map[string]functions.FunctionLogs{
			"context": {FunctionName: "context", LogGroup: "/aws/lambda/context", Status: functions.LogStatusSuccess,
				Logs: []functions.LogEntry{{TimestampMS: 1, Message: "ERROR boom", Level: "ERROR", IsError: true}}},
		},
	}

	path, err := e.ExportLogs(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "lambda_logs_multi_20240301_140509.json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	summary := decoded["metadata"].(map[string]interface{})["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["total_errors"])
	fn := decoded["functions"].(map[string]interface{})["context"].(map[string]interface{})
	assert.Equal(t, "/aws/lambda/context", fn["log_group"])
}
