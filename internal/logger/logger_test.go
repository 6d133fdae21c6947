package logger

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qscope/internal/config"
	"qscope/pkg/logging"
)

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_FileSinkCarriesContextFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qscope.log")
	log, err := New(config.LoggingConfig{Level: "debug", FilePath: path})
	require.NoError(t, err)

	ctx := logging.WithQueueName(logging.WithRunID(context.Background(), "run-7"), "orders-dlq")
	log.InfowCtx(ctx, "Queue listed", "messages", 3)
	log.Debugw("plain")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "Queue listed", rec["message"])
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "run-7", rec["run_id"])
	assert.Equal(t, "orders-dlq", rec["queue_name"])
	assert.Equal(t, float64(3), rec["messages"])
}
