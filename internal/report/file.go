package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"qscope/internal/constants"
	"qscope/internal/functions"
	apperrors "qscope/pkg/errors"
)

// FileExporter writes indented JSON documents into a directory.
type FileExporter struct {
	dir string
}

func NewFileExporter(dir string) *FileExporter {
	if dir == "" {
		dir = constants.DefaultExportDir
	}
	return &FileExporter{dir: dir}
}

func (e *FileExporter) Name() string { return "file" }

func (e *FileExporter) ExportFiltered(_ context.Context, exp FilteredExport) (string, error) {
	if exp.Empty() {
		return "", apperrors.ErrValidation.WithDetail("message", "no filtered results to export")
	}
	name := "dlq_filtered_items_" + exp.Metadata.ExportTimestamp.Format(filenameTimeLayout) + ".json"
	return e.write(name, exp)
}

func (e *FileExporter) ExportCount(_ context.Context, exp CountExport) (string, error) {
	name := "queue_count_" + exp.ExportTimestamp.Format(filenameTimeLayout) + ".json"
	return e.write(name, exp)
}

func (e *FileExporter) ExportLogs(_ context.Context, r functions.LogReport) (string, error) {
	name := "lambda_logs_multi_" + r.Metadata.GeneratedAt.Format(filenameTimeLayout) + ".json"
	return e.write(name, r)
}

func (e *FileExporter) write(name string, v interface{}) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", apperrors.ErrInternal.WithCause(err).WithDetail("path", e.dir)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", apperrors.ErrInternal.WithCause(err)
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.ErrInternal.WithCause(err).WithDetail("path", path)
	}
	return path, nil
}
