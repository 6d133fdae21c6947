package functions

import (
	"encoding/json"
	"os"

	apperrors "qscope/pkg/errors"
)

// MetricsLog appends each collected report to a file as one JSON line.
type MetricsLog struct {
	path string
}

func NewMetricsLog(path string) *MetricsLog {
	return &MetricsLog{path: path}
}

func (l *MetricsLog) Path() string {
	return l.path
}

func (l *MetricsLog) Append(report Report) error {
	line, err := json.Marshal(report)
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
