package logging

import (
	"fmt"
	"io"
	"os"
)

// EarlyLog prints plain prefixed lines before the structured logger exists,
// e.g. when the config file itself cannot be read.
type EarlyLog struct {
	w io.Writer
}

func NewEarlyLog() *EarlyLog {
	return &EarlyLog{w: os.Stderr}
}

func NewEarlyLogTo(w io.Writer) *EarlyLog {
	return &EarlyLog{w: w}
}

func (l *EarlyLog) printf(level, msg string, args ...interface{}) {
	fmt.Fprintf(l.w, "qscope: %s: %s\n", level, fmt.Sprintf(msg, args...))
}

func (l *EarlyLog) Error(msg string, args ...interface{}) { l.printf("error", msg, args...) }
func (l *EarlyLog) Warn(msg string, args ...interface{})  { l.printf("warn", msg, args...) }
