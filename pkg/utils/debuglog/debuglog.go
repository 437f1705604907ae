// Package debuglog provides the persistent diagnostic log written by every kci run.
//
// The log is a JSON-lines file at debug level. It receives every external command
// with its full output, every wait tick and every cleanup outcome, so a failed CI
// job can be diagnosed after the fact without reproducing it interactively.
// Nothing written here is shown on the console.
package debuglog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

const (
	logDirPerm  = 0o750
	logFilePerm = 0o600
)

// ErrEmptyPath is returned when no log file path is configured.
var ErrEmptyPath = errors.New("debug log path is empty")

// Log is a debug logger bound to a file.
type Log struct {
	*logrus.Logger

	file *os.File
}

// Open creates (or appends to) the debug log at path. Parent directories are created.
func Open(path string) (*Log, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	err := os.MkdirAll(filepath.Dir(path), logDirPerm)
	if err != nil {
		return nil, fmt.Errorf("create debug log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
	if err != nil {
		return nil, fmt.Errorf("open debug log %s: %w", path, err)
	}

	return &Log{Logger: newLogger(file), file: file}, nil
}

// Discard returns a logger that drops every entry. Used by tests and by callers
// that do not care about diagnostics.
func Discard() *logrus.Logger {
	return newLogger(io.Discard)
}

// Path returns the file backing the log, or "" for a log without a file.
func (l *Log) Path() string {
	if l == nil || l.file == nil {
		return ""
	}

	return l.file.Name()
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	err := l.file.Close()
	if err != nil {
		return fmt.Errorf("close debug log: %w", err)
	}

	return nil
}

func newLogger(out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	return logger
}
