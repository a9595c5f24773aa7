// Package logger wraps charm/log for vpub's diagnostic output.
package logger

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Logger wraps charm/log for structured logging.
type Logger struct {
	*log.Logger
}

// New creates a logger writing to w at info level.
func New(w io.Writer) *Logger {
	return NewWithLevel(w, log.InfoLevel)
}

// NewWithLevel creates a logger with a specific level.
func NewWithLevel(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: level == log.DebugLevel,
		TimeFormat:      time.TimeOnly,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard)
}

// FileError logs a per-file failure that did not stop a batch.
func (l *Logger) FileError(file string, err error) {
	l.Error("file failed",
		"file", file,
		"error", err)
}

// Skipped logs a file left untouched and why.
func (l *Logger) Skipped(file, reason string) {
	l.Debug("file skipped",
		"file", file,
		"reason", reason)
}

// Changed logs a file that was rewritten.
func (l *Logger) Changed(file, action string) {
	l.Info(action,
		"file", file)
}

// MissingTarget logs a wikilink target with no backing note.
func (l *Logger) MissingTarget(target, from string) {
	l.Debug("link target does not exist",
		"target", target,
		"from", from)
}

// CommandStarted logs an external command about to run.
func (l *Logger) CommandStarted(dir string, argv []string) {
	l.Info("running command",
		"dir", dir,
		"argv", argv)
}
