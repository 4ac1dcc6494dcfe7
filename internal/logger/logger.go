// Package logger wraps log/slog with the small surface the rest of the
// application uses.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// log defaults to slog's default logger so packages can log before Init
// runs (and under `go test`, which never calls main).
var log = slog.Default()

func Init() {
	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// New builds a logger from a handler. Used by tests to capture output.
func New(h slog.Handler) *slog.Logger {
	return slog.New(h)
}

// NewJSONHandler mirrors slog.NewJSONHandler so callers don't import slog.
func NewJSONHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(w, opts)
}

func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

func Infof(format string, v ...any) {
	log.Info(fmt.Sprintf(format, v...))
}

func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

func Errorf(format string, v ...any) {
	log.Error(fmt.Sprintf(format, v...))
}

func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

func Debugf(format string, v ...any) {
	log.Debug(fmt.Sprintf(format, v...))
}

func Fatal(msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}

func Fatalf(format string, v ...any) {
	log.Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}

// WithError returns a logger with the error attached as a field.
func WithError(err error) *slog.Logger {
	return log.With("error", err)
}

// WithFields returns a logger with all map entries attached as fields.
func WithFields(fields map[string]interface{}) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return log.With(args...)
}
