// Package observability carries the logging facade used across the module.
// Components accept the Logger interface so that tests can run silent and
// the service can plug in its structured backend.
package observability

import (
	"log/slog"
	"os"
)

// Field is one structured key/value pair.
type Field struct {
	Key   string
	Value any
}

// F constructs a field.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

// Logger is the minimal structured logging surface.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}
func (n nopLogger) With(...Field) Logger { return n }

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger { return nopLogger{} }

type slogLogger struct {
	l *slog.Logger
}

// NewLogger returns a text logger writing to stderr at the given level.
func NewLogger(level slog.Level) Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &slogLogger{l: slog.New(h)}
}

// NewJSONLogger returns a JSON logger writing to stderr at the given level.
func NewJSONLogger(level slog.Level) Logger {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &slogLogger{l: slog.New(h)}
}

// WrapSlog adapts an existing slog.Logger.
func WrapSlog(l *slog.Logger) Logger { return &slogLogger{l: l} }

func (s *slogLogger) Debug(msg string, fields ...Field) { s.l.Debug(msg, args(fields)...) }
func (s *slogLogger) Info(msg string, fields ...Field)  { s.l.Info(msg, args(fields)...) }
func (s *slogLogger) Warn(msg string, fields ...Field)  { s.l.Warn(msg, args(fields)...) }
func (s *slogLogger) Error(msg string, fields ...Field) { s.l.Error(msg, args(fields)...) }

func (s *slogLogger) With(fields ...Field) Logger {
	return &slogLogger{l: s.l.With(args(fields)...)}
}

func args(fields []Field) []any {
	out := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		out = append(out, f.Key, f.Value)
	}
	return out
}
