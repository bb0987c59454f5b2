package observability

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := WrapSlog(slog.New(slog.NewTextHandler(&buf, nil)))
	log.With(F("component", "test")).Info("hello", F("n", 3))
	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "component=test") || !strings.Contains(out, "n=3") {
		t.Fatalf("log output = %q", out)
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := WrapSlog(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	log.Debug("invisible")
	if buf.Len() != 0 {
		t.Fatalf("debug leaked: %q", buf.String())
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	log := NewNopLogger()
	log.Info("nothing")
	log.With(F("k", "v")).Error("still nothing")
}
