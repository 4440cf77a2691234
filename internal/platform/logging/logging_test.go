package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestZerologWritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	log := Zerolog(&buf, "warn")
	log.Info().Msg("dropped")
	log.Warn().Str("path", "/healthz").Msg("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if entry["message"] != "kept" || entry["service"] != "talent" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestSetupRoutesSlogThroughZerolog(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	zl := Setup(&buf, "warn")
	slog.Info("ignored")
	slog.With("job", "review_overdue").WithGroup("run").Warn("slow job", "ms", 1500, "err", errors.New("timeout"))
	zl.Error().Str("path", "/api/v1").Msg("access")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %d: %s", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if entry["message"] != "slow job" || entry["level"] != "warn" || entry["service"] != "talent" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["job"] != "review_overdue" || entry["run.ms"] != float64(1500) || entry["run.err"] != "timeout" {
		t.Fatalf("unexpected attrs %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("expected a timestamp, got %v", entry)
	}
	if !bytes.Contains(lines[1], []byte(`"message":"access"`)) {
		t.Fatalf("expected zerolog line in the same stream, got %s", lines[1])
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	h := NewSlogHandler(Zerolog(&bytes.Buffer{}, "info"))
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug must be disabled at info")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("error must be enabled at info")
	}
}
