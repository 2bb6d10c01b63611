package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
		" Error ": slog.LevelError,
	}
	for input, want := range cases {
		if got := parseLevel(input); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml", OutputPaths: []string{"stdout"}}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subpulse.log")
	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("queue started", String(FieldComponent, "workflow"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "queue started") {
		t.Fatalf("log file missing message: %s", data)
	}
	if !strings.Contains(string(data), `"component":"workflow"`) {
		t.Fatalf("log file missing component field: %s", data)
	}
}

func TestConsoleHandlerPromotesFields(t *testing.T) {
	var buf bytes.Buffer
	handler := newConsoleHandler(&buf, slog.LevelInfo)
	logger := slog.New(handler)

	logger.Info("sample extracted",
		String(FieldComponent, "audiosync"),
		String(FieldItemID, "42"),
		String(FieldStage, "probe"),
		Int("streams", 2),
	)

	line := buf.String()
	for _, want := range []string{"[audiosync]", "item=42", "stage=probe", "sample extracted", "streams=2"} {
		if !strings.Contains(line, want) {
			t.Errorf("console line missing %q: %s", want, line)
		}
	}
	if strings.Contains(line, "\x1b[") {
		t.Errorf("expected no color codes for non-tty writer: %q", line)
	}
}

func TestConsoleHandlerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	handler := newConsoleHandler(&buf, slog.LevelWarn)
	logger := slog.New(handler)

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestNewComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	NewComponentLogger(base, "enrich").Info("bucket complete")
	if !strings.Contains(buf.String(), `"component":"enrich"`) {
		t.Fatalf("component attribute missing: %s", buf.String())
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Error("should vanish")
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should report disabled")
	}
}
