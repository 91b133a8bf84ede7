package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"designate/pkg/config"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "server.log")
	requestLog := filepath.Join(tempDir, "requests.log")
	eventLog := filepath.Join(tempDir, "events.log")

	// A previous run's log is rotated to .old
	if err := os.WriteFile(serverLog, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.LogConfig{
		Server:   config.LogSettings{Path: serverLog, Level: "DEBUG"},
		Requests: config.LogSettings{Path: requestLog, Level: "INFO"},
		Events:   config.LogSettings{Path: eventLog},
	}

	prev := slog.Default()
	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer func() {
		cleanup()
		slog.SetDefault(prev)
		SetEventLogPath("")
	}()

	if _, err := os.Stat(serverLog); os.IsNotExist(err) {
		t.Error("Server log file not created")
	}
	if _, err := os.Stat(requestLog); os.IsNotExist(err) {
		t.Error("Request log file not created")
	}
	if _, err := os.Stat(serverLog + ".old"); err != nil {
		t.Error("Previous server log was not rotated")
	}
	if RequestLogger == nil {
		t.Error("RequestLogger was not initialized")
	}

	slog.Info("captured line", "k", "v")
	if got := GlobalLogCapture.GetLastLine(); !strings.Contains(got, "captured line") {
		t.Errorf("capture missing last line, got %q", got)
	}

	LogEvent("select", "HaulUrgently", "key h")
	data, err := os.ReadFile(eventLog)
	if err != nil {
		t.Fatalf("event log not written: %v", err)
	}
	if !strings.Contains(string(data), "[select] HaulUrgently - key h") {
		t.Errorf("unexpected event log content: %q", data)
	}
	if got := GlobalEventCapture.GetLastLine(); !strings.Contains(got, "HaulUrgently") {
		t.Errorf("event capture mismatch: %q", got)
	}
}

func TestSetupHandler_Levels(t *testing.T) {
	tests := []struct {
		level string
		debug bool
		info  bool
	}{
		{"DEBUG", true, true},
		{"trace", true, true},
		{"INFO", false, true},
		{"warn", false, false},
		{"bogus", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			h, f, err := setupHandler(filepath.Join(t.TempDir(), "l.log"), tt.level, false)
			if err != nil {
				t.Fatalf("setupHandler: %v", err)
			}
			defer f.Close()
			if got := h.Enabled(t.Context(), slog.LevelDebug); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
			if got := h.Enabled(t.Context(), slog.LevelInfo); got != tt.info {
				t.Errorf("info enabled = %v, want %v", got, tt.info)
			}
		})
	}
}

func TestTrace(t *testing.T) {
	var sb strings.Builder
	logger := slog.New(slog.NewTextHandler(&sb, &slog.HandlerOptions{Level: slog.LevelDebug}))

	SetTrace(false)
	Trace(logger, "hidden")
	if sb.Len() != 0 {
		t.Errorf("trace logged while disabled: %q", sb.String())
	}

	SetTrace(true)
	defer SetTrace(false)
	Trace(logger, "shown")
	if !strings.Contains(sb.String(), "shown") {
		t.Errorf("trace missing while enabled: %q", sb.String())
	}
	if !TraceEnabled() {
		t.Error("TraceEnabled = false after SetTrace(true)")
	}
}

func TestLogCaptureWriter_Tail(t *testing.T) {
	w := &LogCaptureWriter{}
	if got := w.GetLastLine(); got != "" {
		t.Errorf("empty capture returned %q", got)
	}

	_, _ = w.Write([]byte("one\ntwo\n"))
	_, _ = w.Write([]byte("three\n"))

	if got := w.GetLastLine(); got != "three" {
		t.Errorf("GetLastLine = %q, want three", got)
	}
	if got := w.Tail(5); strings.Join(got, ",") != "one,two,three" {
		t.Errorf("Tail(5) = %v", got)
	}

	for i := 0; i < captureLines+3; i++ {
		_, _ = w.Write([]byte("x\n"))
	}
	_, _ = w.Write([]byte("last\n"))
	tail := w.Tail(100)
	if len(tail) != captureLines {
		t.Errorf("Tail kept %d lines, want %d", len(tail), captureLines)
	}
	if tail[len(tail)-1] != "last" {
		t.Errorf("newest line = %q, want last", tail[len(tail)-1])
	}
}
