package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewLogger(t *testing.T) {
	l := NewLogger(t.TempDir())
	if l == nil {
		t.Fatal("Expected logger to be created, got nil")
	}

	var out bytes.Buffer
	l.SetOutput(&out)

	l.Info("Test info message", "TEST")
	l.Warn("Test warning message", "TEST")
	l.Debug("Test debug message", "TEST")
	l.System("Test system message", "TEST")
	l.Success("Test success message", "TEST")

	if !strings.Contains(out.String(), "[TEST]: Test info message") {
		t.Errorf("console output missing info line: %q", out.String())
	}

	l.Close()
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelCritical, "CRITICAL"},
		{LevelError, "ERROR"},
		{LevelWarn, "WARN"},
		{LevelSuccess, "SUCCESS"},
		{LevelInfo, "INFO"},
		{LevelDebug, "DEBUG"},
		{LevelSystem, "SYSTEM"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("LogLevel.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLogLevelColor(t *testing.T) {
	levels := []LogLevel{
		LevelCritical,
		LevelError,
		LevelWarn,
		LevelSuccess,
		LevelInfo,
		LevelDebug,
		LevelSystem,
	}

	for _, level := range levels {
		t.Run(level.String(), func(t *testing.T) {
			if level.Color() == "" {
				t.Error("Expected color to be non-empty")
			}
		})
	}
}

func TestLogFileCreation(t *testing.T) {
	logsDir := filepath.Join(t.TempDir(), "logs")

	l := NewLogger(logsDir)
	l.SetOutput(&bytes.Buffer{})

	l.Info("goes to combined only", "FILES")
	l.Error("goes to both", "FILES")
	l.Close()

	combined, err := os.ReadFile(filepath.Join(logsDir, "combined.log"))
	if err != nil {
		t.Fatalf("Expected combined.log to be created: %v", err)
	}
	errorsLog, err := os.ReadFile(filepath.Join(logsDir, "error.log"))
	if err != nil {
		t.Fatalf("Expected error.log to be created: %v", err)
	}

	if !strings.Contains(string(combined), "[INFO] [FILES]: goes to combined only") {
		t.Errorf("combined.log = %q", combined)
	}
	if strings.Contains(string(combined), "\033[") {
		t.Error("file output must not contain color codes")
	}
	if strings.Contains(string(errorsLog), "goes to combined only") {
		t.Error("info entries must not reach error.log")
	}
	if !strings.Contains(string(errorsLog), "[ERROR] [FILES]: goes to both") {
		t.Errorf("error.log = %q", errorsLog)
	}
}

func TestAlertSink(t *testing.T) {
	l := NewLogger("")
	l.SetOutput(&bytes.Buffer{})

	got := make(chan string, 4)
	l.SetAlertSink(LevelError, func(level LogLevel, prefix, message string) {
		got <- level.String() + " " + prefix + " " + message
	})

	l.Info("not forwarded", "ALERT")
	l.Error("forwarded", "ALERT")

	select {
	case msg := <-got:
		if msg != "ERROR ALERT forwarded" {
			t.Errorf("alert = %q", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("alert sink was not called")
	}

	select {
	case msg := <-got:
		t.Errorf("unexpected alert %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGlobalLoggerInit(t *testing.T) {
	logger = nil
	once = sync.Once{}

	l := Init(t.TempDir())
	if l == nil {
		t.Fatal("Expected Init to return a logger")
	}

	l2 := Init("different")
	if l != l2 {
		t.Error("Expected Init to return the same logger on subsequent calls")
	}

	if l3 := Get(); l != l3 {
		t.Error("Expected Get to return the same logger")
	}

	l.Close()
}
