package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{
			level:    "error",
			expected: []string{"ERROR"},
			excluded: []string{"WARN", "INFO", "DEBUG"},
		},
		{
			level:    "warn",
			expected: []string{"ERROR", "WARN"},
			excluded: []string{"INFO", "DEBUG"},
		},
		{
			level:    "info",
			expected: []string{"ERROR", "WARN", "INFO"},
			excluded: []string{"DEBUG"},
		},
		{
			level:    "debug",
			expected: []string{"ERROR", "WARN", "INFO", "DEBUG"},
			excluded: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(tempDir, tt.level+".log")

			l, err := New(Options{
				Level: tt.level,
				File:  FileConfig{Path: logFile, MaxSizeMB: 10, MaxBackups: 1, MaxAgeDays: 1},
			})
			if err != nil {
				t.Fatalf("failed to build logger: %v", err)
			}

			l.Debug("debug message")
			l.Info("info message")
			l.Warn("warn message")
			l.Error("error message")
			_ = l.Sync()

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("failed to read log file: %v", err)
			}
			logContent := string(content)

			for _, exp := range tt.expected {
				if !strings.Contains(logContent, exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(logContent, exc) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestJSONFileOutput(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "viewer.log")
	l, err := New(Options{Level: "info", JSON: true, File: FileConfig{Path: logFile, MaxSizeMB: 1}})
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	l.Named("assets").Info("loaded", zap.String("asset", "helmet.glb"))
	_ = l.Sync()

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(content))), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, content)
	}
	if entry["logger"] != "assets" || entry["asset"] != "helmet.glb" || entry["msg"] != "loaded" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
	lvl, err := ParseLevel("")
	if err != nil || lvl.String() != "info" {
		t.Errorf("ParseLevel(\"\") = %v, %v", lvl, err)
	}
}

func TestNewWithoutOutputsIsNop(t *testing.T) {
	l, err := New(Options{Level: "debug"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if l.Core().Enabled(zap.ErrorLevel) {
		t.Error("logger without outputs should be a no-op")
	}
	if OrNop(nil) == nil {
		t.Error("OrNop(nil) returned nil")
	}
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/test.log")

	if cfg.Path != "/tmp/test.log" {
		t.Errorf("expected path /tmp/test.log, got %s", cfg.Path)
	}
	if cfg.MaxSizeMB != 20 {
		t.Errorf("expected MaxSizeMB 20, got %d", cfg.MaxSizeMB)
	}
	if cfg.MaxBackups != 3 {
		t.Errorf("expected MaxBackups 3, got %d", cfg.MaxBackups)
	}
	if !cfg.Compress {
		t.Error("expected Compress to be true")
	}
}
