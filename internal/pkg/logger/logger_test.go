package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenPrefix(t *testing.T) {
	if got := TokenPrefix("abc"); got != "abc" {
		t.Errorf("TokenPrefix(short) = %q", got)
	}
	if got := TokenPrefix("eyJhbGciOiJIUzI1NiJ9.payload"); got != "eyJhbGciOiJI" {
		t.Errorf("TokenPrefix(long) = %q", got)
	}
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	l, err := SetupLogger(Config{Level: slog.LevelDebug, LogFile: path, Format: "json"})
	if err != nil {
		t.Fatalf("SetupLogger() error = %v", err)
	}
	l.Info("hello")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}
