package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rickgao/marketdash/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	t.Run("text filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		logger, closer, err := NewWithWriter(&buf, config.LoggingConfig{Level: "warn", Format: "text"})
		if err != nil {
			t.Fatalf("NewWithWriter() error = %v", err)
		}
		defer closer.Close()

		logger.Info("hidden")
		logger.Warn("shown", "k", "v")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("info line written at warn level: %q", out)
		}
		if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "k=v") {
			t.Errorf("output = %q, want warn line", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger, _, err := NewWithWriter(&buf, config.LoggingConfig{Format: "json"})
		if err != nil {
			t.Fatalf("NewWithWriter() error = %v", err)
		}
		logger.Info("hello", "n", 1)

		var line map[string]any
		if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
			t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
		}
		if line["msg"] != "hello" {
			t.Errorf("msg = %v, want hello", line["msg"])
		}
	})

	t.Run("file output", func(t *testing.T) {
		var buf bytes.Buffer
		path := filepath.Join(t.TempDir(), "logs", "dash.log")
		logger, closer, err := NewWithWriter(&buf, config.LoggingConfig{
			Format:     "text",
			File:       path,
			MaxSizeMB:  1,
			MaxBackups: 1,
		})
		if err != nil {
			t.Fatalf("NewWithWriter() error = %v", err)
		}
		logger.Info("to both")
		if err := closer.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		if !strings.Contains(string(data), "to both") {
			t.Errorf("file = %q, want log line", data)
		}
		if !strings.Contains(buf.String(), "to both") {
			t.Errorf("console = %q, want log line", buf.String())
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		if _, _, err := NewWithWriter(&bytes.Buffer{}, config.LoggingConfig{Format: "xml"}); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}
