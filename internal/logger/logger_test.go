package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func capture(t *testing.T, level log.Level, f log.Formatter) *bytes.Buffer {
	t.Helper()
	prev := Logger
	t.Cleanup(func() { Logger = prev })
	var buf bytes.Buffer
	Logger = New(&buf, level, f, false)
	return &buf
}

func TestHelpersWithoutInit(t *testing.T) {
	prev := Logger
	Logger = nil
	defer func() { Logger = prev }()

	// Must not panic.
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
	CronLogger{}.Info("tick")
	CronLogger{}.Error(errors.New("boom"), "failed")
}

func TestInit(t *testing.T) {
	prev := Logger
	defer func() { Logger = prev }()

	tests := []struct {
		name      string
		cfg       Config
		wantLevel log.Level
		wantErr   bool
	}{
		{"default", Config{}, log.WarnLevel, false},
		{"serve", Config{Stderr: true}, log.InfoLevel, false},
		{"debug", Config{Debug: true, Stderr: true}, log.DebugLevel, false},
		{"json", Config{Format: FormatJSON}, log.WarnLevel, false},
		{"unknown format", Config{Format: "xml"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ConfigDir = t.TempDir()
			err := Init(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Init() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := Logger.GetLevel(); got != tt.wantLevel {
				t.Errorf("level = %v, want %v", got, tt.wantLevel)
			}
			if _, err := os.Stat(filepath.Dir(tt.cfg.Path())); err != nil {
				t.Errorf("log directory not created: %v", err)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, log.WarnLevel, log.TextFormatter)
	Info("hidden")
	Warn("shown", "habit", "walk")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "habit=walk") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestCronLogger(t *testing.T) {
	buf := capture(t, log.DebugLevel, log.LogfmtFormatter)
	CronLogger{}.Info("start", "now", "x")
	CronLogger{}.Error(errors.New("boom"), "panic")

	out := buf.String()
	if !strings.Contains(out, "cron: start") {
		t.Errorf("cron info missing: %q", out)
	}
	if !strings.Contains(out, "error=boom") {
		t.Errorf("cron error missing cause: %q", out)
	}
}
