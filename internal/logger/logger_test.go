package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestInitCreatesLogFile(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "config")

	if err := Init(Config{ConfigDir: configDir}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if Logger == nil {
		t.Fatal("Logger is nil after Init")
	}

	want := filepath.Join(configDir, "logs", "callcoach.log")
	if Path() != want {
		t.Errorf("Path() = %q, want %q", Path(), want)
	}

	Info("template saved", "id", "tpl-1")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("log file not written: %v", err)
	}
}

func TestDebugModeMirrorsToStderr(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Debug: true, ConfigDir: t.TempDir(), Stderr: &buf}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}

	Debug("score submitted", "criteria", "c-1")
	if !strings.Contains(buf.String(), "score submitted") {
		t.Errorf("stderr output = %q, want debug message", buf.String())
	}
}

func TestNormalModeIsQuietOnStderr(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{ConfigDir: t.TempDir(), Stderr: &buf}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	Warn("something odd")
	if buf.Len() != 0 {
		t.Errorf("stderr should be untouched outside debug mode, got %q", buf.String())
	}
}

func TestLogFunctionsWithoutInit(t *testing.T) {
	Logger = nil

	// must not panic
	Debug("debug")
	Info("info")
	Warn("warn")
	Error("error")
}

func TestLevelOverride(t *testing.T) {
	dir := t.TempDir()
	if err := Init(Config{ConfigDir: dir, Level: "error"}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	if Logger.GetLevel() != log.ErrorLevel {
		t.Errorf("level = %v, want error", Logger.GetLevel())
	}

	if err := Init(Config{ConfigDir: dir, Level: "loud"}); err == nil {
		t.Error("unknown level should be rejected")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Debug: true, JSON: true, ConfigDir: t.TempDir(), Stderr: &buf}); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	Info("template published", "id", "tpl-1")
	if !strings.Contains(buf.String(), `"msg":"template published"`) {
		t.Errorf("expected JSON output, got %q", buf.String())
	}
}
