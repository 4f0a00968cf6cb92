package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLogger(t *testing.T) (*Logger, *bytes.Buffer, *bytes.Buffer, string) {
	t.Helper()

	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	l, err := NewWithWriters(dir, &stdout, &stderr)
	if err != nil {
		t.Fatalf("NewWithWriters failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l, &stdout, &stderr, dir
}

func TestLogger_LevelsGoToTheirFiles(t *testing.T) {
	l, stdout, stderr, dir := newTestLogger(t)

	l.Info("measured %d people", 3)
	l.Warning("skipping %s", "broken.jpg")
	l.Error("inference failed: %v", "boom")

	if !strings.Contains(stdout.String(), "measured 3 people") {
		t.Errorf("Expected info on stdout, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "inference failed: boom") {
		t.Errorf("Expected error on stderr, got %q", stderr.String())
	}

	checks := map[string]string{
		InfoFile:    "measured 3 people",
		WarningFile: "skipping broken.jpg",
		ErrorFile:   "inference failed: boom",
	}
	for file, want := range checks {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", file, err)
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("%s: expected %q, got %q", file, want, string(data))
		}
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	l, _, _, dir := newTestLogger(t)

	l.Info("first entry")
	if err := l.CleanLogs(InfoFile); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, InfoFile))
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("Expected empty log after clean, got %d bytes", info.Size())
	}
}

func TestLogger_MessageWithoutArgsKeepsPercent(t *testing.T) {
	l, stdout, _, _ := newTestLogger(t)

	msg := "100% done"
	l.Info(msg)
	if !strings.Contains(stdout.String(), "100% done") {
		t.Errorf("Expected literal message, got %q", stdout.String())
	}
}
