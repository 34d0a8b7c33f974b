package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf)

	l.Info("loaded %d rows", 42)
	l.Warn("slow batch")
	l.Error("insert failed: %v", "duplicate key")

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines: %q", len(lines), out)
	}
	if !strings.Contains(lines[0], "INFO") || !strings.Contains(lines[0], "loaded 42 rows") {
		t.Errorf("info line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "WARN") {
		t.Errorf("warn line = %q", lines[1])
	}
	if !strings.Contains(lines[2], "ERROR") || !strings.Contains(lines[2], "duplicate key") {
		t.Errorf("error line = %q", lines[2])
	}
}
