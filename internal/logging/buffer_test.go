package logging

import (
	"fmt"
	"log/slog"
	"testing"
	"time"
)

func TestRingBufferWraparound(t *testing.T) {
	rb := NewRingBuffer(3)

	for i := 0; i < 5; i++ {
		rb.Write(LogEntry{Message: fmt.Sprintf("msg-%d", i), Timestamp: time.Now()})
	}

	if rb.Count() != 3 {
		t.Errorf("Count = %d, want 3", rb.Count())
	}

	entries := rb.ReadAll()
	want := []string{"msg-2", "msg-3", "msg-4"}
	for i, w := range want {
		if entries[i].Message != w {
			t.Errorf("entries[%d].Message = %q, want %q", i, entries[i].Message, w)
		}
	}
}

func TestRingBufferEmpty(t *testing.T) {
	rb := NewRingBuffer(10)
	if got := rb.ReadAll(); got != nil {
		t.Errorf("ReadAll on empty buffer = %v, want nil", got)
	}
}

func TestBufferHandlerCapturesEntries(t *testing.T) {
	mutex.Lock()
	logBuffer = NewRingBuffer(16)
	logCallback = nil
	mutex.Unlock()

	var captured []LogEntry
	SetLogCallback(func(entry LogEntry) {
		captured = append(captured, entry)
	})
	defer SetLogCallback(nil)

	levelVar := &slog.LevelVar{}
	logger := slog.New(NewBufferHandler(levelVar)).With("module", "listener")
	logger.Info("Listening", "endpoint", "239.255.0.1:54321")

	entries := GetBuffer().ReadAll()
	if len(entries) != 1 {
		t.Fatalf("Buffer entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Module != "listener" || e.Message != "Listening" || e.Level != "info" {
		t.Errorf("Unexpected entry: %+v", e)
	}
	if e.Attributes["endpoint"] != "239.255.0.1:54321" {
		t.Errorf("Attributes = %v", e.Attributes)
	}

	if len(captured) != 1 {
		t.Errorf("Callback invocations = %d, want 1", len(captured))
	}
}

func TestFormatLogLine(t *testing.T) {
	ts := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
	line := FormatLogLine(LogEntry{
		Timestamp:  ts,
		Level:      "warn",
		Module:     "bridge",
		Message:    "Static push failed",
		Attributes: map[string]any{"subject": "Performer01"},
	})

	want := "2026-08-31T10:30:00Z [WARN] [bridge] Static push failed subject=Performer01"
	if line != want {
		t.Errorf("FormatLogLine = %q, want %q", line, want)
	}
}
