package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

const watchDebounce = 50 * time.Millisecond

func writeEndpoint(t *testing.T, path, endpoint string) {
	t.Helper()
	body := fmt.Sprintf("version = 1\n\n[listener]\nendpoint = %q\n", endpoint)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

// newSettingsWatcher builds a watcher over the real settings loader, the
// same pairing main uses for the hot-reloadable listener endpoint.
func newSettingsWatcher(t *testing.T, path string, opts ...WatcherOption[Settings]) *Watcher[Settings] {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	opts = append([]WatcherOption[Settings]{WithDebounce[Settings](watchDebounce)}, opts...)
	w := NewConfigWatcher(path, LoadSettings, logger, opts...)
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("watcher.Stop failed: %v", err)
		}
	})
	// Give fsnotify a moment to establish the watch before tests write.
	time.Sleep(100 * time.Millisecond)
	return w
}

func TestWatcherReloadsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeEndpoint(t, path, "0.0.0.0:54321")

	reloaded := make(chan Settings, 1)
	w := newSettingsWatcher(t, path)
	w.OnReload(func(s Settings) {
		reloaded <- s
	})

	writeEndpoint(t, path, "239.255.0.1:6000")

	select {
	case s := <-reloaded:
		if s.Listener.Endpoint != "239.255.0.1:6000" {
			t.Errorf("Endpoint = %q, want 239.255.0.1:6000", s.Listener.Endpoint)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for settings reload")
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeEndpoint(t, path, "0.0.0.0:54321")

	var calls atomic.Int32
	last := make(chan Settings, 8)
	w := newSettingsWatcher(t, path, WithDebounce[Settings](200*time.Millisecond))
	w.OnReload(func(s Settings) {
		calls.Add(1)
		last <- s
	})

	// An editor save often lands as several writes in quick succession;
	// only the settled file should be delivered.
	for port := 6001; port <= 6005; port++ {
		writeEndpoint(t, path, fmt.Sprintf("0.0.0.0:%d", port))
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case s := <-last:
		if s.Listener.Endpoint != "0.0.0.0:6005" {
			t.Errorf("Endpoint = %q, want the final write 0.0.0.0:6005", s.Listener.Endpoint)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for debounced reload")
	}
	time.Sleep(300 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("Reload calls = %d, want 1", got)
	}
}

func TestWatcherUnsubscribe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeEndpoint(t, path, "0.0.0.0:54321")

	var kept, dropped atomic.Int32
	w := newSettingsWatcher(t, path)
	w.OnReload(func(Settings) { kept.Add(1) })
	unsub := w.OnReload(func(Settings) { dropped.Add(1) })

	writeEndpoint(t, path, "0.0.0.0:6001")
	time.Sleep(300 * time.Millisecond)

	unsub()
	writeEndpoint(t, path, "0.0.0.0:6002")
	time.Sleep(300 * time.Millisecond)

	if got := kept.Load(); got != 2 {
		t.Errorf("Kept handler calls = %d, want 2", got)
	}
	if got := dropped.Load(); got != 1 {
		t.Errorf("Unsubscribed handler calls = %d, want 1", got)
	}
}

func TestWatcherReportsLoaderErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeEndpoint(t, path, "0.0.0.0:54321")

	loadErrs := make(chan error, 1)
	reloaded := make(chan Settings, 1)
	w := newSettingsWatcher(t, path, WithErrorHandler[Settings](func(err error) {
		loadErrs <- err
	}))
	w.OnReload(func(s Settings) {
		reloaded <- s
	})

	if err := os.WriteFile(path, []byte("[listener\nendpoint ="), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-loadErrs:
	case <-reloaded:
		t.Fatal("Reload handler must not fire when the loader fails")
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for loader error")
	}
}

func TestWatcherStopCutsDelivery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeEndpoint(t, path, "0.0.0.0:54321")

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	w := NewConfigWatcher(path, LoadSettings, logger, WithDebounce[Settings](watchDebounce))

	var calls atomic.Int32
	w.OnReload(func(Settings) { calls.Add(1) })

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}

	writeEndpoint(t, path, "0.0.0.0:6001")
	time.Sleep(300 * time.Millisecond)

	if got := calls.Load(); got != 0 {
		t.Errorf("Reload calls after Stop = %d, want 0", got)
	}
}
