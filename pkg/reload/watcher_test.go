package reload

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestNewWatcherValidation(t *testing.T) {
	if _, err := NewWatcher("", time.Second); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestWatcherEmitsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "thermal:\n  enabled: true\n")

	w, err := NewWatcher(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	ch, err := w.Start()
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	writeFile(t, path, "thermal:\n  enabled: false\n")

	select {
	case _, ok := <-ch:
		if !ok {
			t.Fatal("change channel closed unexpectedly")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change event after writing the config file")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "a: 1\n")

	w, err := NewWatcher(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	ch, err := w.Start()
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	writeFile(t, filepath.Join(dir, "unrelated.yaml"), "b: 2\n")

	select {
	case <-ch:
		t.Fatal("unexpected event for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "a: 0\n")

	w, err := NewWatcher(path, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	ch, err := w.Start()
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		writeFile(t, path, "a: 1\n")
		time.Sleep(10 * time.Millisecond)
	}

	// First event arrives once the burst settles.
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("no event after burst")
	}

	// And the burst collapsed into at most one more pending event.
	events := 0
	timeout := time.After(300 * time.Millisecond)
	for {
		select {
		case <-ch:
			events++
		case <-timeout:
			if events > 1 {
				t.Errorf("expected burst to collapse, got %d extra events", events)
			}
			return
		}
	}
}

func TestWatcherDoubleStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "a: 1\n")

	w, err := NewWatcher(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Stop()

	if _, err := w.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := w.Start(); err == nil {
		t.Error("expected error on double start")
	}
}

func TestWatcherStopClosesChannel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "a: 1\n")

	w, err := NewWatcher(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ch, err := w.Start()
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	w.Stop()
	w.Stop() // idempotent

	select {
	case _, ok := <-ch:
		if ok {
			// A buffered change may drain first; the close must follow.
			if _, ok := <-ch; ok {
				t.Error("expected channel to close after Stop")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after Stop")
	}
}
