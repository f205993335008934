package python

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

type countingInvalidator struct {
	n atomic.Int64
}

func (c *countingInvalidator) Invalidate() {
	c.n.Add(1)
}

func (c *countingInvalidator) waitFor(t *testing.T, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if c.n.Load() > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("watcher never invalidated")
}

func TestWatcher_InvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, ".xrv.local.yaml")
	if err := os.WriteFile(target, []byte("python:\n"), 0644); err != nil {
		t.Fatalf("Failed to create watched file: %v", err)
	}

	inv := &countingInvalidator{}
	w, err := NewWatcher(inv, target)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(target, []byte("python:\n  path: /new\n"), 0644); err != nil {
		t.Fatalf("Failed to write watched file: %v", err)
	}

	inv.waitFor(t, 5*time.Second)
}

func TestWatcher_ToleratesMissingPaths(t *testing.T) {
	inv := &countingInvalidator{}
	w, err := NewWatcher(inv, "/nonexistent/path/to/venv", "")
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestWatcher_CloseStopsLoop(t *testing.T) {
	dir := t.TempDir()
	inv := &countingInvalidator{}
	w, err := NewWatcher(inv, dir)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Events after Close must not invalidate.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "late"), []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if inv.n.Load() != 0 {
		t.Errorf("watcher invalidated %d times after Close", inv.n.Load())
	}
}
