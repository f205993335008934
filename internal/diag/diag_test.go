package diag

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "xrv.log")

	if err := Init(path, false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Close()

	L().Info("test entry", "key", "value")
	Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "test entry") {
		t.Errorf("log file missing entry:\n%s", data)
	}
}

func TestInit_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deeply", "nested", "xrv.log")

	if err := Init(path, false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("parent directory not created: %v", err)
	}
}

func TestPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xrv.log")

	if err := Init(path, false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Close()

	if got := Path(); got != path {
		t.Errorf("Path() = %q, want %q", got, path)
	}
}

func TestL_BeforeInitDiscards(t *testing.T) {
	// Must not panic even when Init was never called
	Close()
	L().Info("goes nowhere")
}

func TestTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xrv.log")
	content := "one\ntwo\nthree\nfour\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write log: %v", err)
	}

	lines, err := Tail(path, 2)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(lines) != 2 || lines[0] != "three" || lines[1] != "four" {
		t.Errorf("Tail() = %v, want [three four]", lines)
	}
}

func TestTail_FewerLinesThanRequested(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xrv.log")
	if err := os.WriteFile(path, []byte("only\n"), 0644); err != nil {
		t.Fatalf("Failed to write log: %v", err)
	}

	lines, err := Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(lines) != 1 || lines[0] != "only" {
		t.Errorf("Tail() = %v, want [only]", lines)
	}
}

func TestTail_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xrv.log")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("Failed to write log: %v", err)
	}

	lines, err := Tail(path, 5)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Tail() = %v, want empty", lines)
	}
}
