// Package diag owns the debug log. User-facing output goes through
// internal/ui; everything noisy (helper stderr, raw transport failures,
// discovery traces) lands here so a bug report can include it.
package diag

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.Mutex
	logger  = log.NewWithOptions(io.Discard, log.Options{Prefix: "xrv"})
	logPath string
	logFile *os.File
)

// Init routes the debug log to the given file, creating parent
// directories as needed. With verbose set, entries are mirrored to
// stderr and the level drops to debug.
func Init(path string, verbose bool) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	var w io.Writer = f
	level := log.InfoLevel
	if verbose {
		w = io.MultiWriter(f, os.Stderr)
		level = log.DebugLevel
	}

	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	logPath = path
	logger = log.NewWithOptions(w, log.Options{
		Prefix:          "xrv",
		Level:           level,
		ReportTimestamp: true,
	})

	return nil
}

// L returns the active logger. Before Init it discards everything, so
// library code can log unconditionally.
func L() *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Path returns the log file path, empty before Init.
func Path() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = log.NewWithOptions(io.Discard, log.Options{Prefix: "xrv"})
}

// Tail returns the last n lines of the log file at path.
func Tail(path string, n int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
