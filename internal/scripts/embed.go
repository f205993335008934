// Package scripts embeds the Python helper and materializes it onto
// disk, where the interpreter can run it. The binary stays
// self-contained; no separate install step ships the script.
package scripts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed py/xrv_tool.py
var toolSource []byte

// ToolFilename is the on-disk name of the materialized helper.
const ToolFilename = "xrv_tool.py"

// Source returns the embedded helper script.
func Source() []byte {
	return toolSource
}

// Materialize writes the helper into the user cache directory and
// returns its path. The file is rewritten only when its content differs
// from the embedded source, so upgrades replace stale copies and
// repeated runs stay cheap.
func Materialize() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	return MaterializeAt(filepath.Join(cacheDir, "xrv"))
}

// MaterializeAt writes the helper into a specific directory.
func MaterializeAt(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create script directory: %w", err)
	}

	path := filepath.Join(dir, ToolFilename)

	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, toolSource) {
		return path, nil
	}

	if err := os.WriteFile(path, toolSource, 0644); err != nil {
		return "", fmt.Errorf("failed to write helper script: %w", err)
	}

	return path, nil
}
