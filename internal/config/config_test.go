package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_HasExpectedValues(t *testing.T) {
	cfg := DefaultConfig()

	// Python defaults
	if cfg.Python.Path != "" {
		t.Errorf("DefaultConfig().Python.Path = %q, want empty", cfg.Python.Path)
	}
	if cfg.Python.MinVersion != ">= 3.9" {
		t.Errorf("DefaultConfig().Python.MinVersion = %q, want %q", cfg.Python.MinVersion, ">= 3.9")
	}
	if cfg.Python.ProbeTimeoutSeconds != 5 {
		t.Errorf("DefaultConfig().Python.ProbeTimeoutSeconds = %d, want 5", cfg.Python.ProbeTimeoutSeconds)
	}
	if cfg.Python.InvokeTimeoutSeconds != 60 {
		t.Errorf("DefaultConfig().Python.InvokeTimeoutSeconds = %d, want 60", cfg.Python.InvokeTimeoutSeconds)
	}

	// Viewer defaults
	if cfg.Viewer.MultiTab {
		t.Error("DefaultConfig().Viewer.MultiTab = true, want false")
	}
	if cfg.Viewer.MaxFileSizeMB != 512 {
		t.Errorf("DefaultConfig().Viewer.MaxFileSizeMB = %d, want 512", cfg.Viewer.MaxFileSizeMB)
	}

	// Plot defaults
	if cfg.Plot.Type != "auto" {
		t.Errorf("DefaultConfig().Plot.Type = %q, want %q", cfg.Plot.Type, "auto")
	}

	// Packages defaults
	if len(cfg.Packages.Required) != 2 {
		t.Errorf("DefaultConfig().Packages.Required length = %d, want 2", len(cfg.Packages.Required))
	}
	if cfg.Packages.Required[0] != "xarray" {
		t.Errorf("DefaultConfig().Packages.Required[0] = %q, want %q", cfg.Packages.Required[0], "xarray")
	}
	if len(cfg.Packages.Optional) != 8 {
		t.Errorf("DefaultConfig().Packages.Optional length = %d, want 8", len(cfg.Packages.Optional))
	}

	// History defaults
	if cfg.History.Disabled {
		t.Error("DefaultConfig().History.Disabled = true, want false")
	}
	if cfg.History.Limit != 50 {
		t.Errorf("DefaultConfig().History.Limit = %d, want 50", cfg.History.Limit)
	}
}

func TestMergeWithDefaults_FillsMissingValues(t *testing.T) {
	// Start with mostly empty config
	cfg := &Config{
		Python: PythonConfig{
			Path: "/opt/python/bin/python3",
			// MinVersion and timeouts empty, should be filled
		},
	}

	merged := MergeWithDefaults(cfg)

	// Should preserve custom values
	if merged.Python.Path != "/opt/python/bin/python3" {
		t.Errorf("MergeWithDefaults() should preserve Python.Path, got %q", merged.Python.Path)
	}

	// Should fill defaults
	if merged.Python.MinVersion != ">= 3.9" {
		t.Errorf("MergeWithDefaults() should fill Python.MinVersion, got %q", merged.Python.MinVersion)
	}
	if merged.Python.InvokeTimeoutSeconds != 60 {
		t.Errorf("MergeWithDefaults() should fill InvokeTimeoutSeconds, got %d", merged.Python.InvokeTimeoutSeconds)
	}
	if merged.Viewer.MaxFileSizeMB != 512 {
		t.Errorf("MergeWithDefaults() should fill Viewer.MaxFileSizeMB, got %d", merged.Viewer.MaxFileSizeMB)
	}
	if len(merged.Packages.Required) != 2 {
		t.Errorf("MergeWithDefaults() should fill Packages.Required, got %v", merged.Packages.Required)
	}
}

func TestMergeWithDefaults_PreservesExistingValues(t *testing.T) {
	cfg := &Config{
		Python: PythonConfig{
			MinVersion:           ">= 3.11",
			ProbeTimeoutSeconds:  2,
			InvokeTimeoutSeconds: 120,
		},
		Viewer: ViewerConfig{
			MultiTab:      true,
			MaxFileSizeMB: 64,
		},
		Packages: PackagesConfig{
			Required: []string{"xarray", "numpy", "dask"},
		},
		History: HistoryConfig{
			Limit: 10,
		},
	}

	merged := MergeWithDefaults(cfg)

	if merged.Python.MinVersion != ">= 3.11" {
		t.Errorf("MergeWithDefaults() should preserve MinVersion, got %q", merged.Python.MinVersion)
	}
	if merged.Python.InvokeTimeoutSeconds != 120 {
		t.Errorf("MergeWithDefaults() should preserve InvokeTimeoutSeconds, got %d", merged.Python.InvokeTimeoutSeconds)
	}
	if !merged.Viewer.MultiTab {
		t.Error("MergeWithDefaults() should preserve MultiTab")
	}
	if merged.Viewer.MaxFileSizeMB != 64 {
		t.Errorf("MergeWithDefaults() should preserve MaxFileSizeMB, got %d", merged.Viewer.MaxFileSizeMB)
	}
	if len(merged.Packages.Required) != 3 {
		t.Errorf("MergeWithDefaults() should preserve Required, got %v", merged.Packages.Required)
	}
	if merged.History.Limit != 10 {
		t.Errorf("MergeWithDefaults() should preserve History.Limit, got %d", merged.History.Limit)
	}
}

func TestLoadFromPath_ValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".xrv.yaml")

	content := `
python:
  path: /usr/local/bin/python3.11
  invoke_timeout_seconds: 90

viewer:
  multi_tab: true

packages:
  required:
    - xarray
    - numpy
    - dask
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.Python.Path != "/usr/local/bin/python3.11" {
		t.Errorf("LoadFromPath() Python.Path = %q, want %q", cfg.Python.Path, "/usr/local/bin/python3.11")
	}
	if cfg.Python.InvokeTimeoutSeconds != 90 {
		t.Errorf("LoadFromPath() InvokeTimeoutSeconds = %d, want 90", cfg.Python.InvokeTimeoutSeconds)
	}
	if !cfg.Viewer.MultiTab {
		t.Error("LoadFromPath() Viewer.MultiTab = false, want true")
	}
	if len(cfg.Packages.Required) != 3 {
		t.Errorf("LoadFromPath() Packages.Required = %v, want 3 entries", cfg.Packages.Required)
	}
	// Should still have defaults merged
	if cfg.Python.MinVersion != ">= 3.9" {
		t.Errorf("LoadFromPath() should merge defaults, MinVersion = %q", cfg.Python.MinVersion)
	}
	if cfg.Viewer.MaxFileSizeMB != 512 {
		t.Errorf("LoadFromPath() should merge defaults, MaxFileSizeMB = %d", cfg.Viewer.MaxFileSizeMB)
	}
}

func TestLoadFromPath_NonExistent(t *testing.T) {
	_, err := LoadFromPath("/this/path/does/not/exist/.xrv.yaml")
	if err == nil {
		t.Error("LoadFromPath() expected error for non-existent file")
	}
}

func TestLoadFromPath_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".xrv.yaml")

	content := `
python:
  path: [invalid yaml
  min_version: :::
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadFromPath(configPath)
	if err == nil {
		t.Error("LoadFromPath() expected error for invalid YAML")
	}
}

func TestLoadFromPath_SetsConfigPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".xrv.yaml")

	if err := os.WriteFile(configPath, []byte("viewer:\n  multi_tab: true\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	if cfg.ConfigPath() != configPath {
		t.Errorf("ConfigPath() = %q, want %q", cfg.ConfigPath(), configPath)
	}
}

func TestConfig_ProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".xrv.yaml")

	if err := os.WriteFile(configPath, []byte("viewer:\n  multi_tab: false\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	expectedRoot, _ := filepath.EvalSymlinks(tmpDir)
	actualRoot, _ := filepath.EvalSymlinks(cfg.ProjectRoot())

	if actualRoot != expectedRoot {
		t.Errorf("ProjectRoot() = %q, want %q", actualRoot, expectedRoot)
	}
}

func TestConfig_ProjectRoot_NoConfigPath(t *testing.T) {
	cfg := &Config{}

	// Should fall back to current directory
	root := cfg.ProjectRoot()
	cwd, _ := os.Getwd()

	if root != cwd {
		t.Errorf("ProjectRoot() with no config path = %q, want cwd %q", root, cwd)
	}
}

func TestConfig_Timeouts(t *testing.T) {
	cfg := DefaultConfig()

	if got := cfg.ProbeTimeout(); got != 5*time.Second {
		t.Errorf("ProbeTimeout() = %v, want 5s", got)
	}
	if got := cfg.InvokeTimeout(); got != 60*time.Second {
		t.Errorf("InvokeTimeout() = %v, want 60s", got)
	}
}

func TestConfig_MaxFileBytes(t *testing.T) {
	cfg := &Config{Viewer: ViewerConfig{MaxFileSizeMB: 2}}

	if got := cfg.MaxFileBytes(); got != 2*1024*1024 {
		t.Errorf("MaxFileBytes() = %d, want %d", got, 2*1024*1024)
	}
}

func TestConfig_HistoryPath(t *testing.T) {
	custom := &Config{History: HistoryConfig{Path: "/tmp/custom-history.db"}}
	if got := custom.HistoryPath(); got != "/tmp/custom-history.db" {
		t.Errorf("HistoryPath() = %q, want custom path", got)
	}

	fallback := DefaultConfig()
	if got := fallback.HistoryPath(); filepath.Base(got) != "history.db" {
		t.Errorf("HistoryPath() = %q, want */history.db", got)
	}
}

func TestDataDir_HonorsXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	if got := DataDir(); got != filepath.Join("/tmp/xdg-data", "xrv") {
		t.Errorf("DataDir() = %q, want /tmp/xdg-data/xrv", got)
	}
}

func TestFindConfigFile_InCurrentDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".xrv.yaml")

	if err := os.WriteFile(configPath, []byte("viewer:\n  multi_tab: false\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tmpDir)

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("FindConfigFile() error = %v", err)
	}

	// Resolve symlinks for comparison (macOS /var -> /private/var)
	foundResolved, _ := filepath.EvalSymlinks(found)
	expectedResolved, _ := filepath.EvalSymlinks(configPath)

	if foundResolved != expectedResolved {
		t.Errorf("FindConfigFile() = %q, want %q", foundResolved, expectedResolved)
	}
}

func TestFindConfigFile_InParentDir(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "sub", "dir")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("Failed to create subdirectory: %v", err)
	}

	configPath := filepath.Join(tmpDir, ".xrv.yaml")
	if err := os.WriteFile(configPath, []byte("viewer:\n  multi_tab: false\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(subDir)

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("FindConfigFile() error = %v", err)
	}

	foundAbs, _ := filepath.Abs(found)
	expectedAbs, _ := filepath.Abs(configPath)
	foundResolved, _ := filepath.EvalSymlinks(foundAbs)
	expectedResolved, _ := filepath.EvalSymlinks(expectedAbs)

	if foundResolved != expectedResolved {
		t.Errorf("FindConfigFile() = %q, want %q", foundResolved, expectedResolved)
	}
}

func TestFindConfigFile_YmlExtension(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".xrv.yml")

	if err := os.WriteFile(configPath, []byte("viewer:\n  multi_tab: false\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tmpDir)

	found, err := FindConfigFile()
	if err != nil {
		t.Fatalf("FindConfigFile() error = %v", err)
	}

	foundResolved, _ := filepath.EvalSymlinks(found)
	expectedResolved, _ := filepath.EvalSymlinks(configPath)

	if foundResolved != expectedResolved {
		t.Errorf("FindConfigFile() with .yml = %q, want %q", foundResolved, expectedResolved)
	}
}

func TestFindConfigFile_NotFound(t *testing.T) {
	tmpDir := t.TempDir()

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tmpDir)

	_, err := FindConfigFile()
	if err == nil {
		t.Error("FindConfigFile() expected error when no config exists")
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tmpDir)

	if Exists() {
		t.Error("Exists() = true, want false")
	}

	configPath := filepath.Join(tmpDir, ".xrv.yaml")
	if err := os.WriteFile(configPath, []byte("viewer:\n  multi_tab: false\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	if !Exists() {
		t.Error("Exists() = false, want true")
	}
}

func TestLoadOrDefault_WithConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".xrv.yaml")

	content := `python:
  path: /custom/python
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tmpDir)

	cfg := LoadOrDefault()

	if cfg.Python.Path != "/custom/python" {
		t.Errorf("LoadOrDefault() should load config, got Python.Path = %q", cfg.Python.Path)
	}
}

func TestLoadOrDefault_WithoutConfig(t *testing.T) {
	tmpDir := t.TempDir()

	oldWd, _ := os.Getwd()
	defer os.Chdir(oldWd)
	os.Chdir(tmpDir)

	cfg := LoadOrDefault()

	// Should return defaults
	if cfg.Python.MinVersion != ">= 3.9" {
		t.Errorf("LoadOrDefault() without config should return defaults, got MinVersion = %q", cfg.Python.MinVersion)
	}
	if cfg.Viewer.MaxFileSizeMB != 512 {
		t.Errorf("LoadOrDefault() without config should return defaults, got MaxFileSizeMB = %d", cfg.Viewer.MaxFileSizeMB)
	}
}

func TestConfig_NestedStructures(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".xrv.yaml")

	content := `
python:
  env:
    HDF5_USE_FILE_LOCKING: "FALSE"
    PYTHONWARNINGS: ignore

packages:
  optional:
    - zarr
    - cfgrib
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}

	// Check map
	if cfg.Python.Env["HDF5_USE_FILE_LOCKING"] != "FALSE" {
		t.Errorf("Env[HDF5_USE_FILE_LOCKING] = %q, want %q", cfg.Python.Env["HDF5_USE_FILE_LOCKING"], "FALSE")
	}

	// Check slice
	if len(cfg.Packages.Optional) != 2 {
		t.Errorf("Optional length = %d, want 2", len(cfg.Packages.Optional))
	}
	if cfg.Packages.Optional[0] != "zarr" {
		t.Errorf("Optional[0] = %q, want %q", cfg.Packages.Optional[0], "zarr")
	}
}
