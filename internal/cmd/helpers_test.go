package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xrview/xrv/internal/config"
	"github.com/xrview/xrv/internal/protocol"
)

func TestPlotFilename(t *testing.T) {
	tests := []struct {
		path     string
		variable string
		expected string
	}{
		{"/data/air.nc", "temperature", "air_temperature.png"},
		{"/data/air.nc", "/child/temp", "air_child_temp.png"},
		{"store.zarr", "sea ice", "store_sea_ice.png"},
		{"/data/era5.grib2", "t2m", "era5_t2m.png"},
	}

	for _, tt := range tests {
		t.Run(tt.variable, func(t *testing.T) {
			got := plotFilename(tt.path, tt.variable)
			if got != tt.expected {
				t.Errorf("plotFilename(%q, %q) = %q, want %q", tt.path, tt.variable, got, tt.expected)
			}
		})
	}
}

func TestFormatShape(t *testing.T) {
	tests := []struct {
		name     string
		shape    []int64
		expected string
	}{
		{"scalar", nil, "scalar"},
		{"vector", []int64{744}, "(744)"},
		{"grid", []int64{744, 73, 144}, "(744, 73, 144)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatShape(tt.shape); got != tt.expected {
				t.Errorf("formatShape(%v) = %q, want %q", tt.shape, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	got := truncate(strings.Repeat("x", 50), 10)
	if got != "xxxxxxx..." {
		t.Errorf("expected 10-char truncation, got %q", got)
	}
}

func TestVariableItems(t *testing.T) {
	info := &protocol.FileInfo{
		Variables: map[string][]protocol.VariableInfo{
			"/": {
				{Name: "temperature", Dtype: "float32", Dimensions: []string{"time", "lat"}},
			},
			"/child": {
				{Name: "pressure", Dtype: "float64", Dimensions: []string{"time"}},
			},
		},
		Coordinates: map[string][]protocol.VariableInfo{
			"/": {
				{Name: "time", Dtype: "datetime64[ns]", Dimensions: []string{"time"}},
			},
		},
	}

	items := variableItems(info)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	// Data variables come before coordinates, groups in sorted order.
	if items[0].Name != "temperature" {
		t.Errorf("expected root variable first, got %q", items[0].Name)
	}
	if items[1].Name != "/child/pressure" {
		t.Errorf("expected group-qualified name, got %q", items[1].Name)
	}
	if items[2].Name != "time" {
		t.Errorf("expected coordinate last, got %q", items[2].Name)
	}
	if !strings.Contains(items[2].Description, "coordinate") {
		t.Errorf("coordinate entry should be labeled, got %q", items[2].Description)
	}
	if !strings.Contains(items[0].Description, "float32") {
		t.Errorf("description should carry the dtype, got %q", items[0].Description)
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name     string
		at       time.Time
		expected string
	}{
		{"just now", now.Add(-10 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3 * time.Hour), "3h ago"},
		{"days", now.Add(-48 * time.Hour), "2d ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := relativeTime(tt.at); got != tt.expected {
				t.Errorf("relativeTime = %q, want %q", got, tt.expected)
			}
		})
	}

	old := now.Add(-90 * 24 * time.Hour)
	if got := relativeTime(old); got != old.Format("2006-01-02") {
		t.Errorf("old timestamps should render as dates, got %q", got)
	}
}

func TestGenerateConfigIsValidYAML(t *testing.T) {
	content := generateConfig("plots", "line")

	var doc map[string]any
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		t.Fatalf("generated config does not parse: %v", err)
	}

	for _, section := range []string{"python", "viewer", "plot", "packages", "history"} {
		if _, ok := doc[section]; !ok {
			t.Errorf("generated config missing %q section", section)
		}
	}

	plot, ok := doc["plot"].(map[string]any)
	if !ok {
		t.Fatalf("plot section has unexpected shape: %T", doc["plot"])
	}
	if plot["type"] != "line" {
		t.Errorf("expected plot type line, got %v", plot["type"])
	}
	if plot["output_dir"] != "plots" {
		t.Errorf("expected output_dir plots, got %v", plot["output_dir"])
	}
}

func TestGuardFileSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.nc")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Sparse file: the size guard only stats.
	if err := f.Truncate(2 << 20); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	f.Close()

	cfg := config.DefaultConfig()
	cfg.Viewer.MaxFileSizeMB = 1

	err = guardFileSize(cfg, path, false)
	if err == nil {
		t.Fatal("expected oversize error")
	}
	if !strings.Contains(err.Error(), "--force") {
		t.Errorf("error should mention --force, got %q", err.Error())
	}

	if err := guardFileSize(cfg, path, true); err != nil {
		t.Errorf("force should bypass the guard, got %v", err)
	}

	cfg.Viewer.MaxFileSizeMB = 0
	if err := guardFileSize(cfg, path, false); err != nil {
		t.Errorf("zero limit disables the guard, got %v", err)
	}
}

func TestInvokeTimeout(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Python.InvokeTimeoutSeconds = 30

	orig := timeoutFlag
	defer func() { timeoutFlag = orig }()

	timeoutFlag = 0
	if got := invokeTimeout(cfg); got != 30*time.Second {
		t.Errorf("expected config timeout, got %v", got)
	}

	timeoutFlag = 5
	if got := invokeTimeout(cfg); got != 5*time.Second {
		t.Errorf("flag should win over config, got %v", got)
	}
}
