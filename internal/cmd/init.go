package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/config"
	"github.com/xrview/xrv/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize xrv in a project",
	Long: `Create a .xrv.yaml configuration file with detected settings and
sensible defaults, plus an optional gitignored .xrv.local.yaml for
machine-specific overrides like the pinned interpreter.`,
	RunE: runInit,
}

var initForceFlag bool

func init() {
	initCmd.Flags().BoolVarP(&initForceFlag, "force", "f", false, "Overwrite existing .xrv.yaml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	ui.Header("Initialize xrv")

	// Check if already initialized
	if config.Exists() && !initForceFlag {
		configPath, _ := config.FindConfigFile()
		ui.Warningf("Already initialized at %s", configPath)
		ui.Info("Use --force to overwrite")
		return nil
	}

	// Detect project settings
	venv := detectVenv()
	datasets := detectDatasets()

	ui.SubHeader("Detected Settings")
	if venv != "" {
		ui.KeyValue("Virtualenv", venv)
	} else {
		ui.KeyValue("Virtualenv", "none found")
	}
	ui.KeyValue("Datasets Here", fmt.Sprintf("%d", datasets))

	plotDir := "plots"
	plotType := "auto"

	if !IsYes() {
		ui.NewLine()
		ui.SubHeader("Configuration")

		var err error
		plotDir, err = ui.PromptString("Plot output directory", plotDir)
		if err != nil {
			return err
		}

		typeOptions := []string{"auto", "line", "pcolormesh", "hist"}
		idx, _, err := ui.PromptSelectWithIndex("Default plot type", typeOptions)
		if err != nil {
			return err
		}
		plotType = typeOptions[idx]
	}

	// Write configuration file
	configContent := generateConfig(plotDir, plotType)
	configPath := ".xrv.yaml"
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	ui.NewLine()
	ui.Success(fmt.Sprintf("Created %s", configPath))

	// Offer the local overrides file
	createLocal := true
	if !IsYes() {
		var err error
		createLocal, err = ui.PromptYesNo("Create .xrv.local.yaml for machine-specific overrides?", true)
		if err != nil {
			return err
		}
	}
	if createLocal && !config.LocalConfigExists() {
		if err := config.WriteLocalConfig(config.LocalConfigFilename); err != nil {
			return fmt.Errorf("failed to write local config: %w", err)
		}
		cwd, _ := os.Getwd()
		if err := config.AddToGitignore(cwd); err != nil {
			ui.Warningf("Could not update .gitignore: %v", err)
		}
		ui.Success("Created .xrv.local.yaml (gitignored)")
	}

	ui.NewLine()

	// Show next steps
	ui.SubHeader("Next Steps")
	ui.NumberedList(1, "Run 'xrv doctor' to check your Python environment")
	ui.NumberedList(2, "Run 'xrv packages' to see which formats are readable")
	ui.NumberedList(3, "Run 'xrv open <file>' to browse a dataset")

	return nil
}

func detectVenv() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, name := range []string{".venv", "venv"} {
		p := filepath.Join(cwd, name, "bin", "python")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func detectDatasets() int {
	patterns := []string{
		"*.nc", "*.nc4", "*.cdf",
		"*.zarr",
		"*.h5", "*.hdf5", "*.hdf",
		"*.grib", "*.grib2", "*.grb",
		"*.tif", "*.tiff",
	}
	n := 0
	for _, pattern := range patterns {
		matches, _ := filepath.Glob(pattern)
		n += len(matches)
	}
	return n
}

func generateConfig(plotDir, plotType string) string {
	return fmt.Sprintf(`# .xrv.yaml - Project configuration for xrv
# Generated by xrv init

python:
  # Pin an interpreter here, or per machine in .xrv.local.yaml.
  # path: "/usr/bin/python3"
  min_version: ">= 3.9"
  probe_timeout_seconds: 5
  invoke_timeout_seconds: 60

viewer:
  multi_tab: false
  max_file_size_mb: 512

plot:
  type: %s
  # style: ggplot
  output_dir: %s

packages:
  required:
    - xarray
    - numpy
  optional:
    - netCDF4
    - h5netcdf
    - zarr
    - cfgrib
    - rioxarray
    - scipy
    - h5py
    - matplotlib

history:
  disabled: false
  limit: 50
`, plotType, plotDir)
}
