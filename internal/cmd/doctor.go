package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/config"
	"github.com/xrview/xrv/internal/diag"
	"github.com/xrview/xrv/internal/python"
	"github.com/xrview/xrv/internal/scripts"
	"github.com/xrview/xrv/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check interpreter, packages and configuration",
	Long: `Check that xrv can actually read datasets on this machine.

This command verifies:
  - A usable Python interpreter (version gate included)
  - The helper script materialization
  - Required and optional Python packages
  - Configuration file presence and validity
  - The data directory (history, debug log)`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	status  string // "ok", "warning", "error"
	message string
	version string
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	ui.Header("xrv Doctor")

	hasErrors := false

	// System info
	ui.SubHeader("System Information")
	ui.KeyValue("OS", runtime.GOOS)
	ui.KeyValue("Arch", runtime.GOARCH)
	ui.KeyValue("xrv", version)
	ui.NewLine()

	ui.SubHeader("Python Environment")

	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}

	interp, handle := checkInterpreter(cmd, resolver)
	printCheckResult(interp)
	if interp.status == "error" {
		hasErrors = true
	}

	script, scriptPath := checkHelperScript()
	printCheckResult(script)
	if script.status == "error" {
		hasErrors = true
	}

	ui.NewLine()
	ui.SubHeader("Python Packages")

	if handle == nil || scriptPath == "" {
		ui.Warning("Skipped (no usable interpreter)")
	} else {
		client := python.NewClient(resolver, python.ClientOptions{
			ScriptPath: scriptPath,
			Timeout:    invokeTimeout(cfg),
			Env:        cfg.Python.Env,
		})
		for _, r := range checkPackages(cmd, cfg, client) {
			printCheckResult(r)
			if r.status == "error" {
				hasErrors = true
			}
		}
	}

	ui.NewLine()
	ui.SubHeader("Configuration")
	checkConfigFile()

	ui.NewLine()
	ui.SubHeader("Data Directory")
	checkDataDir(cfg)

	ui.NewLine()

	if hasErrors {
		ui.Error("Some checks failed. See messages above.")
		return fmt.Errorf("doctor checks failed")
	}

	ui.Success("All checks passed!")
	return nil
}

func checkInterpreter(cmd *cobra.Command, resolver *python.Resolver) (checkResult, *python.Handle) {
	handle, err := resolver.Resolve(cmd.Context())
	if err != nil {
		return checkResult{
			name:    "python",
			status:  "error",
			message: fmt.Sprintf("%v. Pin one with 'xrv python select' or --python", err),
		}, nil
	}

	return checkResult{
		name:    "python",
		status:  "ok",
		version: handle.Version,
		message: fmt.Sprintf("%s (%s)", handle.Path, handle.Source),
	}, handle
}

func checkHelperScript() (checkResult, string) {
	path, err := scripts.Materialize()
	if err != nil {
		return checkResult{
			name:    "helper script",
			status:  "error",
			message: err.Error(),
		}, ""
	}

	return checkResult{
		name:    "helper script",
		status:  "ok",
		message: path,
	}, path
}

// checkPackages verifies required and optional packages in one
// interpreter run.
func checkPackages(cmd *cobra.Command, cfg *config.Config, client *python.Client) []checkResult {
	names := append(append([]string{}, cfg.Packages.Required...), cfg.Packages.Optional...)
	report, err := client.CheckPackages(cmd.Context(), names...)
	if err != nil {
		return []checkResult{{name: "packages", status: "error", message: err.Error()}}
	}

	required := map[string]bool{}
	for _, n := range cfg.Packages.Required {
		required[n] = true
	}

	var results []checkResult
	for _, s := range report.Statuses {
		switch {
		case s.Available:
			results = append(results, checkResult{name: s.Name, status: "ok"})
		case required[s.Name]:
			results = append(results, checkResult{
				name:    s.Name,
				status:  "error",
				message: fmt.Sprintf("Required. Install with: pip install %s", s.Name),
			})
		default:
			results = append(results, checkResult{
				name:    s.Name,
				status:  "warning",
				message: "Not installed (some formats stay unavailable)",
			})
		}
	}
	return results
}

func printCheckResult(r checkResult) {
	switch r.status {
	case "ok":
		version := ""
		if r.version != "" {
			version = ui.Dim(fmt.Sprintf(" (%s)", r.version))
		}
		ui.Success(fmt.Sprintf("%s%s", r.name, version))
		if r.message != "" {
			ui.Info(fmt.Sprintf("  %s", r.message))
		}
	case "warning":
		ui.Warning(fmt.Sprintf("%s - %s", r.name, r.message))
	case "error":
		ui.Error(fmt.Sprintf("%s - %s", r.name, r.message))
	}
}

func checkConfigFile() {
	configPath, err := config.FindConfigFile()
	if err != nil {
		ui.Warning("No .xrv.yaml found (using defaults)")
		ui.Info("  Run 'xrv init' to create one")
		return
	}

	cfg, err := config.LoadFromPath(configPath)
	if err != nil {
		ui.Error(fmt.Sprintf("Failed to parse config: %v", err))
		return
	}

	ui.Success(fmt.Sprintf("Found .xrv.yaml at %s", configPath))

	if cfg.Python.Path != "" {
		ui.KeyValue("Pinned Python", cfg.Python.Path)
	}
	ui.KeyValue("Min Version", cfg.Python.MinVersion)
	ui.KeyValue("Max File Size", fmt.Sprintf("%d MB", cfg.Viewer.MaxFileSizeMB))
	if config.LocalConfigExists() {
		ui.KeyValue("Local Config", config.LocalConfigFilename)
	}
}

func checkDataDir(cfg *config.Config) {
	dir := config.DataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		ui.Error(fmt.Sprintf("Cannot create %s: %v", dir, err))
		return
	}

	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		ui.Error(fmt.Sprintf("Cannot write to %s: %v", dir, err))
		return
	}
	os.Remove(probe)

	ui.Success("Data directory is writable")
	ui.KeyValue("Path", dir)
	if !cfg.History.Disabled {
		ui.KeyValue("History DB", cfg.HistoryPath())
	}
	if diag.Path() != "" {
		ui.KeyValue("Debug Log", diag.Path())
	}
}
