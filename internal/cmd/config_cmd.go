package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/config"
	"github.com/xrview/xrv/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `View the effective xrv configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Display the merged configuration: defaults, .xrv.yaml and .xrv.local.yaml.`,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file locations",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	ui.Header("xrv Configuration")

	if cfg.ConfigPath() != "" {
		ui.KeyValue("Config File", cfg.ConfigPath())
	} else {
		ui.KeyValue("Config File", "(none - using defaults)")
	}

	ui.NewLine()
	ui.SubHeader("Python")
	if cfg.Python.Path != "" {
		ui.KeyValue("Pinned Path", cfg.Python.Path)
	} else {
		ui.KeyValue("Pinned Path", "(none - discovery)")
	}
	ui.KeyValue("Min Version", cfg.Python.MinVersion)
	ui.KeyValue("Probe Timeout", fmt.Sprintf("%ds", cfg.Python.ProbeTimeoutSeconds))
	ui.KeyValue("Invoke Timeout", fmt.Sprintf("%ds", cfg.Python.InvokeTimeoutSeconds))

	ui.NewLine()
	ui.SubHeader("Viewer")
	ui.KeyValue("Multi Tab", fmt.Sprintf("%t", cfg.Viewer.MultiTab))
	ui.KeyValue("Max File Size", fmt.Sprintf("%d MB", cfg.Viewer.MaxFileSizeMB))

	ui.NewLine()
	ui.SubHeader("Plot")
	ui.KeyValue("Type", cfg.Plot.Type)
	if cfg.Plot.Style != "" {
		ui.KeyValue("Style", cfg.Plot.Style)
	}
	if cfg.Plot.OutputDir != "" {
		ui.KeyValue("Output Dir", cfg.Plot.OutputDir)
	}

	ui.NewLine()
	ui.SubHeader("Packages")
	ui.KeyValue("Required", strings.Join(cfg.Packages.Required, ", "))
	ui.KeyValue("Optional", strings.Join(cfg.Packages.Optional, ", "))

	ui.NewLine()
	ui.SubHeader("History")
	ui.KeyValue("Disabled", fmt.Sprintf("%t", cfg.History.Disabled))
	ui.KeyValue("Limit", fmt.Sprintf("%d", cfg.History.Limit))
	ui.KeyValue("Database", cfg.HistoryPath())

	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	configPath, err := config.FindConfigFile()
	if err != nil {
		ui.Info("No .xrv.yaml found (using defaults)")
	} else {
		fmt.Println(configPath)
	}
	if localPath, err := config.FindLocalConfigFile(); err == nil {
		fmt.Println(localPath)
	}
	return nil
}
