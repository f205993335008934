// Package cmd implements the xrv CLI commands.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/config"
	"github.com/xrview/xrv/internal/diag"
)

var (
	version     = "dev"
	cfgFile     string
	verbose     bool
	noColor     bool
	yesFlag     bool
	pythonFlag  string
	timeoutFlag int
)

// SetVersion sets the version string (called from main).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "xrv",
	Short: "Terminal browser for scientific array datasets",
	Long: `xrv inspects NetCDF, Zarr, HDF5, GRIB and GeoTIFF datasets from the
terminal, using your own Python environment to read them.

The heavy lifting is delegated to xarray in a short-lived helper process,
so whatever reader engines your interpreter has installed are the engines
xrv can use.

Get started:
  xrv open data.nc     Browse a dataset interactively
  xrv info data.nc     Print dataset structure without the viewer
  xrv doctor           Check interpreter and package health
  xrv init             Write a .xrv.yaml for this project`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	defer diag.Close()
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .xrv.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (mirrors the debug log to stderr)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "skip confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&pythonFlag, "python", "", "python interpreter to use (overrides config)")
	rootCmd.PersistentFlags().IntVar(&timeoutFlag, "timeout", 0, "helper timeout in seconds (overrides config)")

	// Version flag
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("xrv version {{.Version}}\n")
}

func initConfig() {
	if noColor {
		os.Setenv("NO_COLOR", "1")
	}

	// Local preferences can turn verbose on per machine; the flag wins.
	if !verbose {
		verbose = config.LoadOrDefault().IsVerbose()
	}

	logPath := filepath.Join(config.DataDir(), "xrv.log")
	if err := diag.Init(logPath, verbose); err != nil {
		fmt.Fprintf(os.Stderr, "warning: debug log unavailable: %v\n", err)
	}
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

// IsYes returns whether the --yes flag is set (skip confirmations).
func IsYes() bool {
	return yesFlag
}
