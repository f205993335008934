package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/config"
	"github.com/xrview/xrv/internal/diag"
)

var (
	logsPathOnly bool
	logsLines    int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the debug log",
	Long: `Print the tail of the debug log. Helper stderr, discovery traces and
transport failures land there, so attach it to bug reports.`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVar(&logsPathOnly, "path", false, "print only the log file path")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "number of lines to print")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	logPath := diag.Path()
	if logPath == "" {
		logPath = filepath.Join(config.DataDir(), "xrv.log")
	}

	if logsPathOnly {
		fmt.Println(logPath)
		return nil
	}

	lines, err := diag.Tail(logPath, logsLines)
	if err != nil {
		return fmt.Errorf("failed to read log: %w", err)
	}
	if len(lines) == 0 {
		fmt.Println("(log is empty)")
		return nil
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}
