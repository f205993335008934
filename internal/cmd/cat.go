package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/protocol"
)

var catCmd = &cobra.Command{
	Use:   "cat <file>",
	Short: "Print the xarray text representation",
	Long: `Print the dataset's plain-text xarray representation to stdout.

The output carries no styling, so it pipes cleanly into less or grep.`,
	Args: cobra.ExactArgs(1),
	RunE: runCat,
}

func init() {
	rootCmd.AddCommand(catCmd)
}

func runCat(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	out, err := client.Text(cmd.Context(), path)
	if err != nil {
		return reportResolveError(err)
	}

	success, ok := out.(protocol.Success)
	if !ok {
		return reportFailure(out)
	}

	var text protocol.TextResult
	if err := success.Decode(&text); err != nil {
		return err
	}

	// Stdout stays clean for pipes; partial-success warnings go to stderr.
	if success.Warning != "" {
		fmt.Fprintln(os.Stderr, "warning: "+success.Warning)
	}
	fmt.Println(text.Text)
	return nil
}
