package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/protocol"
	"github.com/xrview/xrv/internal/ui"
	"github.com/xrview/xrv/pkg/shell"
)

var (
	htmlOutput   string
	htmlOpenFlag bool
)

var htmlCmd = &cobra.Command{
	Use:   "html <file>",
	Short: "Export the dataset's HTML representation",
	Long: `Write xarray's interactive HTML representation to a standalone file,
ready for a browser.`,
	Args: cobra.ExactArgs(1),
	RunE: runHTML,
}

func init() {
	htmlCmd.Flags().StringVarP(&htmlOutput, "output", "o", "", "output HTML path")
	htmlCmd.Flags().BoolVar(&htmlOpenFlag, "open", false, "open the file after writing it")
	rootCmd.AddCommand(htmlCmd)
}

func runHTML(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var out protocol.Outcome
	err = ui.WithSpinner("Rendering HTML...", func() error {
		var invErr error
		out, invErr = client.HTML(cmd.Context(), path)
		return invErr
	})
	if err != nil {
		return reportResolveError(err)
	}

	success, ok := out.(protocol.Success)
	if !ok {
		return reportFailure(out)
	}

	var doc protocol.HTMLResult
	if err := success.Decode(&doc); err != nil {
		return err
	}

	target := htmlOutput
	if target == "" {
		base := filepath.Base(path)
		target = strings.TrimSuffix(base, filepath.Ext(base)) + ".html"
	}
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(target, []byte(doc.HTML), 0644); err != nil {
		return fmt.Errorf("failed to write HTML: %w", err)
	}

	if success.Warning != "" {
		ui.Warning(success.Warning)
	}
	ui.Success("Wrote " + target)

	if htmlOpenFlag {
		if _, err := shell.Run(cfg.GetOpener(), target); err != nil {
			ui.Warningf("Could not open %s: %v", target, err)
		}
	}
	return nil
}
