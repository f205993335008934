package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/protocol"
	"github.com/xrview/xrv/internal/ui"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Print xarray's environment report",
	Long: `Run xarray.show_versions() in the resolved interpreter and print the
result. Useful when filing xarray bug reports.`,
	Args: cobra.NoArgs,
	RunE: runVersions,
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var out protocol.Outcome
	err = ui.WithSpinner("Collecting versions...", func() error {
		var invErr error
		out, invErr = client.Versions(cmd.Context())
		return invErr
	})
	if err != nil {
		return reportResolveError(err)
	}

	success, ok := out.(protocol.Success)
	if !ok {
		return reportFailure(out)
	}

	var v protocol.VersionsResult
	if err := success.Decode(&v); err != nil {
		return err
	}

	fmt.Println(v.Versions)
	return nil
}
