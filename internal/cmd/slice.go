package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/protocol"
	"github.com/xrview/xrv/internal/python"
	"github.com/xrview/xrv/internal/ui"
)

var (
	sliceDim   string
	sliceStart int
	sliceStop  int
	sliceJSON  bool
)

var sliceCmd = &cobra.Command{
	Use:   "slice <file> <variable>",
	Short: "Print a window of a variable's values",
	Long: `Extract values from one variable as JSON.

With --dim, --start and --stop the variable is windowed along that
dimension first; without them the whole array is returned, which can be
large.`,
	Args: cobra.ExactArgs(2),
	RunE: runSlice,
}

func init() {
	sliceCmd.Flags().StringVar(&sliceDim, "dim", "", "dimension to slice along")
	sliceCmd.Flags().IntVar(&sliceStart, "start", 0, "start index (inclusive)")
	sliceCmd.Flags().IntVar(&sliceStop, "stop", 0, "stop index (exclusive)")
	sliceCmd.Flags().BoolVar(&sliceJSON, "json", false, "print the raw JSON payload")
	rootCmd.AddCommand(sliceCmd)
}

func runSlice(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	variable := args[1]

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	// Zero is a valid index, so only flags the user actually set are
	// forwarded.
	opts := python.SliceOptions{Dim: sliceDim}
	if cmd.Flags().Changed("start") {
		opts.Start = &sliceStart
	}
	if cmd.Flags().Changed("stop") {
		opts.Stop = &sliceStop
	}

	var out protocol.Outcome
	fetch := func() error {
		var invErr error
		out, invErr = client.Slice(cmd.Context(), path, variable, opts)
		return invErr
	}
	if sliceJSON {
		err = fetch()
	} else {
		err = ui.WithSpinner(fmt.Sprintf("Slicing %s...", variable), fetch)
	}
	if err != nil {
		return reportResolveError(err)
	}

	success, ok := out.(protocol.Success)
	if !ok {
		return reportFailure(out)
	}

	if sliceJSON {
		fmt.Println(string(success.Result))
		return nil
	}

	var sr protocol.SliceResult
	if err := success.Decode(&sr); err != nil {
		return err
	}

	ui.Header("Slice: " + sr.Variable)
	ui.KeyValue("Dtype", sr.Dtype)
	ui.KeyValue("Shape", formatShape(sr.Shape))
	if success.Warning != "" {
		ui.Warning(success.Warning)
	}
	ui.NewLine()

	var buf bytes.Buffer
	if err := json.Indent(&buf, sr.Data, "", "  "); err != nil {
		fmt.Println(string(sr.Data))
		return nil
	}
	fmt.Println(buf.String())
	return nil
}
