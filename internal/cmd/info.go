package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/protocol"
	"github.com/xrview/xrv/internal/ui"
)

var (
	infoJSON  bool
	infoForce bool
)

var infoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Print dataset structure without the viewer",
	Long: `Read a dataset once and print its format, dimensions, variables,
coordinates and attributes.

With --json the helper's raw payload is printed instead, for scripting.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "print the raw JSON payload")
	infoCmd.Flags().BoolVarP(&infoForce, "force", "f", false, "skip the file size guard")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if err := guardFileSize(cfg, path, infoForce); err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var out protocol.Outcome
	fetch := func() error {
		var invErr error
		out, invErr = client.Info(cmd.Context(), path)
		return invErr
	}
	if infoJSON {
		err = fetch()
	} else {
		err = ui.WithSpinner("Reading dataset...", fetch)
	}
	if err != nil {
		return reportResolveError(err)
	}

	success, ok := out.(protocol.Success)
	if !ok {
		return reportFailure(out)
	}

	if infoJSON {
		var buf bytes.Buffer
		if err := json.Indent(&buf, success.Result, "", "  "); err != nil {
			fmt.Println(string(success.Result))
			return nil
		}
		fmt.Println(buf.String())
		return nil
	}

	var info protocol.FileInfo
	if err := success.Decode(&info); err != nil {
		return err
	}

	renderFileInfo(path, &info, success.Warning)
	return nil
}

func renderFileInfo(path string, info *protocol.FileInfo, warning string) {
	ui.Header("Dataset: " + filepath.Base(path))

	ui.KeyValue("Path", path)
	if info.FormatInfo.DisplayName != "" {
		ui.KeyValue("Format", info.FormatInfo.DisplayName)
	}
	if info.UsedEngine != "" {
		ui.KeyValue("Engine", info.UsedEngine)
	}
	if info.FileSize > 0 {
		ui.KeyValue("Size", ui.FormatBytes(info.FileSize))
	}
	if len(info.FormatInfo.AvailableEngines) > 0 {
		ui.KeyValue("Engines", strings.Join(info.FormatInfo.AvailableEngines, ", "))
	}

	if warning != "" {
		ui.NewLine()
		ui.Warning(warning)
	}

	groups := info.Groups()
	multi := len(groups) > 1
	for _, g := range groups {
		renderGroup(info, g, multi)
	}
}

func renderGroup(info *protocol.FileInfo, group string, labeled bool) {
	if labeled {
		title := group
		if title == "/" || title == "" {
			title = "/ (root)"
		}
		ui.SubHeader("Group " + title)
	}

	if dims := info.Dimensions[group]; len(dims) > 0 {
		names := make([]string, 0, len(dims))
		for name := range dims {
			names = append(names, name)
		}
		sort.Strings(names)

		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s: %d", name, dims[name]))
		}
		ui.KeyValue("Dimensions", strings.Join(parts, ", "))
	}

	if vars := info.Variables[group]; len(vars) > 0 {
		if !labeled {
			ui.SubHeader(fmt.Sprintf("Variables (%d)", len(vars)))
		}
		renderVariableTable(vars)
	}

	if coords := info.Coordinates[group]; len(coords) > 0 {
		if !labeled {
			ui.SubHeader(fmt.Sprintf("Coordinates (%d)", len(coords)))
		}
		renderVariableTable(coords)
	}

	if attrs := info.Attributes[group]; len(attrs) > 0 {
		if !labeled {
			ui.SubHeader("Attributes")
		}
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ui.KeyValue(k, truncate(fmt.Sprintf("%v", attrs[k]), 100))
		}
	}
}

func renderVariableTable(vars []protocol.VariableInfo) {
	table := ui.NewTable([]string{"Name", "Dtype", "Shape", "Dimensions", "Size"})
	for _, v := range vars {
		size := ""
		if v.SizeBytes > 0 {
			size = ui.FormatBytes(v.SizeBytes)
		}
		table.AddRow([]string{
			v.Name,
			v.Dtype,
			formatShape(v.Shape),
			strings.Join(v.Dimensions, ", "),
			size,
		})
	}
	table.Render()
}

// formatShape renders a shape tuple the way xarray prints it.
func formatShape(shape []int64) string {
	if len(shape) == 0 {
		return "scalar"
	}
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
