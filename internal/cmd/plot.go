package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/protocol"
	"github.com/xrview/xrv/internal/python"
	"github.com/xrview/xrv/internal/ui"
	"github.com/xrview/xrv/pkg/shell"
)

var (
	plotStyle    string
	plotOutput   string
	plotOpenFlag bool
	plotForce    bool
)

var plotCmd = &cobra.Command{
	Use:   "plot <file> [variable] [plot-type]",
	Short: "Render a variable to a PNG",
	Long: `Plot one variable with matplotlib and write the image as a PNG.

When the variable is omitted a picker lists what the dataset offers.
Variables in nested groups are addressed as /group/variable.

Plot types: auto, line, pcolormesh, hist.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runPlot,
}

func init() {
	plotCmd.Flags().StringVar(&plotStyle, "style", "", "matplotlib style (e.g. ggplot, dark_background)")
	plotCmd.Flags().StringVarP(&plotOutput, "output", "o", "", "output PNG path")
	plotCmd.Flags().BoolVar(&plotOpenFlag, "open", false, "open the image after writing it")
	plotCmd.Flags().BoolVarP(&plotForce, "force", "f", false, "skip the file size guard")
	rootCmd.AddCommand(plotCmd)
}

func runPlot(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if err := guardFileSize(cfg, path, plotForce); err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	var variable string
	if len(args) >= 2 {
		variable = args[1]
	} else {
		variable, err = pickVariable(cmd, client, path)
		if err != nil {
			return err
		}
	}

	opts := python.PlotOptions{Type: cfg.Plot.Type, Style: cfg.Plot.Style}
	if len(args) >= 3 {
		opts.Type = args[2]
	}
	if plotStyle != "" {
		opts.Style = plotStyle
	}

	var out protocol.Outcome
	err = ui.WithSpinner(fmt.Sprintf("Plotting %s...", variable), func() error {
		var invErr error
		out, invErr = client.Plot(cmd.Context(), path, variable, opts)
		return invErr
	})
	if err != nil {
		return reportResolveError(err)
	}

	success, ok := out.(protocol.Success)
	if !ok {
		return reportFailure(out)
	}

	var plot protocol.PlotResult
	if err := success.Decode(&plot); err != nil {
		return err
	}
	png, err := plot.PNG()
	if err != nil {
		return err
	}

	target := plotOutput
	if target == "" {
		target = filepath.Join(cfg.PlotOutputDir(), plotFilename(path, variable))
	}
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(target, png, 0644); err != nil {
		return fmt.Errorf("failed to write plot: %w", err)
	}

	if success.Warning != "" {
		ui.Warning(success.Warning)
	}
	ui.Success(fmt.Sprintf("Wrote %s (%s)", target, ui.FormatBytes(int64(len(png)))))

	if plotOpenFlag {
		if _, err := shell.Run(cfg.GetOpener(), target); err != nil {
			ui.Warningf("Could not open %s: %v", target, err)
		}
	}
	return nil
}

// pickVariable reads the dataset structure and prompts for a variable.
func pickVariable(cmd *cobra.Command, client *python.Client, path string) (string, error) {
	var out protocol.Outcome
	err := ui.WithSpinner("Reading dataset...", func() error {
		var invErr error
		out, invErr = client.Info(cmd.Context(), path)
		return invErr
	})
	if err != nil {
		return "", reportResolveError(err)
	}

	success, ok := out.(protocol.Success)
	if !ok {
		return "", reportFailure(out)
	}

	var info protocol.FileInfo
	if err := success.Decode(&info); err != nil {
		return "", err
	}

	items := variableItems(&info)
	if len(items) == 0 {
		return "", fmt.Errorf("dataset has no variables to plot")
	}

	idx, err := ui.PromptSelectDetailed("Variable", items)
	if err != nil {
		return "", err
	}
	return items[idx].Name, nil
}

// variableItems flattens data variables (then coordinates) into picker
// entries, group-qualified the way the helper addresses them.
func variableItems(info *protocol.FileInfo) []ui.SelectItem {
	var items []ui.SelectItem
	add := func(group string, v protocol.VariableInfo, kind string) {
		name := v.Name
		if group != "" && group != "/" {
			name = group + "/" + v.Name
		}
		desc := v.Dtype
		if len(v.Dimensions) > 0 {
			desc += "  (" + strings.Join(v.Dimensions, ", ") + ")"
		}
		if kind != "" {
			desc += "  " + kind
		}
		items = append(items, ui.SelectItem{Name: name, Description: desc})
	}

	for _, g := range info.Groups() {
		for _, v := range info.Variables[g] {
			add(g, v, "")
		}
	}
	for _, g := range info.Groups() {
		for _, c := range info.Coordinates[g] {
			add(g, c, "coordinate")
		}
	}
	return items
}

// plotFilename derives the image name from the dataset and variable,
// flattening group separators.
func plotFilename(path, variable string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	safe := strings.NewReplacer("/", "_", " ", "_").Replace(strings.Trim(variable, "/"))
	return stem + "_" + safe + ".png"
}
