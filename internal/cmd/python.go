package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/config"
	"github.com/xrview/xrv/internal/python"
	"github.com/xrview/xrv/internal/ui"
)

var pythonClear bool

var pythonCmd = &cobra.Command{
	Use:   "python",
	Short: "Manage the Python interpreter xrv uses",
	Long: `Show, choose or re-discover the interpreter that runs the helper.

Discovery order: explicit pin (config or --python), the XRV_PYTHON
environment variable, a project virtualenv, then python3/python on PATH.`,
}

var pythonShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved interpreter",
	Args:  cobra.NoArgs,
	RunE:  runPythonShow,
}

var pythonSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Pick an interpreter and pin it in .xrv.local.yaml",
	Args:  cobra.NoArgs,
	RunE:  runPythonSelect,
}

var pythonRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Drop the cached interpreter and discover again",
	Args:  cobra.NoArgs,
	RunE:  runPythonRefresh,
}

func init() {
	pythonSelectCmd.Flags().BoolVar(&pythonClear, "clear", false, "remove the pin and go back to discovery")
	pythonCmd.AddCommand(pythonShowCmd)
	pythonCmd.AddCommand(pythonSelectCmd)
	pythonCmd.AddCommand(pythonRefreshCmd)
	rootCmd.AddCommand(pythonCmd)
}

func runPythonShow(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}

	var handle *python.Handle
	err = ui.WithSpinner("Resolving interpreter...", func() error {
		var rErr error
		handle, rErr = resolver.Resolve(cmd.Context())
		return rErr
	})
	if err != nil {
		listCandidates(resolver)
		return reportResolveError(err)
	}

	printHandle(handle)
	return nil
}

func runPythonSelect(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	localPath := filepath.Join(cfg.ProjectRoot(), config.LocalConfigFilename)

	if pythonClear {
		if err := config.ClearLocalPythonPath(localPath); err != nil {
			return err
		}
		ui.Success("Removed the interpreter pin; discovery is back on")
		return nil
	}

	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}

	type probed struct {
		source string
		handle *python.Handle
	}
	var working []probed
	err = ui.WithSpinner("Probing candidates...", func() error {
		seen := map[string]bool{}
		for _, c := range resolver.Candidates() {
			h, probeErr := resolver.Probe(cmd.Context(), c.Path)
			if probeErr != nil {
				continue
			}
			if seen[h.Path] {
				continue
			}
			seen[h.Path] = true
			working = append(working, probed{source: c.Source, handle: h})
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(working) == 0 {
		ui.Error("No usable interpreter found")
		ui.Infof("Install Python %s or newer, or pass one with --python", cfg.Python.MinVersion)
		return fmt.Errorf("no usable interpreter found")
	}

	items := make([]ui.SelectItem, len(working))
	for i, p := range working {
		items[i] = ui.SelectItem{
			Name:        p.handle.Path,
			Description: fmt.Sprintf("Python %s (%s)", p.handle.Version, p.source),
		}
	}

	idx, err := ui.PromptSelectDetailed("Interpreter", items)
	if err != nil {
		return err
	}
	chosen := working[idx].handle

	if err := config.UpdateLocalPythonPath(localPath, chosen.Path); err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("Pinned Python %s at %s", chosen.Version, chosen.Path))
	ui.Infof("Written to %s", localPath)

	// The pin is machine-specific and must stay out of version control.
	if err := config.AddToGitignore(cfg.ProjectRoot()); err == nil {
		ui.Info("Ensured .xrv.local.yaml is gitignored")
	}
	return nil
}

func runPythonRefresh(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}

	var handle *python.Handle
	err = ui.WithSpinner("Rediscovering interpreter...", func() error {
		var rErr error
		handle, rErr = resolver.ForceRefresh(cmd.Context())
		return rErr
	})
	if err != nil {
		listCandidates(resolver)
		return reportResolveError(err)
	}

	ui.Success("Interpreter rediscovered")
	printHandle(handle)
	return nil
}

func printHandle(h *python.Handle) {
	ui.Header("Python Interpreter")
	ui.KeyValue("Path", h.Path)
	ui.KeyValue("Version", h.Version)
	if h.Prefix != "" {
		ui.KeyValue("Prefix", h.Prefix)
	}
	if h.Source != "" {
		ui.KeyValue("Source", h.Source)
	}
}

func listCandidates(resolver *python.Resolver) {
	candidates := resolver.Candidates()
	if len(candidates) == 0 {
		return
	}
	ui.SubHeader("Candidates Tried")
	for _, c := range candidates {
		ui.List(fmt.Sprintf("%s (%s)", c.Path, c.Source))
	}
}
