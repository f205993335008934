package cmd

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/config"
	"github.com/xrview/xrv/internal/diag"
	"github.com/xrview/xrv/internal/python"
	"github.com/xrview/xrv/internal/session"
	"github.com/xrview/xrv/internal/viewer"
)

var openForce bool

var openCmd = &cobra.Command{
	Use:   "open <file>...",
	Short: "Browse datasets in the interactive viewer",
	Long: `Open one or more datasets in the terminal viewer.

Each dataset gets a tab. Opening a path that is already open focuses the
existing tab unless viewer.multi_tab is enabled in .xrv.yaml.

Keys: j/k move, tab switches datasets, enter plots the selected variable,
r refreshes, x closes the tab, q quits.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOpen,
}

func init() {
	openCmd.Flags().BoolVarP(&openForce, "force", "f", false, "skip the file size guard")
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	store := openHistory(cfg)
	if store != nil {
		defer store.Close()
	}

	regOpts := session.RegistryOptions{
		Fetcher:      client,
		MultiTab:     cfg.Viewer.MultiTab,
		MaxFileBytes: cfg.MaxFileBytes(),
	}
	if store != nil {
		regOpts.Recorder = store
	}
	registry := session.NewRegistry(regOpts)
	defer registry.Close()

	for _, path := range args {
		if _, _, err := registry.OpenOrFocus(path, session.OpenOptions{Force: openForce}); err != nil {
			return err
		}
	}

	// A new venv or an edited config invalidates the cached interpreter,
	// so the next refresh rediscovers instead of reusing a stale handle.
	watchPaths := []string{
		cfg.ConfigPath(),
		filepath.Join(cfg.ProjectRoot(), config.LocalConfigFilename),
		filepath.Join(cfg.ProjectRoot(), ".venv"),
	}
	if watcher, err := python.NewWatcher(client.Resolver(), watchPaths...); err == nil {
		defer watcher.Close()
	} else {
		diag.L().Warn("environment watcher unavailable", "err", err)
	}

	model := viewer.NewModel(registry, python.PlotOptions{
		Type:  cfg.Plot.Type,
		Style: cfg.Plot.Style,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("viewer failed: %w", err)
	}
	return nil
}
