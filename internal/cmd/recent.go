package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/ui"
)

var recentClear bool

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently opened datasets",
	Long: `List datasets opened in the viewer, most recent first.

The list lives in a small local database under the data directory; it
never leaves this machine.`,
	Args: cobra.NoArgs,
	RunE: runRecent,
}

func init() {
	recentCmd.Flags().BoolVar(&recentClear, "clear", false, "forget all recently opened datasets")
	rootCmd.AddCommand(recentCmd)
}

func runRecent(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	if cfg.History.Disabled {
		ui.Info("History is disabled in .xrv.yaml")
		return nil
	}

	store := openHistory(cfg)
	if store == nil {
		return fmt.Errorf("history store unavailable (see 'xrv logs')")
	}
	defer store.Close()

	if recentClear {
		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		ui.Success("Cleared the recently opened list")
		return nil
	}

	entries, err := store.Recent(cmd.Context(), cfg.History.Limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		ui.Info("Nothing opened yet. Try: xrv open <file>")
		return nil
	}

	ui.Header("Recently Opened")

	table := ui.NewTable([]string{"Dataset", "Opens", "Last Opened"})
	for _, e := range entries {
		table.AddRow([]string{
			e.Path,
			fmt.Sprintf("%d", e.OpenCount),
			relativeTime(e.LastOpened),
		})
	}
	table.Render()

	fmt.Printf("\nTotal: %d datasets\n", len(entries))
	return nil
}

// relativeTime renders a compact "how long ago" label.
func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}
