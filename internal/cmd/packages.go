package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/xrview/xrv/internal/python"
	"github.com/xrview/xrv/internal/ui"
)

var packagesJSON bool

var packagesCmd = &cobra.Command{
	Use:   "packages [name...]",
	Short: "Check Python package availability",
	Long: `Check which Python packages the resolved interpreter can import.

Without arguments the configured required and optional packages are
checked. All names are checked in a single interpreter run.`,
	RunE: runPackages,
}

func init() {
	packagesCmd.Flags().BoolVar(&packagesJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(packagesCmd)
}

func runPackages(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	names := args
	explicit := len(names) > 0
	if !explicit {
		names = append(append([]string{}, cfg.Packages.Required...), cfg.Packages.Optional...)
	}

	required := map[string]bool{}
	for _, name := range cfg.Packages.Required {
		required[name] = true
	}

	var report *python.PackageReport
	fetch := func() error {
		var invErr error
		report, invErr = client.CheckPackages(cmd.Context(), names...)
		return invErr
	}
	if packagesJSON {
		err = fetch()
	} else {
		err = ui.WithSpinner("Checking packages...", fetch)
	}
	if err != nil {
		return reportResolveError(err)
	}

	if packagesJSON {
		availability := make(map[string]bool, len(report.Statuses))
		for _, s := range report.Statuses {
			availability[s.Name] = s.Available
		}
		data, err := json.MarshalIndent(availability, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	ui.Header("Python Packages")

	if explicit {
		renderPackageTable(report.Statuses)
	} else {
		var req, opt []python.PackageStatus
		for _, s := range report.Statuses {
			if required[s.Name] {
				req = append(req, s)
			} else {
				opt = append(opt, s)
			}
		}
		ui.SubHeader("Required")
		renderPackageTable(req)
		ui.SubHeader("Optional")
		renderPackageTable(opt)
	}

	missing := report.Missing()
	if len(missing) == 0 {
		ui.NewLine()
		ui.Success("All packages available")
		return nil
	}

	ui.NewLine()
	ui.Infof("Install missing packages with: pip install %s", strings.Join(missing, " "))

	var requiredMissing []string
	for _, name := range missing {
		if required[name] {
			requiredMissing = append(requiredMissing, name)
		}
	}
	if len(requiredMissing) > 0 {
		return fmt.Errorf("missing required packages: %s", strings.Join(requiredMissing, ", "))
	}
	return nil
}

func renderPackageTable(statuses []python.PackageStatus) {
	table := ui.NewTable([]string{"Package", "Status"})
	for _, s := range statuses {
		if s.Available {
			table.AddColoredRow([]string{s.Name, "✓ installed"},
				[]tablewriter.Colors{{}, ui.TableColor.Green})
		} else {
			table.AddColoredRow([]string{s.Name, "✗ missing"},
				[]tablewriter.Colors{{}, ui.TableColor.Red})
		}
	}
	table.Render()
}
