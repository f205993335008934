package python

import (
	"context"
	"fmt"

	"github.com/xrview/xrv/internal/protocol"
)

// DefaultRequiredPackages must be importable for xrv to work at all.
var DefaultRequiredPackages = []string{"xarray", "numpy"}

// DefaultOptionalPackages unlock individual formats and plotting.
var DefaultOptionalPackages = []string{
	"netCDF4",
	"h5netcdf",
	"zarr",
	"cfgrib",
	"rioxarray",
	"scipy",
	"h5py",
	"matplotlib",
}

// PackageStatus is one package's availability in the resolved
// environment.
type PackageStatus struct {
	Name      string
	Available bool
}

// PackageReport holds the result of one availability check, in the
// order the packages were requested.
type PackageReport struct {
	Statuses []PackageStatus
}

// Available reports whether the named package was found.
func (r *PackageReport) Available(name string) bool {
	for _, s := range r.Statuses {
		if s.Name == name {
			return s.Available
		}
	}
	return false
}

// Missing returns the names that were not found.
func (r *PackageReport) Missing() []string {
	var missing []string
	for _, s := range r.Statuses {
		if !s.Available {
			missing = append(missing, s.Name)
		}
	}
	return missing
}

// AllAvailable reports whether every checked package was found.
func (r *PackageReport) AllAvailable() bool {
	return len(r.Missing()) == 0
}

// CheckPackages checks every named package in a single helper
// invocation. Batched deliberately: interpreter startup dominates the
// cost, so one call for N packages instead of N calls.
func (c *Client) CheckPackages(ctx context.Context, names ...string) (*PackageReport, error) {
	if len(names) == 0 {
		return &PackageReport{}, nil
	}

	out, err := c.Invoke(ctx, "check-packages", names...)
	if err != nil {
		return nil, err
	}

	switch o := out.(type) {
	case protocol.Success:
		var availability map[string]bool
		if err := o.Decode(&availability); err != nil {
			return nil, fmt.Errorf("failed to decode package report: %w", err)
		}
		report := &PackageReport{Statuses: make([]PackageStatus, 0, len(names))}
		for _, name := range names {
			report.Statuses = append(report.Statuses, PackageStatus{
				Name:      name,
				Available: availability[name],
			})
		}
		return report, nil

	case protocol.ScriptError:
		return nil, fmt.Errorf("package check failed: %s", o.Message)

	case protocol.TransportError:
		return nil, fmt.Errorf("package check failed: %s", o.Summary())

	default:
		return nil, fmt.Errorf("package check failed: unrecognized outcome")
	}
}
