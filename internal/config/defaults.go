package config

// DefaultConfig returns the default configuration values.
func DefaultConfig() *Config {
	return &Config{
		Python: PythonConfig{
			Path:                 "",
			MinVersion:           ">= 3.9",
			ProbeTimeoutSeconds:  5,
			InvokeTimeoutSeconds: 60,
			Env:                  map[string]string{},
		},
		Viewer: ViewerConfig{
			MultiTab:      false,
			MaxFileSizeMB: 512,
		},
		Plot: PlotConfig{
			Style:     "",
			Type:      "auto",
			OutputDir: "",
		},
		Packages: PackagesConfig{
			Required: []string{"xarray", "numpy"},
			Optional: []string{
				"netCDF4",
				"h5netcdf",
				"zarr",
				"cfgrib",
				"rioxarray",
				"scipy",
				"h5py",
				"matplotlib",
			},
		},
		History: HistoryConfig{
			Disabled: false,
			Limit:    50,
			Path:     "",
		},
	}
}

// MergeWithDefaults merges a loaded config with defaults for any missing values.
func MergeWithDefaults(cfg *Config) *Config {
	defaults := DefaultConfig()

	// Python defaults
	if cfg.Python.MinVersion == "" {
		cfg.Python.MinVersion = defaults.Python.MinVersion
	}
	if cfg.Python.ProbeTimeoutSeconds == 0 {
		cfg.Python.ProbeTimeoutSeconds = defaults.Python.ProbeTimeoutSeconds
	}
	if cfg.Python.InvokeTimeoutSeconds == 0 {
		cfg.Python.InvokeTimeoutSeconds = defaults.Python.InvokeTimeoutSeconds
	}

	// Viewer defaults
	if cfg.Viewer.MaxFileSizeMB == 0 {
		cfg.Viewer.MaxFileSizeMB = defaults.Viewer.MaxFileSizeMB
	}

	// Plot defaults
	if cfg.Plot.Type == "" {
		cfg.Plot.Type = defaults.Plot.Type
	}

	// Packages defaults
	if len(cfg.Packages.Required) == 0 {
		cfg.Packages.Required = defaults.Packages.Required
	}
	if len(cfg.Packages.Optional) == 0 {
		cfg.Packages.Optional = defaults.Packages.Optional
	}

	// History defaults
	if cfg.History.Limit == 0 {
		cfg.History.Limit = defaults.History.Limit
	}

	return cfg
}
