// Package config handles loading and managing xrv configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the .xrv.yaml configuration file.
type Config struct {
	Python   PythonConfig   `yaml:"python" mapstructure:"python"`
	Viewer   ViewerConfig   `yaml:"viewer" mapstructure:"viewer"`
	Plot     PlotConfig     `yaml:"plot" mapstructure:"plot"`
	Packages PackagesConfig `yaml:"packages" mapstructure:"packages"`
	History  HistoryConfig  `yaml:"history" mapstructure:"history"`

	// Preferences from .xrv.local.yaml (merged at runtime)
	Preferences PreferencesConfig `yaml:"-" mapstructure:"-"`

	// Internal: path to the config file
	configPath string
}

// PythonConfig holds interpreter discovery and invocation settings.
type PythonConfig struct {
	// Path pins the interpreter; empty means discover one.
	Path string `yaml:"path" mapstructure:"path"`
	// MinVersion is a semver constraint the probed interpreter must
	// satisfy, e.g. ">= 3.9".
	MinVersion           string            `yaml:"min_version" mapstructure:"min_version"`
	ProbeTimeoutSeconds  int               `yaml:"probe_timeout_seconds" mapstructure:"probe_timeout_seconds"`
	InvokeTimeoutSeconds int               `yaml:"invoke_timeout_seconds" mapstructure:"invoke_timeout_seconds"`
	// Env entries are added to every helper invocation.
	Env map[string]string `yaml:"env" mapstructure:"env"`
}

// ViewerConfig holds interactive viewer settings.
type ViewerConfig struct {
	// MultiTab allows the same dataset to be opened in several tabs at
	// once; the default focuses the existing tab instead.
	MultiTab      bool `yaml:"multi_tab" mapstructure:"multi_tab"`
	MaxFileSizeMB int  `yaml:"max_file_size_mb" mapstructure:"max_file_size_mb"`
}

// PlotConfig holds plotting defaults.
type PlotConfig struct {
	Style     string `yaml:"style" mapstructure:"style"`
	Type      string `yaml:"type" mapstructure:"type"` // auto, line, pcolormesh, hist
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// PackagesConfig lists the Python packages xrv cares about.
type PackagesConfig struct {
	Required []string `yaml:"required" mapstructure:"required"`
	Optional []string `yaml:"optional" mapstructure:"optional"`
}

// HistoryConfig holds recently-opened tracking settings.
type HistoryConfig struct {
	Disabled bool   `yaml:"disabled" mapstructure:"disabled"`
	Limit    int    `yaml:"limit" mapstructure:"limit"`
	Path     string `yaml:"path" mapstructure:"path"`
}

// Load finds and loads .xrv.yaml from current or parent directories.
func Load() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads configuration from a specific path.
func LoadFromPath(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Viper lowercases every key it stores, but environment variable
	// names are case sensitive. The env block is re-read verbatim.
	if len(cfg.Python.Env) > 0 {
		if env := readEnvBlock(configPath); env != nil {
			cfg.Python.Env = env
		}
	}

	cfg.configPath = configPath
	return MergeWithDefaults(&cfg), nil
}

// readEnvBlock parses just python.env from the raw file, preserving the
// original key case. Returns nil on any failure; the caller keeps the
// viper-parsed map.
func readEnvBlock(configPath string) map[string]string {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil
	}

	var doc struct {
		Python struct {
			Env map[string]string `yaml:"env"`
		} `yaml:"python"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil
	}
	return doc.Python.Env
}

// LoadOrDefault tries to load config with local overrides, returns
// defaults if no config file exists.
func LoadOrDefault() *Config {
	cfg, err := LoadWithLocal()
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// FindConfigFile walks up the directory tree looking for .xrv.yaml.
func FindConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	for {
		configPath := filepath.Join(dir, ".xrv.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		// Also check for .xrv.yml
		configPath = filepath.Join(dir, ".xrv.yml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf(".xrv.yaml not found (searched from current directory to root)")
		}
		dir = parent
	}
}

// ConfigPath returns the path to the loaded config file.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// ProjectRoot returns the directory containing .xrv.yaml.
func (c *Config) ProjectRoot() string {
	if c.configPath == "" {
		// Fall back to current directory
		dir, _ := os.Getwd()
		return dir
	}
	return filepath.Dir(c.configPath)
}

// Exists checks if a .xrv.yaml file exists in the current or parent directories.
func Exists() bool {
	_, err := FindConfigFile()
	return err == nil
}

// ProbeTimeout returns the interpreter probe deadline.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Python.ProbeTimeoutSeconds) * time.Second
}

// InvokeTimeout returns the helper invocation deadline.
func (c *Config) InvokeTimeout() time.Duration {
	return time.Duration(c.Python.InvokeTimeoutSeconds) * time.Second
}

// MaxFileBytes returns the open-size threshold in bytes. Zero disables
// the check.
func (c *Config) MaxFileBytes() int64 {
	return int64(c.Viewer.MaxFileSizeMB) * 1024 * 1024
}

// HistoryPath returns the path of the recently-opened database.
func (c *Config) HistoryPath() string {
	if c.History.Path != "" {
		return c.History.Path
	}
	return filepath.Join(DataDir(), "history.db")
}

// PlotOutputDir returns the directory plots are written to. Empty means
// the current directory.
func (c *Config) PlotOutputDir() string {
	return c.Plot.OutputDir
}

// IsVerbose returns whether verbose mode is enabled in preferences.
func (c *Config) IsVerbose() bool {
	return c.Preferences.Verbose
}

// GetOpener returns the preferred program for opening generated files.
func (c *Config) GetOpener() string {
	if c.Preferences.Opener != "" {
		return c.Preferences.Opener
	}
	if _, err := os.Stat("/usr/bin/open"); err == nil {
		return "open"
	}
	return "xdg-open"
}

// DataDir returns the directory for xrv's own state (history database,
// debug log). Honors XDG_DATA_HOME.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "xrv")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "xrv")
	}
	return filepath.Join(home, ".local", "share", "xrv")
}
