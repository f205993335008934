package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LocalConfig represents the .xrv.local.yaml configuration file (gitignored).
// This file contains machine/developer-specific overrides, most importantly
// the pinned interpreter path, which is never meaningful on another machine.
type LocalConfig struct {
	Python      LocalPythonConfig `yaml:"python" mapstructure:"python"`
	Preferences PreferencesConfig `yaml:"preferences" mapstructure:"preferences"`
}

// LocalPythonConfig holds local interpreter overrides.
type LocalPythonConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PreferencesConfig holds developer preferences.
type PreferencesConfig struct {
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	Opener  string `yaml:"opener" mapstructure:"opener"`
}

// LocalConfigFilename is the name of the local config file.
const LocalConfigFilename = ".xrv.local.yaml"

// LoadLocal loads the local config from the same directory as the main config.
func LoadLocal(mainConfigPath string) (*LocalConfig, error) {
	dir := filepath.Dir(mainConfigPath)
	localPath := filepath.Join(dir, LocalConfigFilename)

	return LoadLocalFromPath(localPath)
}

// LoadLocalFromPath loads local configuration from a specific path.
func LoadLocalFromPath(localPath string) (*LocalConfig, error) {
	// Return empty config if no local config exists
	if _, err := os.Stat(localPath); os.IsNotExist(err) {
		return &LocalConfig{}, nil
	}

	v := viper.New()
	v.SetConfigFile(localPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read local config file: %w", err)
	}

	var cfg LocalConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse local config file: %w", err)
	}

	return &cfg, nil
}

// FindLocalConfigFile finds the local config file in the same directory as the main config.
func FindLocalConfigFile() (string, error) {
	mainConfigPath, err := FindConfigFile()
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(mainConfigPath)
	return filepath.Join(dir, LocalConfigFilename), nil
}

// LocalConfigExists checks if a .xrv.local.yaml file exists.
func LocalConfigExists() bool {
	localPath, err := FindLocalConfigFile()
	if err != nil {
		return false
	}
	_, err = os.Stat(localPath)
	return err == nil
}

// MergeLocalConfig merges the local config into the main config.
// Local config values override main config values.
func MergeLocalConfig(main *Config, local *LocalConfig) *Config {
	if local == nil {
		return main
	}

	if local.Python.Path != "" {
		main.Python.Path = local.Python.Path
	}

	main.Preferences = local.Preferences

	return main
}

// LoadWithLocal loads both the main config and local config, merging them.
func LoadWithLocal() (*Config, error) {
	mainConfigPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return LoadWithLocalFromPath(mainConfigPath)
}

// LoadWithLocalFromPath loads a specific config file plus the local
// overrides sitting next to it.
func LoadWithLocalFromPath(configPath string) (*Config, error) {
	cfg, err := LoadFromPath(configPath)
	if err != nil {
		return nil, err
	}

	local, err := LoadLocal(configPath)
	if err != nil {
		// Non-fatal: continue with main config only
		return cfg, nil
	}

	return MergeLocalConfig(cfg, local), nil
}

// GenerateLocalConfigContent generates the content for .xrv.local.yaml.
func GenerateLocalConfigContent() string {
	return `# .xrv.local.yaml - Local/developer-specific configuration (GITIGNORED)
# This file contains settings that should NOT be committed to git.
# Each developer can have their own copy with personal preferences.

# Pinned interpreter (absolute path on this machine)
# python:
#   path: "/home/me/.venvs/science/bin/python"

# Developer preferences
preferences:
  verbose: false            # Show verbose output for all commands
  # opener: "firefox"       # Program used to open plots and HTML reports
`
}

// WriteLocalConfig writes a new local config file.
func WriteLocalConfig(path string) error {
	content := GenerateLocalConfigContent()
	return os.WriteFile(path, []byte(content), 0644)
}

// AddToGitignore adds .xrv.local.yaml to .gitignore if not already present.
func AddToGitignore(projectRoot string) error {
	gitignorePath := filepath.Join(projectRoot, ".gitignore")

	// Read existing content
	content := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		content = string(data)
	}

	// Check if already present
	if contains(content, LocalConfigFilename) {
		return nil
	}

	newContent := content
	if newContent != "" && !endsWithNewline(newContent) {
		newContent += "\n"
	}
	newContent += "\n# xrv local config (developer-specific)\n"
	newContent += LocalConfigFilename + "\n"

	return os.WriteFile(gitignorePath, []byte(newContent), 0644)
}

// UpdateLocalPythonPath writes the pinned interpreter path into
// .xrv.local.yaml, preserving whatever else the file holds.
func UpdateLocalPythonPath(localPath, pythonPath string) error {
	cfg := make(map[string]interface{})

	if data, err := os.ReadFile(localPath); err == nil && strings.TrimSpace(string(data)) != "" {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return err
		}
	}

	pythonSection, ok := cfg["python"].(map[string]interface{})
	if !ok {
		pythonSection = make(map[string]interface{})
		cfg["python"] = pythonSection
	}

	pythonSection["path"] = pythonPath

	newData, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(localPath, newData, 0644)
}

// ClearLocalPythonPath removes python.path from .xrv.local.yaml.
func ClearLocalPythonPath(localPath string) error {
	cfg := make(map[string]interface{})

	if data, err := os.ReadFile(localPath); err == nil && strings.TrimSpace(string(data)) != "" {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return err
		}
	}

	pythonSection, ok := cfg["python"].(map[string]interface{})
	if !ok {
		return nil
	}

	delete(pythonSection, "path")
	if len(pythonSection) == 0 {
		delete(cfg, "python")
	}

	newData, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(localPath, newData, 0644)
}

// contains checks if a string contains a substring (line-aware).
func contains(content, substr string) bool {
	lines := splitLines(content)
	for _, line := range lines {
		if line == substr {
			return true
		}
	}
	return false
}

// splitLines splits content into lines.
func splitLines(content string) []string {
	var lines []string
	current := ""
	for _, c := range content {
		if c == '\n' {
			lines = append(lines, current)
			current = ""
		} else {
			current += string(c)
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// endsWithNewline checks if content ends with a newline.
func endsWithNewline(content string) bool {
	return len(content) > 0 && content[len(content)-1] == '\n'
}
