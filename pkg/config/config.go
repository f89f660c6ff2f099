// Package config handles loading and saving clusterboard configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config: ~/.config/clusterboard/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// View names accepted by ui.default_view.
var ViewNames = []string{"overview", "metrics", "visualization", "insights"}

// ExportFormats lists the accepted export.formats values.
var ExportFormats = []string{"csv", "svg", "png", "markdown", "sqlite"}

// Top-N bounds for the Insights view.
const (
	MinTopN     = 5
	MaxTopN     = 20
	DefaultTopN = 5
)

// UIConfig holds UI preference settings.
type UIConfig struct {
	DefaultView string `yaml:"default_view,omitempty"` // overview, metrics, visualization, insights
	DefaultTopN int    `yaml:"default_top_n,omitempty"`
}

// ExportConfig controls where and what the exporters write.
type ExportConfig struct {
	Dir     string   `yaml:"dir,omitempty"`
	Formats []string `yaml:"formats,omitempty"` // any of csv, svg, png, markdown, sqlite
}

// Config is the top-level configuration.
type Config struct {
	Artifact string       `yaml:"artifact,omitempty"`
	Watch    *bool        `yaml:"watch,omitempty"`
	UI       UIConfig     `yaml:"ui,omitempty"`
	Export   ExportConfig `yaml:"export,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UI: UIConfig{
			DefaultView: "overview",
			DefaultTopN: DefaultTopN,
		},
		Export: ExportConfig{
			Dir:     ".",
			Formats: slices.Clone(ExportFormats),
		},
	}
}

// WatchEnabled reports whether the artifact watcher should run (default on).
func (c Config) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

// ConfigDir returns the XDG config directory.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "clusterboard")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "clusterboard")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Artifact = expandHome(cfg.Artifact)
	cfg.Export.Dir = expandHome(cfg.Export.Dir)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate rejects values the UI cannot represent.
func (c Config) Validate() error {
	if !isViewName(c.UI.DefaultView) {
		return fmt.Errorf("ui.default_view %q: want one of %s", c.UI.DefaultView, strings.Join(ViewNames, ", "))
	}
	if c.UI.DefaultTopN < MinTopN || c.UI.DefaultTopN > MaxTopN {
		return fmt.Errorf("ui.default_top_n %d: want %d-%d", c.UI.DefaultTopN, MinTopN, MaxTopN)
	}
	for _, f := range c.Export.Formats {
		if !slices.Contains(ExportFormats, f) {
			return fmt.Errorf("export.formats: unknown format %q", f)
		}
	}
	return nil
}

// HasFormat reports whether the export format is enabled.
func (c Config) HasFormat(format string) bool {
	return slices.Contains(c.Export.Formats, format)
}

func (c *Config) normalize() {
	c.UI.DefaultView = strings.ToLower(strings.TrimSpace(c.UI.DefaultView))
	if c.UI.DefaultView == "" {
		c.UI.DefaultView = "overview"
	}
	if c.UI.DefaultTopN == 0 {
		c.UI.DefaultTopN = DefaultTopN
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "."
	}
	for i, f := range c.Export.Formats {
		c.Export.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
}

func isViewName(name string) bool {
	for _, v := range ViewNames {
		if v == name {
			return true
		}
	}
	return false
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
