// Package config handles loading and saving td configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/td/config.yaml
//   - Data:    ~/.local/share/td/ (themes, exported snapshots)
//   - State:   ~/.local/state/td/ (recent documents, panel state cache)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Recent represents a recently opened document in the config.
type Recent struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// PanelConfig holds layers-panel preference settings.
type PanelConfig struct {
	IndentStep   float64 `yaml:"indent_step,omitempty"`   // drag units per nesting level
	IndentWidth  int     `yaml:"indent_width,omitempty"`  // columns rendered per nesting level
	Theme        string  `yaml:"theme,omitempty"`         // dark, light
	ShowPaintIdx bool    `yaml:"show_paint_idx,omitempty"` // render paint indices next to leaves
}

// AutosaveConfig controls document autosaving.
type AutosaveConfig struct {
	Enabled  bool `yaml:"enabled,omitempty"`
	DebounceMS int `yaml:"debounce_ms,omitempty"` // quiet period before a save (default 500)
}

// ExportConfig holds export defaults.
type ExportConfig struct {
	Dir    string `yaml:"dir,omitempty"`    // default output directory
	Format string `yaml:"format,omitempty"` // svg, png, both
	Scale  int    `yaml:"scale,omitempty"`  // PNG raster scale (default 1)
}

// Config is the top-level configuration for td.
type Config struct {
	Recents  []Recent       `yaml:"recents,omitempty"`
	Panel    PanelConfig    `yaml:"panel,omitempty"`
	Autosave AutosaveConfig `yaml:"autosave,omitempty"`
	Export   ExportConfig   `yaml:"export,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Panel: PanelConfig{
			IndentStep:  1.0,
			IndentWidth: 2,
			Theme:       "dark",
		},
		Autosave: AutosaveConfig{
			Enabled:    true,
			DebounceMS: 500,
		},
		Export: ExportConfig{
			Format: "svg",
			Scale:  1,
		},
	}
}

// ConfigDir returns the XDG config directory for td.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "td")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "td")
}

// DataDir returns the XDG data directory for td.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "td")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "td")
}

// StateDir returns the XDG state directory for td.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "td")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "td")
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

	if cfg.Panel.IndentStep <= 0 {
		cfg.Panel.IndentStep = 1.0
	}
	if cfg.Panel.IndentWidth <= 0 {
		cfg.Panel.IndentWidth = 2
	}
	if cfg.Autosave.DebounceMS <= 0 {
		cfg.Autosave.DebounceMS = 500
	}
	if cfg.Export.Scale <= 0 {
		cfg.Export.Scale = 1
	}

	// Expand ~ in stored paths.
	for i := range cfg.Recents {
		cfg.Recents[i].Path = expandHome(cfg.Recents[i].Path)
	}
	cfg.Export.Dir = expandHome(cfg.Export.Dir)

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
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

// AddRecent records a document at the front of the recents list, dropping
// duplicates and keeping at most ten entries.
func (c *Config) AddRecent(name, path string) {
	out := []Recent{{Name: name, Path: path}}
	for _, r := range c.Recents {
		if r.Path == path {
			continue
		}
		out = append(out, r)
		if len(out) == 10 {
			break
		}
	}
	c.Recents = out
}

// FindRecent returns the recent entry with the given name, or nil.
func (c Config) FindRecent(name string) *Recent {
	for i := range c.Recents {
		if strings.EqualFold(c.Recents[i].Name, name) {
			return &c.Recents[i]
		}
	}
	return nil
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
