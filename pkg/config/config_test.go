package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Panel.IndentStep != 1.0 {
		t.Errorf("expected indent step 1.0, got %f", cfg.Panel.IndentStep)
	}
	if cfg.Panel.IndentWidth != 2 {
		t.Errorf("expected indent width 2, got %d", cfg.Panel.IndentWidth)
	}
	if cfg.Panel.Theme != "dark" {
		t.Errorf("expected theme 'dark', got %q", cfg.Panel.Theme)
	}
	if !cfg.Autosave.Enabled || cfg.Autosave.DebounceMS != 500 {
		t.Errorf("expected autosave on with 500ms debounce, got %+v", cfg.Autosave)
	}
	if cfg.Export.Format != "svg" || cfg.Export.Scale != 1 {
		t.Errorf("expected svg export at scale 1, got %+v", cfg.Export)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Panel.Theme != "dark" {
		t.Errorf("expected default config, got theme %q", cfg.Panel.Theme)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
recents:
  - name: logo
    path: ~/art/logo.json
  - name: board
    path: /absolute/board.json

panel:
  indent_step: 2.0
  theme: light

autosave:
  enabled: true
  debounce_ms: 250

export:
  dir: ~/art/out
  format: both
  scale: 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Recents) != 2 {
		t.Fatalf("expected 2 recents, got %d", len(cfg.Recents))
	}
	// Paths should have ~ expanded
	home, _ := os.UserHomeDir()
	expectedPath := filepath.Join(home, "art/logo.json")
	if cfg.Recents[0].Path != expectedPath {
		t.Errorf("expected expanded path %q, got %q", expectedPath, cfg.Recents[0].Path)
	}
	if cfg.Recents[1].Path != "/absolute/board.json" {
		t.Errorf("expected absolute path preserved, got %q", cfg.Recents[1].Path)
	}
	if cfg.Export.Dir != filepath.Join(home, "art/out") {
		t.Errorf("expected expanded export dir, got %q", cfg.Export.Dir)
	}

	if cfg.Panel.IndentStep != 2.0 {
		t.Errorf("expected indent_step 2.0, got %f", cfg.Panel.IndentStep)
	}
	if cfg.Panel.Theme != "light" {
		t.Errorf("expected theme 'light', got %q", cfg.Panel.Theme)
	}
	if cfg.Autosave.DebounceMS != 250 {
		t.Errorf("expected debounce_ms 250, got %d", cfg.Autosave.DebounceMS)
	}
	if cfg.Export.Format != "both" || cfg.Export.Scale != 2 {
		t.Errorf("unexpected export config: %+v", cfg.Export)
	}
}

func TestLoadFrom_InvalidValuesFallBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
panel:
  indent_step: -3
export:
  scale: 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Panel.IndentStep != 1.0 {
		t.Errorf("expected indent_step fallback 1.0, got %f", cfg.Panel.IndentStep)
	}
	if cfg.Export.Scale != 1 {
		t.Errorf("expected scale fallback 1, got %d", cfg.Export.Scale)
	}
}

func TestLoadFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := DefaultConfig()
	cfg.Panel.Theme = "light"
	cfg.AddRecent("logo", "/tmp/logo.json")

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Panel.Theme != "light" {
		t.Errorf("round trip lost theme, got %q", loaded.Panel.Theme)
	}
	if len(loaded.Recents) != 1 || loaded.Recents[0].Name != "logo" {
		t.Errorf("round trip lost recents: %+v", loaded.Recents)
	}
}

func TestAddRecentDedupes(t *testing.T) {
	var cfg Config
	cfg.AddRecent("a", "/tmp/a.json")
	cfg.AddRecent("b", "/tmp/b.json")
	cfg.AddRecent("a", "/tmp/a.json")

	if len(cfg.Recents) != 2 {
		t.Fatalf("expected 2 recents, got %d", len(cfg.Recents))
	}
	if cfg.Recents[0].Name != "a" || cfg.Recents[1].Name != "b" {
		t.Errorf("unexpected recents order: %+v", cfg.Recents)
	}
	if cfg.FindRecent("B") == nil {
		t.Error("FindRecent should be case-insensitive")
	}
}

func TestConfigDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	if got := ConfigDir(); got != "/custom/config/td" {
		t.Errorf("ConfigDir = %q, want /custom/config/td", got)
	}
	t.Setenv("XDG_STATE_HOME", "/custom/state")
	if got := StateDir(); got != "/custom/state/td" {
		t.Errorf("StateDir = %q, want /custom/state/td", got)
	}
}
