package ui

import (
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/MateenKhan/tracedraw/pkg/debug"
	"github.com/MateenKhan/tracedraw/pkg/layers"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

// PanelState is the persisted view state of the panel: which containers the
// user has explicitly expanded or collapsed. Stored next to the document in
// a .tracedraw directory so the panel reopens the way it was left.
//
// Only explicit deviations from the default (expanded) are stored; unknown
// ids are ignored on load, so stale entries from deleted groups are harmless.
type PanelState struct {
	Version  int             `json:"version"`
	Expanded map[string]bool `json:"expanded"`
}

// PanelStateVersion is the current schema version for panel persistence.
const PanelStateVersion = 1

const panelStateFileName = "panel-state.json"

// PanelStatePath returns the state file path for a document directory.
func PanelStatePath(docDir string) string {
	return filepath.Join(docDir, ".tracedraw", panelStateFileName)
}

// SavePanelState writes the tree's expand state for later restoration.
// Errors are logged, never surfaced: losing view state must not interrupt
// editing.
func SavePanelState(docDir string, tree *layers.Tree) {
	if docDir == "" {
		return
	}
	state := PanelState{
		Version:  PanelStateVersion,
		Expanded: make(map[string]bool),
	}
	for _, n := range tree.Nodes() {
		if n.ID == tree.RootID() || n.ID == tree.BaseID() {
			continue
		}
		if !n.Expanded {
			state.Expanded[string(n.ID)] = false
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		debug.Log("marshal panel state: %v", err)
		return
	}
	path := PanelStatePath(docDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		debug.Log("create panel state dir: %v", err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		debug.Log("write panel state: %v", err)
	}
}

// LoadPanelState applies persisted expand state to the tree. A missing or
// corrupt file leaves the defaults in place.
func LoadPanelState(docDir string, tree *layers.Tree) {
	if docDir == "" {
		return
	}
	data, err := os.ReadFile(PanelStatePath(docDir))
	if err != nil {
		return
	}
	var state PanelState
	if err := json.Unmarshal(data, &state); err != nil {
		debug.Log("invalid panel state file, using defaults: %v", err)
		return
	}
	for id, expanded := range state.Expanded {
		if n := tree.Get(model.ID(id)); n != nil {
			n.Expanded = expanded
		}
	}
}
