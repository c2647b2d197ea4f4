package layers

import "github.com/MateenKhan/tracedraw/pkg/model"

// Select updates the selection for a click on id. Selecting a container
// selects its entire subtree (locked leaves excluded) and expands it;
// clicking an already selected item toggles it off. Non-additive selection
// replaces the previous selection first. Effectively locked items cannot be
// selected.
func (e *Engine) Select(id model.ID, additive bool) {
	if e.tree.Exists(id) {
		if e.tree.EffectiveLocked(id) {
			return
		}
		deselect := e.IsSelected(id)
		if !additive && !deselect {
			e.selection = make(map[model.ID]struct{})
		}
		e.selectSubtree(id, !deselect)
		return
	}

	if _, ok := e.leaf(id); !ok {
		return
	}
	if e.EffectiveLeafLocked(id) {
		return
	}
	if _, selected := e.selection[id]; selected {
		delete(e.selection, id)
		return
	}
	if !additive {
		e.selection = make(map[model.ID]struct{})
	}
	e.selection[id] = struct{}{}
}

// selectSubtree adds or removes a container and everything under it. When
// adding, containers along the way are expanded so the selection is visible;
// locked leaves stay out.
func (e *Engine) selectSubtree(id model.ID, add bool) {
	members := e.containerSet(id)
	e.tree.Walk(id, func(n *model.Node) {
		if add {
			e.selection[n.ID] = struct{}{}
			n.Expanded = true
		} else {
			delete(e.selection, n.ID)
		}
	})
	for _, leaf := range e.canvas.EnumerateLeaves() {
		if _, in := members[leaf.Container]; !in {
			continue
		}
		if add {
			if !e.EffectiveLeafLocked(leaf.ID) {
				e.selection[leaf.ID] = struct{}{}
			}
		} else {
			delete(e.selection, leaf.ID)
		}
	}
}

// IsSelected reports whether id is in the current selection.
func (e *Engine) IsSelected(id model.ID) bool {
	_, ok := e.selection[id]
	return ok
}

// Selection returns the selected ids in flattened (visual) order, collapsed
// subtrees included.
func (e *Engine) Selection() []model.ID {
	var out []model.ID
	for _, it := range e.Flatten(FlattenOptions{IgnoreCollapse: true}) {
		if _, ok := e.selection[it.ID]; ok {
			out = append(out, it.ID)
		}
	}
	return out
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	e.selection = make(map[model.ID]struct{})
}
