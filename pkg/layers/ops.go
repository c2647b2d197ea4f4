package layers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MateenKhan/tracedraw/pkg/debug"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

// CreateNode adds a new empty container at the front of parent's children
// and returns its id. The name is the kind's prefix plus one more than the
// highest numeric suffix currently in use for that prefix, recomputed from
// the tree every time, so deleting and re-creating never collides.
//
// Unknown parents are a no-op (Nil, nil); creating a second root is a
// structural violation.
func (e *Engine) CreateNode(parentID model.ID, kind model.NodeKind) (model.ID, error) {
	if kind == model.KindRoot {
		return model.Nil, ErrStructural
	}
	parent := e.tree.Get(parentID)
	if parent == nil {
		return model.Nil, nil
	}
	n := &model.Node{
		ID:       model.NewID(),
		Kind:     kind,
		Name:     e.nextName(kind),
		Parent:   parentID,
		Expanded: true,
		Visible:  true,
	}
	e.tree.nodes[n.ID] = n
	e.tree.insertChild(parentID, n.ID, 0)
	debug.Log("created %s %q under %s", kind, n.Name, parentID)
	e.commit()
	return n.ID, nil
}

// nextName scans existing node names for the kind's prefix and returns
// prefix-(max+1).
func (e *Engine) nextName(kind model.NodeKind) string {
	prefix := kind.NamePrefix() + "-"
	max := 0
	for _, n := range e.tree.nodes {
		rest, ok := strings.CutPrefix(n.Name, prefix)
		if !ok {
			continue
		}
		if num, err := strconv.Atoi(rest); err == nil && num > max {
			max = num
		}
	}
	return fmt.Sprintf("%s%d", prefix, max+1)
}

// DeleteNode removes a container, its descendant containers, and every leaf
// living in the deleted subtree (removed through the canvas). Deleting the
// root or the base group is a structural violation; unknown ids are a no-op.
func (e *Engine) DeleteNode(id model.ID) error {
	if id == e.tree.RootID() || id == e.tree.BaseID() {
		return ErrStructural
	}
	n := e.tree.Get(id)
	if n == nil {
		return nil
	}

	doomed := e.containerSet(id)
	for _, leaf := range e.canvas.EnumerateLeaves() {
		if _, gone := doomed[leaf.Container]; gone {
			_ = e.canvas.RemoveLeaf(leaf.ID)
			delete(e.selection, leaf.ID)
			delete(e.ownLocked, leaf.ID)
			delete(e.ownVisible, leaf.ID)
		}
	}
	e.tree.removeChild(n.Parent, id)
	for dead := range doomed {
		delete(e.tree.nodes, dead)
		delete(e.selection, dead)
	}
	debug.Log("deleted %s and %d descendants", id, len(doomed)-1)
	e.commit()
	return nil
}

// RenameNode sets a container's display name. The root keeps its structural
// name; renaming it is rejected. Unknown ids are a no-op.
func (e *Engine) RenameNode(id model.ID, name string) error {
	if id == e.tree.RootID() {
		return ErrStructural
	}
	n := e.tree.Get(id)
	if n == nil {
		return nil
	}
	n.Name = name
	e.commitViewOnly()
	return nil
}

// ToggleExpand flips a container's expand flag. View-only: the paint order
// is unaffected, so no z-order push happens.
func (e *Engine) ToggleExpand(id model.ID) {
	if n := e.tree.Get(id); n != nil {
		n.Expanded = !n.Expanded
	}
}

// SetExpanded sets a container's expand flag directly.
func (e *Engine) SetExpanded(id model.ID, expanded bool) {
	if n := e.tree.Get(id); n != nil {
		n.Expanded = expanded
	}
}

// MoveDirection selects the MoveSibling direction.
type MoveDirection int

const (
	// MoveUp swaps the node with the sibling above it.
	MoveUp MoveDirection = iota
	// MoveDown swaps the node with the sibling below it.
	MoveDown
)

// MoveSibling swaps a node with its immediate neighbor in the parent's
// children list. A no-op at either end, for the root/base, and for unknown
// ids.
func (e *Engine) MoveSibling(id model.ID, dir MoveDirection) {
	if id == e.tree.RootID() || id == e.tree.BaseID() {
		return
	}
	n := e.tree.Get(id)
	if n == nil {
		return
	}
	siblings := e.tree.Get(n.Parent).Children
	i := e.tree.childIndex(n.Parent, id)
	j := i - 1
	if dir == MoveDown {
		j = i + 1
	}
	if i < 0 || j < 0 || j >= len(siblings) {
		return
	}
	siblings[i], siblings[j] = siblings[j], siblings[i]
	e.commit()
}

// Group wraps the current selection in a new group. The group is created
// where the first selected item used to be: same parent, same sibling slot.
// Selected containers are reparented into it preserving their relative
// order; selected leaves are reassigned to it. The root and base are skipped
// if present in the selection. Afterwards the selection is just the new
// group.
//
// Returns the new group's id, or Nil if nothing groupable was selected.
func (e *Engine) Group(selected []model.ID) (model.ID, error) {
	flat := e.Flatten(FlattenOptions{IgnoreCollapse: true})

	// Keep only live, groupable ids, in flattened (visual) order. Items
	// whose ancestor is also selected travel with their subtree and are
	// not reparented individually.
	var nodes, leaves []model.ID
	var first FlatItem
	found := false
	for _, it := range flat {
		if !contains(selected, it.ID) {
			continue
		}
		if it.Kind == FlatNode {
			if it.ID == e.tree.RootID() || it.ID == e.tree.BaseID() {
				continue
			}
			if e.anySelectedAncestor(selected, it.ID) {
				continue
			}
			nodes = append(nodes, it.ID)
		} else {
			if contains(selected, it.Parent) || e.anySelectedAncestor(selected, it.Parent) {
				continue
			}
			leaves = append(leaves, it.ID)
		}
		if !found {
			first = it
			found = true
		}
	}
	if !found {
		return model.Nil, nil
	}

	// The new group takes the first item's former slot.
	var parentID model.ID
	var slot int
	if first.Kind == FlatNode {
		parentID = e.tree.Parent(first.ID)
		slot = e.tree.childIndex(parentID, first.ID)
	} else {
		parentID = first.Parent
		slot = 0
	}

	g := &model.Node{
		ID:       model.NewID(),
		Kind:     model.KindGroup,
		Name:     e.nextName(model.KindGroup),
		Parent:   parentID,
		Expanded: true,
		Visible:  true,
	}
	e.tree.nodes[g.ID] = g
	e.tree.insertChild(parentID, g.ID, slot)

	for _, id := range nodes {
		n := e.tree.Get(id)
		e.tree.removeChild(n.Parent, id)
		n.Parent = g.ID
		g.Children = append(g.Children, id)
	}
	for _, id := range leaves {
		_ = e.canvas.SetLeafContainer(id, g.ID)
	}

	e.selection = map[model.ID]struct{}{g.ID: {}}
	debug.Log("grouped %d nodes and %d leaves into %q", len(nodes), len(leaves), g.Name)
	e.commit()
	return g.ID, nil
}

// anySelectedAncestor reports whether any strict ancestor of id is in the
// selection.
func (e *Engine) anySelectedAncestor(selected []model.ID, id model.ID) bool {
	for _, a := range e.tree.Ancestors(id) {
		if contains(selected, a) {
			return true
		}
	}
	return false
}

// Ungroup dissolves each selected group: child containers are promoted into
// the group's parent at the group's former slot, in order; leaves are
// reassigned to the parent; the group itself disappears. The vacated slot is
// filled in place, never appended. Root and base are skipped.
func (e *Engine) Ungroup(selected []model.ID) error {
	changed := false
	// Dissolving a group changes the ancestor chain of everything that was
	// inside it, so the effective lock/visibility of those leaves must be
	// re-pushed to the canvas afterwards.
	affected := make(map[model.ID]struct{})
	for _, id := range selected {
		if id == e.tree.RootID() || id == e.tree.BaseID() {
			continue
		}
		n := e.tree.Get(id)
		if n == nil {
			continue
		}
		parentID := n.Parent
		slot := e.tree.childIndex(parentID, id)
		e.tree.removeChild(parentID, id)

		for i, c := range n.Children {
			child := e.tree.Get(c)
			child.Parent = parentID
			e.tree.insertChild(parentID, c, slot+i)
			for _, sub := range e.tree.Subtree(c) {
				affected[sub] = struct{}{}
			}
		}
		// The root never owns leaves; promoting out of a top-level group
		// hands them to the base group instead.
		leafParent := parentID
		if leafParent == e.tree.RootID() {
			leafParent = e.tree.BaseID()
		}
		for _, leaf := range e.canvas.EnumerateLeaves() {
			if leaf.Container == id {
				_ = e.canvas.SetLeafContainer(leaf.ID, leafParent)
			}
		}
		affected[leafParent] = struct{}{}
		delete(e.tree.nodes, id)
		delete(e.selection, id)
		changed = true
	}
	if changed {
		e.pushLeafFlags(affected)
		e.commit()
	}
	return nil
}

// CloneSubtree deep-copies a container: fresh ids for the container and all
// descendant containers, canvas-duplicated leaves (the canvas applies its
// deterministic positional offset) reassigned to the corresponding clones.
// The clone is inserted as the next sibling of the original. Cloned leaves
// are never shared with the original.
//
// Returns the clone's id; unknown ids are a no-op and the root/base are
// rejected.
func (e *Engine) CloneSubtree(id model.ID) (model.ID, error) {
	if id == e.tree.RootID() || id == e.tree.BaseID() {
		return model.Nil, ErrStructural
	}
	src := e.tree.Get(id)
	if src == nil {
		return model.Nil, nil
	}

	mapping := make(map[model.ID]model.ID) // original -> clone
	var cloneNode func(origID, parentID model.ID) model.ID
	cloneNode = func(origID, parentID model.ID) model.ID {
		orig := e.tree.Get(origID)
		c := orig.Clone()
		c.ID = model.NewID()
		c.Parent = parentID
		c.Children = nil
		e.tree.nodes[c.ID] = c
		mapping[origID] = c.ID
		for _, childID := range orig.Children {
			c.Children = append(c.Children, cloneNode(childID, c.ID))
		}
		return c.ID
	}
	cloneID := cloneNode(id, src.Parent)
	e.tree.Get(cloneID).Name = src.Name + " copy"

	slot := e.tree.childIndex(src.Parent, id)
	e.tree.insertChild(src.Parent, cloneID, slot+1)

	// Duplicate every leaf of the cloned subtree. Enumeration is backmost
	// first, so duplicates keep their relative paint order.
	for _, leaf := range e.canvas.EnumerateLeaves() {
		newContainer, inSubtree := mapping[leaf.Container]
		if !inSubtree {
			continue
		}
		dup, err := e.canvas.DuplicateLeaf(leaf.ID)
		if err != nil {
			continue
		}
		_ = e.canvas.SetLeafContainer(dup.ID, newContainer)
		e.ownLocked[dup.ID] = e.ownLocked[leaf.ID]
		e.ownVisible[dup.ID] = e.ownVisible[leaf.ID]
	}

	debug.Log("cloned %s -> %s (%d containers)", id, cloneID, len(mapping))
	e.commit()
	return cloneID, nil
}

// ToggleLockRecursive flips a container's own lock flag and re-pushes the
// effective lock state of every leaf underneath. Descendant containers keep
// their own flags; their effective state is derived at read time. Locked
// items fall out of the selection.
func (e *Engine) ToggleLockRecursive(id model.ID) {
	n := e.tree.Get(id)
	if n == nil {
		return
	}
	n.Locked = !n.Locked
	e.pushLeafFlags(e.containerSet(id))
	if n.Locked {
		e.pruneLockedSelection()
	}
	e.commitViewOnly()
}

// ToggleLeafLock flips a single leaf's intrinsic lock flag.
func (e *Engine) ToggleLeafLock(id model.ID) {
	leaf, ok := e.leaf(id)
	if !ok {
		return
	}
	e.ownLocked[id] = !e.ownLocked[id]
	_ = e.canvas.SetLeafLocked(id, e.ownLocked[id] || e.tree.EffectiveLocked(leaf.Container))
	if e.ownLocked[id] {
		delete(e.selection, id)
	}
	e.commitViewOnly()
}

// ToggleVisibleRecursive flips a container's own visibility flag and
// re-pushes the effective visibility of every leaf underneath. Symmetric to
// ToggleLockRecursive.
func (e *Engine) ToggleVisibleRecursive(id model.ID) {
	n := e.tree.Get(id)
	if n == nil {
		return
	}
	n.Visible = !n.Visible
	e.pushLeafFlags(e.containerSet(id))
	e.commitViewOnly()
}

// ToggleLeafVisible flips a single leaf's intrinsic visibility flag.
func (e *Engine) ToggleLeafVisible(id model.ID) {
	leaf, ok := e.leaf(id)
	if !ok {
		return
	}
	e.ownVisible[id] = !e.ownVisible[id]
	_ = e.canvas.SetLeafVisible(id, e.ownVisible[id] && e.tree.EffectiveVisible(leaf.Container))
	e.commitViewOnly()
}

// pruneLockedSelection drops every effectively locked item from the
// selection.
func (e *Engine) pruneLockedSelection() {
	for id := range e.selection {
		if e.tree.Exists(id) {
			if e.tree.EffectiveLocked(id) {
				delete(e.selection, id)
			}
			continue
		}
		if e.EffectiveLeafLocked(id) {
			delete(e.selection, id)
		}
	}
}

// commitViewOnly notifies persistence hooks without recomputing the paint
// order (used for flag-only mutations that cannot change leaf order).
func (e *Engine) commitViewOnly() {
	for _, fn := range e.onCommit {
		fn()
	}
}

func contains(ids []model.ID, id model.ID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
