package layers

import (
	"github.com/MateenKhan/tracedraw/pkg/debug"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

// DefaultIndentStep is the horizontal distance, in drag units, that equals
// one nesting level. The TUI maps two terminal columns to one unit; a mouse
// frontend would map pixels.
const DefaultIndentStep = 1.0

// Engine ties the container tree to a canvas and keeps both sides
// consistent: every committed mutation reflattens the tree and pushes the
// resulting paint order back to the canvas.
//
// The engine additionally owns the leaves' intrinsic lock/visibility flags.
// The canvas-visible flags are always the effective values (intrinsic flag
// combined with the ancestor chain), so the renderer never has to understand
// the tree.
type Engine struct {
	tree   *Tree
	canvas Canvas

	selection map[model.ID]struct{}

	// Intrinsic per-leaf flags, as set directly on the leaf. The canvas
	// carries the effective values instead, so these are tracked here.
	ownLocked  map[model.ID]bool
	ownVisible map[model.ID]bool

	// IndentStep is the drag unit for one nesting level.
	IndentStep float64

	drag     *DragSession
	onCommit []func()
}

// NewEngine wires a tree to a canvas. Orphaned leaves (container missing or
// unknown) are adopted by the base group, then the paint order is pushed so
// both sides start consistent.
func NewEngine(tree *Tree, canvas Canvas) *Engine {
	e := &Engine{
		tree:       tree,
		canvas:     canvas,
		selection:  make(map[model.ID]struct{}),
		ownLocked:  make(map[model.ID]bool),
		ownVisible: make(map[model.ID]bool),
		IndentStep: DefaultIndentStep,
	}
	for _, leaf := range canvas.EnumerateLeaves() {
		e.ownLocked[leaf.ID] = leaf.Locked
		e.ownVisible[leaf.ID] = leaf.Visible
	}
	e.adoptOrphans()
	e.syncZOrder()
	return e
}

// Tree returns the underlying tree store.
func (e *Engine) Tree() *Tree { return e.tree }

// Canvas returns the attached canvas collaborator.
func (e *Engine) Canvas() Canvas { return e.canvas }

// OnCommit registers a hook invoked after every committed mutation, once the
// paint order has been pushed. Persistence collaborators hang off this.
func (e *Engine) OnCommit(fn func()) {
	e.onCommit = append(e.onCommit, fn)
}

// commit finishes a successful structural mutation: resynchronize the paint
// order, then notify commit hooks.
func (e *Engine) commit() {
	e.syncZOrder()
	for _, fn := range e.onCommit {
		fn()
	}
}

// adoptOrphans reassigns leaves whose container no longer exists (or is the
// root, which cannot own leaves) to the base group.
func (e *Engine) adoptOrphans() {
	base := e.tree.BaseID()
	for _, leaf := range e.canvas.EnumerateLeaves() {
		n := e.tree.Get(leaf.Container)
		if n == nil || n.Kind == model.KindRoot {
			debug.Log("adopting orphan leaf %s into base", leaf.ID)
			_ = e.canvas.SetLeafContainer(leaf.ID, base)
		}
	}
}

// HandleCanvasChange reconciles the engine after a canvas-side notification.
// Added leaves get their flags registered and, if unassigned, are adopted by
// the base group; removed leaves are dropped from selection and bookkeeping.
// Every notification ends with a full paint-order resync.
func (e *Engine) HandleCanvasChange(c Change) {
	switch c.Kind {
	case LeafAdded:
		if leaf, ok := e.leaf(c.ID); ok {
			e.ownLocked[c.ID] = leaf.Locked
			e.ownVisible[c.ID] = leaf.Visible
			if n := e.tree.Get(leaf.Container); n == nil || n.Kind == model.KindRoot {
				_ = e.canvas.SetLeafContainer(c.ID, e.tree.BaseID())
			}
		}
	case LeafRemoved:
		delete(e.selection, c.ID)
		delete(e.ownLocked, c.ID)
		delete(e.ownVisible, c.ID)
	case LeafModified:
		// Renderer-owned fields changed; nothing to patch, but the paint
		// order is re-pushed below in case the canvas reshuffled.
	}
	e.syncZOrder()
}

// leaf looks up a single leaf by id in the canvas enumeration.
func (e *Engine) leaf(id model.ID) (LeafInfo, bool) {
	for _, l := range e.canvas.EnumerateLeaves() {
		if l.ID == id {
			return l, true
		}
	}
	return LeafInfo{}, false
}

// leavesByContainer groups the canvas enumeration by container. Within a
// container, leaves are ordered front-most first (descending paint index),
// matching the panel's nearest-to-top-first convention.
func (e *Engine) leavesByContainer() map[model.ID][]LeafInfo {
	byC := make(map[model.ID][]LeafInfo)
	all := e.canvas.EnumerateLeaves()
	// Enumeration is ascending (backmost first); walk it backwards so each
	// container's slice comes out front-most first.
	for i := len(all) - 1; i >= 0; i-- {
		l := all[i]
		byC[l.Container] = append(byC[l.Container], l)
	}
	return byC
}

// EffectiveLeafLocked reports whether a leaf is locked, intrinsically or via
// any ancestor group.
func (e *Engine) EffectiveLeafLocked(id model.ID) bool {
	leaf, ok := e.leaf(id)
	if !ok {
		return false
	}
	return e.ownLocked[id] || e.tree.EffectiveLocked(leaf.Container)
}

// EffectiveLeafVisible reports whether a leaf is visible, intrinsically and
// via its whole ancestor chain.
func (e *Engine) EffectiveLeafVisible(id model.ID) bool {
	leaf, ok := e.leaf(id)
	if !ok {
		return false
	}
	return e.ownVisible[id] && e.tree.EffectiveVisible(leaf.Container)
}

// pushLeafFlags writes the effective lock/visibility of every leaf in the
// given containers to the canvas. Nil containers means all leaves.
func (e *Engine) pushLeafFlags(containers map[model.ID]struct{}) {
	for _, leaf := range e.canvas.EnumerateLeaves() {
		if containers != nil {
			if _, ok := containers[leaf.Container]; !ok {
				continue
			}
		}
		locked := e.ownLocked[leaf.ID] || e.tree.EffectiveLocked(leaf.Container)
		visible := e.ownVisible[leaf.ID] && e.tree.EffectiveVisible(leaf.Container)
		_ = e.canvas.SetLeafLocked(leaf.ID, locked)
		_ = e.canvas.SetLeafVisible(leaf.ID, visible)
	}
}

// containerSet returns id's subtree as a set, for membership checks.
func (e *Engine) containerSet(id model.ID) map[model.ID]struct{} {
	set := make(map[model.ID]struct{})
	for _, n := range e.tree.Subtree(id) {
		set[n] = struct{}{}
	}
	return set
}
