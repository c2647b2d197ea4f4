package layers

import (
	"math"

	"github.com/MateenKhan/tracedraw/pkg/debug"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

// DropPlan is the resolved outcome of a drag position: where the dragged
// item would land if dropped now. Plans are pure previews; nothing mutates
// until EndDrag applies one.
type DropPlan struct {
	// OK reports whether the current position is a legal drop. Illegal
	// positions (cycle, target inside the dragged subtree, no target) leave
	// the plan zeroed.
	OK bool

	// Leaf plans carry the destination container only.
	Leaf      bool
	Container model.ID

	// Node plans carry the destination parent, visual depth, and insertion
	// anchor among the new parent's children.
	Parent model.ID
	Depth  int

	planAnchor
}

// planAnchor pins the insertion point: the dragged node lands adjacent to
// anchor (an existing child of the new parent), after it when after is set.
// A Nil anchor means slot 0.
type planAnchor struct {
	anchor model.ID
	after  bool
}

// DragSession tracks one in-flight drag. The tree is never touched while a
// session is active; UpdateDrag only computes plans.
type DragSession struct {
	active    model.ID
	isLeaf    bool
	origDepth int
	origIndex int
}

// ID returns the dragged item's id.
func (s *DragSession) ID() model.ID { return s.active }

// BeginDrag starts a drag session for a visible row. Only one session may be
// active at a time; the root and base cannot be dragged.
func (e *Engine) BeginDrag(id model.ID) error {
	if e.drag != nil {
		return ErrDragActive
	}
	if id == e.tree.RootID() || id == e.tree.BaseID() {
		return ErrStructural
	}
	flat := e.Flatten(FlattenOptions{})
	i := FlatIndex(flat, id)
	if i < 0 {
		return ErrInvalidDrop
	}
	e.drag = &DragSession{
		active:    id,
		isLeaf:    flat[i].Kind == FlatLeaf,
		origDepth: flat[i].Depth,
		origIndex: i,
	}
	debug.Log("drag begin %s (leaf=%v depth=%d row=%d)", id, e.drag.isLeaf, flat[i].Depth, i)
	return nil
}

// Dragging returns the active session, or nil.
func (e *Engine) Dragging() *DragSession { return e.drag }

// UpdateDrag recomputes the drop preview for the current pointer position:
// overID is the row under the pointer, offset the horizontal displacement in
// drag units since the drag began. Returns the plan and whether a session is
// active.
func (e *Engine) UpdateDrag(overID model.ID, offset float64) (DropPlan, bool) {
	if e.drag == nil {
		return DropPlan{}, false
	}
	return e.plan(overID, offset), true
}

// CancelDrag abandons the session. The tree was never touched, so there is
// nothing to roll back.
func (e *Engine) CancelDrag() {
	e.drag = nil
}

// EndDrag resolves the final plan and applies it atomically: the plan is
// validated first, then the tree mutates, then the paint order is pushed.
// An illegal final position returns ErrInvalidDrop with the tree unchanged.
func (e *Engine) EndDrag(overID model.ID, offset float64) error {
	s := e.drag
	if s == nil {
		return ErrDragActive
	}
	p := e.plan(overID, offset)
	e.drag = nil
	debug.Dump("final drop plan", p)
	if !p.OK {
		return ErrInvalidDrop
	}

	if p.Leaf {
		_ = e.canvas.SetLeafContainer(s.active, p.Container)
		e.SetExpanded(p.Container, true)
		e.pushLeafFlags(map[model.ID]struct{}{p.Container: {}})
		debug.Log("drag end %s -> container %s", s.active, p.Container)
		e.commit()
		return nil
	}

	n := e.tree.Get(s.active)
	oldParent := n.Parent
	oldIndex := e.tree.childIndex(oldParent, s.active)
	e.tree.removeChild(oldParent, s.active)

	index := 0
	if p.anchor != model.Nil {
		index = e.tree.childIndex(p.Parent, p.anchor)
		if index < 0 {
			index = 0
		} else if p.after {
			index++
		}
	}
	if p.Parent == oldParent && index == oldIndex {
		// Landed exactly where it started; reinsert and skip the commit.
		e.tree.insertChild(oldParent, s.active, oldIndex)
		return nil
	}

	e.tree.insertChild(p.Parent, s.active, index)
	n.Parent = p.Parent
	if parent := e.tree.Get(p.Parent); parent != nil {
		parent.Expanded = true
	}
	e.pushLeafFlags(e.containerSet(s.active))
	debug.Log("drag end %s -> parent %s index %d", s.active, p.Parent, index)
	e.commit()
	return nil
}

// plan computes the drop outcome for a pointer position. Leaf drags resolve
// to a container; node drags resolve to a (parent, anchor) pair, with the
// horizontal offset choosing the nesting depth among the legal candidates at
// that vertical position.
func (e *Engine) plan(overID model.ID, offset float64) DropPlan {
	s := e.drag
	if overID == model.Nil {
		return DropPlan{}
	}

	if s.isLeaf {
		if overID == s.active {
			return DropPlan{}
		}
		if n := e.tree.Get(overID); n != nil {
			container := overID
			if n.Kind == model.KindRoot {
				container = e.tree.BaseID()
			}
			return DropPlan{OK: true, Leaf: true, Container: container}
		}
		if container, ok := e.canvas.LeafContainer(overID); ok {
			return DropPlan{OK: true, Leaf: true, Container: container}
		}
		return DropPlan{}
	}

	full := e.Flatten(FlattenOptions{})
	reduced := e.Flatten(FlattenOptions{Exclude: s.active})

	// The row above the insertion point, in the list without the dragged
	// subtree. Dragging downward inserts after the over row, so that row
	// itself sits above the insertion point; dragging upward inserts before
	// it, so the row above is the previous one. Dropping on the dragged row
	// means an in-place horizontal adjustment anchored above the original
	// slot.
	var before *FlatItem
	overIdx := s.origIndex
	if overID == s.active {
		if s.origIndex > 0 {
			before = &full[s.origIndex-1]
		}
	} else {
		p := FlatIndex(reduced, overID)
		if p < 0 {
			// Target sits inside the dragged subtree.
			return DropPlan{}
		}
		overIdx = FlatIndex(full, overID)
		if s.origIndex < overIdx {
			before = &reduced[p]
		} else if p > 0 {
			before = &reduced[p-1]
		}
	}

	delta := int(math.Round(offset / e.IndentStep))
	target := s.origDepth + delta
	maxDepth := 0
	if before != nil {
		maxDepth = before.Depth
		if before.Kind == FlatNode {
			maxDepth++
		}
	}
	if target < 0 {
		target = 0
	}
	if target > maxDepth {
		target = maxDepth
	}

	parent := e.resolveParent(before, target)
	if !e.tree.Exists(parent) {
		parent = e.tree.RootID()
	}
	if parent == s.active || e.tree.IsDescendant(parent, s.active) {
		return DropPlan{}
	}

	anchor, after := e.resolveAnchor(before, parent, overID, overIdx)
	return DropPlan{
		OK:         true,
		Parent:     parent,
		Depth:      target,
		planAnchor: planAnchor{anchor: anchor, after: after},
	}
}

// resolveParent walks up from the row above the insertion point until it
// reaches the container whose children sit at the target depth. The root and
// base act as a single virtual level below depth 0.
func (e *Engine) resolveParent(before *FlatItem, target int) model.ID {
	if before == nil {
		return e.tree.RootID()
	}
	var cur model.ID
	var curDepth int
	if before.Kind == FlatNode {
		cur = before.ID
		curDepth = before.Depth
	} else {
		cur = before.Parent
		curDepth = before.Depth - 1
	}
	for cur != model.Nil {
		if cur == e.tree.RootID() || cur == e.tree.BaseID() {
			curDepth = -1
		}
		if curDepth == target-1 {
			return cur
		}
		cur = e.tree.Parent(cur)
		curDepth--
	}
	return e.tree.RootID()
}

// resolveAnchor finds the child of parent that the dragged node lands next
// to: the member of the over row's ancestor-or-self chain that is a direct
// child of parent. Dragging downward inserts after the anchor, upward before
// it.
func (e *Engine) resolveAnchor(before *FlatItem, parent, overID model.ID, overIdx int) (model.ID, bool) {
	s := e.drag
	if overID == s.active {
		if before == nil {
			return model.Nil, false
		}
		start := before.ID
		if before.Kind == FlatLeaf {
			start = e.mustContainer(before.ID)
		}
		return e.anchorChild(start, parent), true
	}

	start := overID
	if !e.tree.Exists(overID) {
		start = e.mustContainer(overID)
	}
	anchor := e.anchorChild(start, parent)
	after := s.origIndex < overIdx
	return anchor, after
}

// anchorChild walks start's ancestor-or-self chain until it finds the node
// whose parent is the given container. Nil when the chain never passes
// through parent.
func (e *Engine) anchorChild(start, parent model.ID) model.ID {
	cur := start
	for cur != model.Nil && e.tree.Exists(cur) {
		if e.tree.Parent(cur) == parent {
			return cur
		}
		cur = e.tree.Parent(cur)
	}
	return model.Nil
}

// mustContainer returns a leaf's container, or Nil for unknown leaves.
func (e *Engine) mustContainer(id model.ID) model.ID {
	if c, ok := e.canvas.LeafContainer(id); ok {
		return c
	}
	return model.Nil
}
