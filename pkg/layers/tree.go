// Package layers implements the grouping engine behind the layers panel:
// the container tree, its mutation operations, the flattened list projection
// the panel renders, the drag reorder/reparent algorithm, and the z-order
// synchronizer that keeps an external canvas's paint order in step with the
// tree.
//
// The engine is single-threaded by contract: every operation runs to
// completion (mutate tree, reflatten, push paint order) before the next user
// event is handled. The canvas owns leaf geometry and styling; the engine
// only reads and writes a leaf's container assignment, lock/visibility flags,
// and paint index.
package layers

import "github.com/MateenKhan/tracedraw/pkg/model"

// Default names for the two containers every document starts with.
const (
	RootName = "Document"
	BaseName = "Base"
)

// Tree is the in-memory container store: id -> node, plus the root and the
// designated base group. The base group is the fallback container for leaves
// that have no valid assignment; neither it nor the root can be deleted.
type Tree struct {
	nodes  map[model.ID]*model.Node
	rootID model.ID
	baseID model.ID
}

// NewTree creates a tree holding only the root and the base group.
func NewTree() *Tree {
	root := &model.Node{
		ID:       model.NewID(),
		Kind:     model.KindRoot,
		Name:     RootName,
		Expanded: true,
		Visible:  true,
	}
	base := &model.Node{
		ID:       model.NewID(),
		Kind:     model.KindGroup,
		Name:     BaseName,
		Parent:   root.ID,
		Expanded: true,
		Visible:  true,
	}
	root.Children = []model.ID{base.ID}
	return &Tree{
		nodes:  map[model.ID]*model.Node{root.ID: root, base.ID: base},
		rootID: root.ID,
		baseID: base.ID,
	}
}

// Restore rebuilds a tree from persisted nodes. The first node of kind Root
// becomes the root; baseID must name an existing group. Used by the document
// store; callers are expected to hand in a consistent node set.
func Restore(nodes []*model.Node, baseID model.ID) *Tree {
	t := &Tree{nodes: make(map[model.ID]*model.Node, len(nodes))}
	for _, n := range nodes {
		t.nodes[n.ID] = n
		if n.Kind == model.KindRoot {
			t.rootID = n.ID
		}
	}
	t.baseID = baseID
	if _, ok := t.nodes[t.baseID]; !ok || t.rootID == model.Nil {
		// Persisted data is missing its anchors; fall back to a fresh tree
		// rather than operating on a corrupt store.
		return NewTree()
	}
	return t
}

// RootID returns the id of the document root.
func (t *Tree) RootID() model.ID { return t.rootID }

// BaseID returns the id of the base group.
func (t *Tree) BaseID() model.ID { return t.baseID }

// Get returns the node for id, or nil if it does not exist.
func (t *Tree) Get(id model.ID) *model.Node {
	return t.nodes[id]
}

// Exists reports whether id names a live node.
func (t *Tree) Exists(id model.ID) bool {
	_, ok := t.nodes[id]
	return ok
}

// Len returns the number of nodes, root and base included.
func (t *Tree) Len() int { return len(t.nodes) }

// Children returns the ordered child ids of a node (nil for unknown ids).
func (t *Tree) Children(id model.ID) []model.ID {
	if n := t.nodes[id]; n != nil {
		return n.Children
	}
	return nil
}

// Parent returns the parent id of a node, or Nil for the root and for
// unknown ids.
func (t *Tree) Parent(id model.ID) model.ID {
	if n := t.nodes[id]; n != nil {
		return n.Parent
	}
	return model.Nil
}

// Ancestors returns the chain of ancestor ids from the node's parent up to
// and including the root. Empty for the root itself and for unknown ids.
func (t *Tree) Ancestors(id model.ID) []model.ID {
	var out []model.ID
	n := t.nodes[id]
	if n == nil {
		return nil
	}
	for cur := n.Parent; cur != model.Nil; {
		p := t.nodes[cur]
		if p == nil {
			break
		}
		out = append(out, cur)
		cur = p.Parent
	}
	return out
}

// IsDescendant reports whether id lives strictly inside ancestor's subtree.
func (t *Tree) IsDescendant(id, ancestor model.ID) bool {
	if id == ancestor {
		return false
	}
	n := t.nodes[id]
	for n != nil && n.Parent != model.Nil {
		if n.Parent == ancestor {
			return true
		}
		n = t.nodes[n.Parent]
	}
	return false
}

// EffectiveLocked reports whether the node or any of its ancestors is locked.
// A node's own Locked flag is never rewritten by ancestor locking; the
// effective state is always computed here, at read time.
func (t *Tree) EffectiveLocked(id model.ID) bool {
	n := t.nodes[id]
	for n != nil {
		if n.Locked {
			return true
		}
		if n.Parent == model.Nil {
			return false
		}
		n = t.nodes[n.Parent]
	}
	return false
}

// EffectiveVisible reports whether the node and all of its ancestors are
// visible.
func (t *Tree) EffectiveVisible(id model.ID) bool {
	n := t.nodes[id]
	for n != nil {
		if !n.Visible {
			return false
		}
		if n.Parent == model.Nil {
			return true
		}
		n = t.nodes[n.Parent]
	}
	return false
}

// Walk visits id's subtree in depth-first, children-before-later-siblings
// order, the node itself first. Unknown ids are ignored.
func (t *Tree) Walk(id model.ID, fn func(n *model.Node)) {
	n := t.nodes[id]
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		t.Walk(c, fn)
	}
}

// Subtree returns id and every descendant id in depth-first order.
func (t *Tree) Subtree(id model.ID) []model.ID {
	var out []model.ID
	t.Walk(id, func(n *model.Node) { out = append(out, n.ID) })
	return out
}

// Depth returns the panel row depth of a node: the number of ancestors below
// the root and base, which are not rendered as rows and contribute no depth.
// Children of the root and of the base sit at depth 0.
func (t *Tree) Depth(id model.ID) int {
	depth := 0
	for _, a := range t.Ancestors(id) {
		if a == t.rootID || a == t.baseID {
			continue
		}
		depth++
	}
	return depth
}

// Nodes returns all nodes in no particular order. Used by persistence and
// tests; callers must not rely on iteration order.
func (t *Tree) Nodes() []*model.Node {
	out := make([]*model.Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		out = append(out, n)
	}
	return out
}

// removeChild deletes id from parent's Children list, if present.
func (t *Tree) removeChild(parent, id model.ID) {
	p := t.nodes[parent]
	if p == nil {
		return
	}
	for i, c := range p.Children {
		if c == id {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			return
		}
	}
}

// insertChild places id into parent's Children at index, clamped to the
// valid range.
func (t *Tree) insertChild(parent, id model.ID, index int) {
	p := t.nodes[parent]
	if p == nil {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(p.Children) {
		index = len(p.Children)
	}
	p.Children = append(p.Children, model.Nil)
	copy(p.Children[index+1:], p.Children[index:])
	p.Children[index] = id
}

// childIndex returns id's position in parent's Children, or -1.
func (t *Tree) childIndex(parent, id model.ID) int {
	p := t.nodes[parent]
	if p == nil {
		return -1
	}
	for i, c := range p.Children {
		if c == id {
			return i
		}
	}
	return -1
}
