package layers

import (
	"strings"

	"github.com/MateenKhan/tracedraw/pkg/model"
)

// FlatKind distinguishes container rows from leaf rows in the flattened list.
type FlatKind int

const (
	// FlatNode is a container (project or group) row.
	FlatNode FlatKind = iota
	// FlatLeaf is a drawable row.
	FlatLeaf
)

// FlatItem is one row of the depth-indented linear projection of the tree.
// For leaf rows, Parent is the owning container; for node rows, Parent is
// the structural parent (Nil when the parent is the root or the base, which
// are not rendered).
type FlatItem struct {
	Kind   FlatKind
	ID     model.ID
	Depth  int
	Parent model.ID
}

// FlattenOptions controls which rows the projection emits.
type FlattenOptions struct {
	// Query retains only matching rows (case-insensitive substring on
	// names). Ancestors of matches are force-included so matches stay
	// reachable, and collapse state is ignored along those chains.
	Query string

	// LeafKind retains only leaves of the given shape kind. A group is
	// retained if any retained descendant survives under it.
	LeafKind string

	// IgnoreCollapse emits collapsed subtrees too. The z-order projection
	// uses this: paint order covers the whole document, not just the
	// visible rows.
	IgnoreCollapse bool

	// Exclude omits one node and its entire subtree. The drag algorithm
	// flattens with the dragged item excluded.
	Exclude model.ID
}

// Flatten produces the ordered, depth-indented list of rows for the current
// tree and canvas state. The root and the base group are not emitted as
// rows; their children (and the base group's leaves) appear at depth 0, with
// the base subtree inlined at the base's position among the root's children.
//
// Within a container the sub-ordering is fixed: the container's leaves first
// (front-most first, leaf order taken from the canvas's paint order), then
// its child groups in Children order. The output is a pure function of the
// tree, the expand flags, and the leaf memberships.
func (e *Engine) Flatten(opts FlattenOptions) []FlatItem {
	byContainer := e.leavesByContainer()

	match := newFlattenMatcher(e, opts, byContainer)

	var out []FlatItem
	var emit func(id model.ID, depth int)
	emit = func(id model.ID, depth int) {
		n := e.tree.Get(id)
		if n == nil || id == opts.Exclude {
			return
		}

		hidden := id == e.tree.RootID() || id == e.tree.BaseID()
		childDepth := depth
		if !hidden {
			if !match.retainNode(id) {
				return
			}
			out = append(out, FlatItem{Kind: FlatNode, ID: id, Depth: depth, Parent: e.visibleParent(id)})
			childDepth = depth + 1
			if !n.Expanded && !opts.IgnoreCollapse && !match.forceExpand(id) {
				return
			}
		}

		for _, leaf := range byContainer[id] {
			if leaf.ID == opts.Exclude {
				continue
			}
			if !match.retainLeaf(id, leaf) {
				continue
			}
			out = append(out, FlatItem{Kind: FlatLeaf, ID: leaf.ID, Depth: childDepth, Parent: id})
		}
		for _, c := range n.Children {
			emit(c, childDepth)
		}
	}
	emit(e.tree.RootID(), 0)
	return out
}

// visibleParent maps a node's structural parent to the panel's notion of
// parent: Nil when the parent is one of the hidden anchors.
func (e *Engine) visibleParent(id model.ID) model.ID {
	p := e.tree.Parent(id)
	if p == e.tree.RootID() || p == e.tree.BaseID() {
		return model.Nil
	}
	return p
}

// flattenMatcher precomputes which rows survive the query/type filters.
type flattenMatcher struct {
	active  bool
	retain  map[model.ID]bool // nodes with a surviving self or descendant
	direct  map[model.ID]bool // nodes matching on their own name
	leafHit func(container model.ID, leaf LeafInfo) bool
}

func newFlattenMatcher(e *Engine, opts FlattenOptions, byContainer map[model.ID][]LeafInfo) *flattenMatcher {
	m := &flattenMatcher{}
	if opts.Query == "" && opts.LeafKind == "" {
		return m
	}
	m.active = true
	m.retain = make(map[model.ID]bool)
	m.direct = make(map[model.ID]bool)

	query := strings.ToLower(opts.Query)
	nameHit := func(name string) bool {
		return query != "" && strings.Contains(strings.ToLower(name), query)
	}
	m.leafHit = func(container model.ID, leaf LeafInfo) bool {
		if opts.LeafKind != "" && leaf.Kind != opts.LeafKind {
			return false
		}
		if query == "" {
			return true
		}
		if nameHit(leaf.Name) {
			return true
		}
		// A leaf also survives when its container's name matches.
		if n := e.tree.Get(container); n != nil && nameHit(n.Name) {
			return true
		}
		return false
	}

	var visit func(id model.ID) bool
	visit = func(id model.ID) bool {
		n := e.tree.Get(id)
		if n == nil {
			return false
		}
		self := opts.LeafKind == "" && nameHit(n.Name)
		if self {
			m.direct[id] = true
		}
		kept := self
		for _, leaf := range byContainer[id] {
			if m.leafHit(id, leaf) {
				kept = true
			}
		}
		for _, c := range n.Children {
			if visit(c) {
				kept = true
			}
		}
		if kept {
			m.retain[id] = true
		}
		return kept
	}
	visit(e.tree.RootID())
	return m
}

// retainNode reports whether a container row survives the filter.
func (m *flattenMatcher) retainNode(id model.ID) bool {
	if !m.active {
		return true
	}
	return m.retain[id]
}

// retainLeaf reports whether a leaf row survives the filter. A directly
// matching container keeps all of its leaves.
func (m *flattenMatcher) retainLeaf(container model.ID, leaf LeafInfo) bool {
	if !m.active {
		return true
	}
	if m.direct[container] {
		return true
	}
	return m.leafHit(container, leaf)
}

// forceExpand reports whether a collapsed container must still show its
// subtree because a search is active and something below matches.
func (m *flattenMatcher) forceExpand(id model.ID) bool {
	return m.active && m.retain[id]
}

// FlatIndex returns the position of id in the given flattened list, or -1.
func FlatIndex(list []FlatItem, id model.ID) int {
	for i, it := range list {
		if it.ID == id {
			return i
		}
	}
	return -1
}
