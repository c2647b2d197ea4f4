package testutil

import (
	"github.com/MateenKhan/tracedraw/pkg/layers"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

// TB is the slice of testing.TB the assertions need. Both *testing.T and
// *rapid.T satisfy it, so the same assertions serve example-based and
// property-based tests.
type TB interface {
	Helper()
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// AssertTreeValid verifies the structural guarantees of a layer tree:
// exactly one root, a live base group, parent/child link consistency, and no
// cycles.
func AssertTreeValid(t TB, tree *layers.Tree) {
	t.Helper()

	root := tree.Get(tree.RootID())
	if root == nil || root.Kind != model.KindRoot {
		t.Fatalf("root %s missing or wrong kind", tree.RootID())
	}
	if root.Parent != model.Nil {
		t.Errorf("root has parent %s, want none", root.Parent)
	}
	if tree.Get(tree.BaseID()) == nil {
		t.Fatalf("base group %s missing", tree.BaseID())
	}

	roots := 0
	for _, n := range tree.Nodes() {
		if n.Kind == model.KindRoot {
			roots++
		}
		for _, c := range n.Children {
			child := tree.Get(c)
			if child == nil {
				t.Errorf("node %s lists unknown child %s", n.ID, c)
				continue
			}
			if child.Parent != n.ID {
				t.Errorf("child %s of %s points back to %s", c, n.ID, child.Parent)
			}
		}
		if n.ID != tree.RootID() {
			p := tree.Get(n.Parent)
			if p == nil {
				t.Errorf("node %s has unknown parent %s", n.ID, n.Parent)
				continue
			}
			found := false
			for _, c := range p.Children {
				if c == n.ID {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("node %s not in parent %s children list", n.ID, n.Parent)
			}
		}
	}
	if roots != 1 {
		t.Errorf("expected exactly 1 root node, got %d", roots)
	}

	// Every node must be reachable from the root; unreachable nodes mean a
	// cycle or a leak.
	reachable := make(map[model.ID]bool)
	tree.Walk(tree.RootID(), func(n *model.Node) { reachable[n.ID] = true })
	if len(reachable) != tree.Len() {
		t.Errorf("tree has %d nodes but only %d reachable from root", tree.Len(), len(reachable))
	}
}

// AssertPaintContiguous verifies the canvas paint indices are exactly
// 0..N-1 with no gaps or duplicates.
func AssertPaintContiguous(t TB, c layers.Canvas) {
	t.Helper()
	leaves := c.EnumerateLeaves()
	seen := make(map[int]model.ID, len(leaves))
	for _, l := range leaves {
		if l.PaintIndex < 0 || l.PaintIndex >= len(leaves) {
			t.Errorf("leaf %s paint index %d out of range [0,%d)", l.ID, l.PaintIndex, len(leaves))
		}
		if prev, dup := seen[l.PaintIndex]; dup {
			t.Errorf("paint index %d held by both %s and %s", l.PaintIndex, prev, l.ID)
		}
		seen[l.PaintIndex] = l.ID
	}
}

// AssertFlatOrder verifies that the flattened row ids appear in the given
// order.
func AssertFlatOrder(t TB, flat []layers.FlatItem, want []model.ID) {
	t.Helper()
	if len(flat) != len(want) {
		t.Fatalf("flattened %d rows, want %d (%v)", len(flat), len(want), ids(flat))
	}
	for i, it := range flat {
		if it.ID != want[i] {
			t.Errorf("row %d = %s, want %s (full: %v)", i, it.ID, want[i], ids(flat))
			return
		}
	}
}

// AssertDepth verifies the flattened depth of a single row.
func AssertDepth(t TB, flat []layers.FlatItem, id model.ID, want int) {
	t.Helper()
	i := layers.FlatIndex(flat, id)
	if i < 0 {
		t.Fatalf("row %s not in flattened list %v", id, ids(flat))
	}
	if flat[i].Depth != want {
		t.Errorf("row %s at depth %d, want %d", id, flat[i].Depth, want)
	}
}

// AssertLeafContainer verifies a leaf's container assignment.
func AssertLeafContainer(t TB, c layers.Canvas, leaf, want model.ID) {
	t.Helper()
	got, ok := c.LeafContainer(leaf)
	if !ok {
		t.Fatalf("leaf %s not on canvas", leaf)
	}
	if got != want {
		t.Errorf("leaf %s in container %s, want %s", leaf, got, want)
	}
}

func ids(flat []layers.FlatItem) []model.ID {
	out := make([]model.ID, len(flat))
	for i, it := range flat {
		out[i] = it.ID
	}
	return out
}
