package layers_test

import (
	"errors"
	"testing"

	"github.com/MateenKhan/tracedraw/pkg/layers"
	"github.com/MateenKhan/tracedraw/pkg/model"
	"github.com/MateenKhan/tracedraw/pkg/testutil"
)

func TestCreateNodeNaming(t *testing.T) {
	d := testutil.NewDocument()
	root := d.Tree.RootID()

	g1, _ := d.Engine.CreateNode(root, model.KindGroup)
	g2, _ := d.Engine.CreateNode(root, model.KindGroup)
	p1, _ := d.Engine.CreateNode(root, model.KindProject)

	if got := d.Tree.Get(g1).Name; got != "Group-1" {
		t.Errorf("first group named %q, want Group-1", got)
	}
	if got := d.Tree.Get(g2).Name; got != "Group-2" {
		t.Errorf("second group named %q, want Group-2", got)
	}
	if got := d.Tree.Get(p1).Name; got != "Project-1" {
		t.Errorf("first project named %q, want Project-1", got)
	}

	// Names are recomputed from current state, not a counter: deleting the
	// highest suffix frees it, deleting a lower one does not.
	if err := d.Engine.DeleteNode(g2); err != nil {
		t.Fatalf("delete g2: %v", err)
	}
	g2b, _ := d.Engine.CreateNode(root, model.KindGroup)
	if got := d.Tree.Get(g2b).Name; got != "Group-2" {
		t.Errorf("recreated group named %q, want Group-2", got)
	}
	if err := d.Engine.DeleteNode(g1); err != nil {
		t.Fatalf("delete g1: %v", err)
	}
	g3, _ := d.Engine.CreateNode(root, model.KindGroup)
	if got := d.Tree.Get(g3).Name; got != "Group-3" {
		t.Errorf("group after gap named %q, want Group-3", got)
	}
}

func TestCreateNodeEdgeCases(t *testing.T) {
	d := testutil.NewDocument()

	if _, err := d.Engine.CreateNode(d.Tree.RootID(), model.KindRoot); !errors.Is(err, layers.ErrStructural) {
		t.Errorf("creating a second root: err = %v, want ErrStructural", err)
	}
	id, err := d.Engine.CreateNode(model.ID("gone"), model.KindGroup)
	if err != nil || id != model.Nil {
		t.Errorf("create under unknown parent = (%s, %v), want no-op", id, err)
	}

	// New nodes land at the front of the parent's children.
	a, _ := d.Engine.CreateNode(d.Tree.RootID(), model.KindGroup)
	b, _ := d.Engine.CreateNode(d.Tree.RootID(), model.KindGroup)
	if got := d.Tree.Children(d.Tree.RootID())[0]; got != b {
		t.Errorf("front child = %s, want newest %s", got, b)
	}
	_ = a
	testutil.AssertTreeValid(t, d.Tree)
}

func TestDeleteCascadeScenario(t *testing.T) {
	d := testutil.NewDocument()
	l1 := d.Shape("l1", "base")
	g1 := d.Group("g1", "")
	l2 := d.Shape("l2", "g1")

	if err := d.Engine.DeleteNode(g1); err != nil {
		t.Fatalf("delete g1: %v", err)
	}
	if d.Canvas.Shape(l2) != nil {
		t.Error("l2 must be removed with its group")
	}
	if d.Canvas.Shape(l1) == nil {
		t.Error("l1 must survive")
	}
	testutil.AssertLeafContainer(t, d.Canvas, l1, d.Tree.BaseID())
	testutil.AssertTreeValid(t, d.Tree)
	testutil.AssertPaintContiguous(t, d.Canvas)
}

func TestDeleteNestedCascade(t *testing.T) {
	d := testutil.NewDocument()
	g1 := d.Group("g1", "")
	d.Group("g2", "g1")
	s := d.Shape("s", "g2")

	if err := d.Engine.DeleteNode(g1); err != nil {
		t.Fatalf("delete g1: %v", err)
	}
	if d.Tree.Exists(d.ID("g2")) {
		t.Error("nested group must cascade")
	}
	if d.Canvas.Shape(s) != nil {
		t.Error("leaf of nested group must cascade")
	}
}

func TestDeleteAnchorsRejected(t *testing.T) {
	d := testutil.NewDocument()
	if err := d.Engine.DeleteNode(d.Tree.RootID()); !errors.Is(err, layers.ErrStructural) {
		t.Errorf("delete root: err = %v, want ErrStructural", err)
	}
	if err := d.Engine.DeleteNode(d.Tree.BaseID()); !errors.Is(err, layers.ErrStructural) {
		t.Errorf("delete base: err = %v, want ErrStructural", err)
	}
	if err := d.Engine.DeleteNode(model.ID("gone")); err != nil {
		t.Errorf("delete unknown id: err = %v, want no-op", err)
	}
}

func TestRename(t *testing.T) {
	d := testutil.NewDocument()
	g1 := d.Group("g1", "")

	if err := d.Engine.RenameNode(g1, "Outline"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got := d.Tree.Get(g1).Name; got != "Outline" {
		t.Errorf("name = %q, want Outline", got)
	}
	if err := d.Engine.RenameNode(d.Tree.RootID(), "nope"); !errors.Is(err, layers.ErrStructural) {
		t.Errorf("rename root: err = %v, want ErrStructural", err)
	}
}

func TestMoveSibling(t *testing.T) {
	d := testutil.NewDocument()
	// Created front-first, so the order is c, b, a.
	a := d.Group("a", "")
	b := d.Group("b", "")
	c := d.Group("c", "")
	root := d.Tree.RootID()

	d.Engine.MoveSibling(c, layers.MoveDown)
	if got := d.Tree.Children(root)[0]; got != b {
		t.Errorf("after move down, front = %s, want b", d.Name(got))
	}

	d.Engine.MoveSibling(b, layers.MoveUp) // already at top, no-op
	if got := d.Tree.Children(root)[0]; got != b {
		t.Error("move up at the top must be a no-op")
	}

	d.Engine.MoveSibling(d.Tree.BaseID(), layers.MoveUp)
	testutil.AssertTreeValid(t, d.Tree)
	_ = a
}

func TestUngroupPreservesOrderScenario(t *testing.T) {
	d := testutil.NewDocument()
	// Target shape: root.children = [a, g1, b], g1.children = [c, d].
	b := d.Group("b", "")
	g1 := d.Group("g1", "")
	a := d.Group("a", "")
	dd := d.Group("d", "g1")
	c := d.Group("c", "g1")

	if err := d.Engine.Ungroup([]model.ID{g1}); err != nil {
		t.Fatalf("ungroup: %v", err)
	}
	got := d.Tree.Children(d.Tree.RootID())
	want := []model.ID{a, c, dd, b, d.Tree.BaseID()}
	if len(got) != len(want) {
		t.Fatalf("root children = %d ids, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("root child %d = %s, want %s", i, d.Name(got[i]), d.Name(want[i]))
		}
	}
	if d.Tree.Exists(g1) {
		t.Error("ungrouped container must be gone")
	}
	testutil.AssertTreeValid(t, d.Tree)
}

func TestUngroupRepointsLeaves(t *testing.T) {
	d := testutil.NewDocument()
	g1 := d.Group("g1", "")
	s := d.Shape("s", "g1")

	if err := d.Engine.Ungroup([]model.ID{g1}); err != nil {
		t.Fatalf("ungroup: %v", err)
	}
	// The root never owns leaves; ungrouping a top-level group hands its
	// leaves to the base group.
	testutil.AssertLeafContainer(t, d.Canvas, s, d.Tree.BaseID())
}

func TestUngroupLockedGroupUnlocksLeaves(t *testing.T) {
	d := testutil.NewDocument()
	g1 := d.Group("g1", "")
	d.Group("g2", "g1")
	s1 := d.Shape("s1", "g1")
	s2 := d.Shape("s2", "g2")

	d.Engine.ToggleLockRecursive(g1)
	if !d.Canvas.Shape(s1).Locked || !d.Canvas.Shape(s2).Locked {
		t.Fatal("locking the group must reach the canvas flags")
	}

	if err := d.Engine.Ungroup([]model.ID{g1}); err != nil {
		t.Fatalf("ungroup: %v", err)
	}

	// g1's lock died with it: s1 (now in base) and s2 (still under the
	// promoted g2) are effectively unlocked, on the engine and the canvas.
	if d.Engine.EffectiveLeafLocked(s1) || d.Engine.EffectiveLeafLocked(s2) {
		t.Error("leaves still effectively locked after the locked group dissolved")
	}
	if d.Canvas.Shape(s1).Locked {
		t.Error("canvas lock flag stale for the repointed leaf")
	}
	if d.Canvas.Shape(s2).Locked {
		t.Error("canvas lock flag stale for the promoted subtree's leaf")
	}
}

func TestUngroupHiddenGroupRestoresVisibility(t *testing.T) {
	d := testutil.NewDocument()
	g1 := d.Group("g1", "")
	s := d.Shape("s", "g1")

	d.Engine.ToggleVisibleRecursive(g1)
	if d.Canvas.Shape(s).Visible {
		t.Fatal("hiding the group must reach the canvas flag")
	}

	if err := d.Engine.Ungroup([]model.ID{g1}); err != nil {
		t.Fatalf("ungroup: %v", err)
	}
	if !d.Engine.EffectiveLeafVisible(s) {
		t.Error("leaf still effectively hidden after the hidden group dissolved")
	}
	if !d.Canvas.Shape(s).Visible {
		t.Error("canvas visibility flag stale after ungroup")
	}
}

func TestUngroupKeepsIntrinsicLeafLock(t *testing.T) {
	d := testutil.NewDocument()
	g1 := d.Group("g1", "")
	s := d.Shape("s", "g1")

	d.Engine.ToggleLeafLock(s)
	d.Engine.ToggleLockRecursive(g1)

	if err := d.Engine.Ungroup([]model.ID{g1}); err != nil {
		t.Fatalf("ungroup: %v", err)
	}
	// The group's lock is gone but the leaf's own lock survives.
	if !d.Engine.EffectiveLeafLocked(s) {
		t.Error("intrinsic leaf lock lost on ungroup")
	}
	if !d.Canvas.Shape(s).Locked {
		t.Error("canvas flag dropped the intrinsic leaf lock")
	}
}

func TestGroupSelection(t *testing.T) {
	d := testutil.NewDocument()
	b := d.Group("b", "")
	a := d.Group("a", "")
	root := d.Tree.RootID()

	g, err := d.Engine.Group([]model.ID{a, b})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if g == model.Nil {
		t.Fatal("group returned Nil")
	}
	// The new group takes the first selected item's former slot.
	if got := d.Tree.Children(root)[0]; got != g {
		t.Errorf("front child = %s, want new group", d.Name(got))
	}
	gotChildren := d.Tree.Children(g)
	if len(gotChildren) != 2 || gotChildren[0] != a || gotChildren[1] != b {
		t.Errorf("group children = %v, want [a b]", gotChildren)
	}
	sel := d.Engine.Selection()
	if len(sel) != 1 || sel[0] != g {
		t.Errorf("selection = %v, want just the new group", sel)
	}
	testutil.AssertTreeValid(t, d.Tree)
}

func TestGroupLeaves(t *testing.T) {
	d := testutil.NewDocument()
	g1 := d.Group("g1", "")
	s1 := d.Shape("s1", "g1")
	s2 := d.Shape("s2", "g1")

	g, err := d.Engine.Group([]model.ID{s1, s2})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if d.Tree.Parent(g) != g1 {
		t.Errorf("leaf-only group parent = %s, want g1", d.Name(d.Tree.Parent(g)))
	}
	testutil.AssertLeafContainer(t, d.Canvas, s1, g)
	testutil.AssertLeafContainer(t, d.Canvas, s2, g)
}

func TestGroupSkipsNestedSelection(t *testing.T) {
	d := testutil.NewDocument()
	outer := d.Group("outer", "")
	inner := d.Group("inner", "outer")

	g, err := d.Engine.Group([]model.ID{outer, inner})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	// inner travels with outer; it must not be reparented individually.
	if d.Tree.Parent(inner) != outer {
		t.Errorf("inner parent = %s, want outer", d.Name(d.Tree.Parent(inner)))
	}
	if d.Tree.Parent(outer) != g {
		t.Errorf("outer parent = %s, want new group", d.Name(d.Tree.Parent(outer)))
	}
	testutil.AssertTreeValid(t, d.Tree)
}

func TestGroupUngroupRoundTrip(t *testing.T) {
	d := testutil.NewDocument()
	c := d.Group("c", "")
	b := d.Group("b", "")
	a := d.Group("a", "")
	s := d.Shape("s", "a")
	root := d.Tree.RootID()

	g, err := d.Engine.Group([]model.ID{a, b})
	if err != nil {
		t.Fatalf("group: %v", err)
	}
	if err := d.Engine.Ungroup([]model.ID{g}); err != nil {
		t.Fatalf("ungroup: %v", err)
	}

	got := d.Tree.Children(root)
	want := []model.ID{a, b, c, d.Tree.BaseID()}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("root child %d = %s, want %s", i, d.Name(got[i]), d.Name(want[i]))
		}
	}
	testutil.AssertLeafContainer(t, d.Canvas, s, a)
	testutil.AssertTreeValid(t, d.Tree)
}

func TestCloneSubtree(t *testing.T) {
	d := testutil.NewDocument()
	g1 := d.Group("g1", "")
	s1 := d.Shape("s1", "g1")
	g2 := d.Group("g2", "g1")
	s2 := d.Shape("s2", "g2")
	root := d.Tree.RootID()

	cloneID, err := d.Engine.CloneSubtree(g1)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	clone := d.Tree.Get(cloneID)
	if clone == nil {
		t.Fatal("clone missing from tree")
	}
	if clone.Name != "g1 copy" {
		t.Errorf("clone name = %q, want \"g1 copy\"", clone.Name)
	}
	// Inserted as the next sibling of the original.
	rc := d.Tree.Children(root)
	if rc[0] != g1 || rc[1] != cloneID {
		t.Errorf("root children = %v, want original then clone", rc)
	}
	if len(clone.Children) != 1 || clone.Children[0] == g2 {
		t.Error("descendant containers must get fresh ids")
	}

	// Leaves are duplicated, never shared, and live in the cloned groups.
	if d.Canvas.Len() != 4 {
		t.Fatalf("canvas has %d shapes, want 4", d.Canvas.Len())
	}
	cloneLeafContainers := make(map[model.ID]int)
	for _, leaf := range d.Canvas.EnumerateLeaves() {
		if leaf.ID == s1 || leaf.ID == s2 {
			continue
		}
		cloneLeafContainers[leaf.Container]++
	}
	if cloneLeafContainers[cloneID] != 1 || cloneLeafContainers[clone.Children[0]] != 1 {
		t.Errorf("cloned leaves landed in %v, want one in each cloned group", cloneLeafContainers)
	}
	testutil.AssertLeafContainer(t, d.Canvas, s1, g1)
	testutil.AssertTreeValid(t, d.Tree)
	testutil.AssertPaintContiguous(t, d.Canvas)
}

func TestCloneAnchorsRejected(t *testing.T) {
	d := testutil.NewDocument()
	if _, err := d.Engine.CloneSubtree(d.Tree.BaseID()); !errors.Is(err, layers.ErrStructural) {
		t.Errorf("clone base: err = %v, want ErrStructural", err)
	}
}

func TestLockPropagation(t *testing.T) {
	d := testutil.NewDocument()
	g1 := d.Group("g1", "")
	d.Group("g2", "g1")
	s := d.Shape("s", "g2")

	d.Engine.ToggleLockRecursive(g1)
	if !d.Engine.EffectiveLeafLocked(s) {
		t.Error("leaf under locked ancestor must be effectively locked")
	}
	if !d.Canvas.Shape(s).Locked {
		t.Error("effective lock must be pushed to the canvas")
	}
	if d.Tree.Get(d.ID("g2")).Locked {
		t.Error("descendant group's own flag must stay untouched")
	}

	d.Engine.ToggleLockRecursive(g1)
	if d.Engine.EffectiveLeafLocked(s) {
		t.Error("unlock must restore leaves with a fully unlocked chain")
	}
}

func TestUnlockKeepsIntrinsicLeafLock(t *testing.T) {
	d := testutil.NewDocument()
	g1 := d.Group("g1", "")
	s := d.Shape("s", "g1")

	d.Engine.ToggleLeafLock(s)
	d.Engine.ToggleLockRecursive(g1)
	d.Engine.ToggleLockRecursive(g1)
	if !d.Engine.EffectiveLeafLocked(s) {
		t.Error("group unlock must not clear the leaf's own lock")
	}
}

func TestLockPrunesSelection(t *testing.T) {
	d := testutil.NewDocument()
	g1 := d.Group("g1", "")
	s := d.Shape("s", "g1")

	d.Engine.Select(s, false)
	if !d.Engine.IsSelected(s) {
		t.Fatal("leaf should be selected")
	}
	d.Engine.ToggleLockRecursive(g1)
	if d.Engine.IsSelected(s) {
		t.Error("locking must drop descendants from the selection")
	}
}

func TestVisibilityPropagation(t *testing.T) {
	d := testutil.NewDocument()
	g1 := d.Group("g1", "")
	s := d.Shape("s", "g1")
	hidden := d.Shape("hidden", "g1")

	d.Engine.ToggleLeafVisible(hidden)
	d.Engine.ToggleVisibleRecursive(g1)
	if d.Canvas.Shape(s).Visible {
		t.Error("hiding the group must hide its leaves")
	}
	d.Engine.ToggleVisibleRecursive(g1)
	if !d.Canvas.Shape(s).Visible {
		t.Error("showing the group must restore its leaves")
	}
	if d.Canvas.Shape(hidden).Visible {
		t.Error("intrinsically hidden leaf must stay hidden")
	}
}
