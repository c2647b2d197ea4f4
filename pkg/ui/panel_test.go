package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MateenKhan/tracedraw/pkg/config"
	"github.com/MateenKhan/tracedraw/pkg/layers"
	"github.com/MateenKhan/tracedraw/pkg/model"
	"github.com/MateenKhan/tracedraw/pkg/testutil"
)

func newPanel(t *testing.T, d *testutil.Document) Model {
	t.Helper()
	m := New(d.Engine, d.Canvas, config.DefaultConfig().Panel, "test-doc", "")
	m.width = 80
	m.height = 24
	return m
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		if !ok {
			t.Fatalf("Update returned %T, want Model", next)
		}
	}
	return m
}

// cursorID returns the id of the row under the cursor.
func cursorID(t *testing.T, m Model) model.ID {
	t.Helper()
	row, ok := m.currentRow()
	if !ok {
		t.Fatal("no row under cursor")
	}
	return row.ID
}

func TestPanelShowsRows(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Shape("s1", "g1")
	d.Shape("s0", "base")

	m := newPanel(t, d)
	if len(m.rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(m.rows))
	}
	out := m.View()
	for _, name := range []string{"g1", "s1", "s0"} {
		if !strings.Contains(out, name) {
			t.Errorf("view missing %q:\n%s", name, out)
		}
	}
}

func TestPanelShowPaintIndex(t *testing.T) {
	d := testutil.NewDocument()
	d.Shape("back", "base")
	d.Shape("front", "base")

	cfg := config.DefaultConfig().Panel
	cfg.ShowPaintIdx = true
	m := New(d.Engine, d.Canvas, cfg, "test-doc", "")
	out := m.View()
	if !strings.Contains(out, "front [1]") || !strings.Contains(out, "back [0]") {
		t.Errorf("paint indices missing from view:\n%s", out)
	}
}

func TestPanelCursorMovement(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Shape("s1", "g1")
	d.Shape("s2", "g1")

	m := newPanel(t, d)
	if m.cursor != 0 {
		t.Fatalf("cursor starts at %d", m.cursor)
	}
	m = press(t, m, keyRune('j'), keyRune('j'))
	if m.cursor != 2 {
		t.Errorf("cursor = %d after jj, want 2", m.cursor)
	}
	m = press(t, m, keyRune('j'), keyRune('j'))
	if m.cursor != 2 {
		t.Errorf("cursor = %d, must clamp at last row", m.cursor)
	}
	m = press(t, m, keyRune('k'))
	if m.cursor != 1 {
		t.Errorf("cursor = %d after k, want 1", m.cursor)
	}
}

func TestPanelCreateGroupUnderCursor(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")

	m := newPanel(t, d)
	m = press(t, m, keyRune('n'))

	g1 := d.ID("g1")
	kids := d.Tree.Children(g1)
	if len(kids) != 1 {
		t.Fatalf("g1 has %d children, want the new group", len(kids))
	}
	if cursorID(t, m) != kids[0] {
		t.Error("cursor did not move to the created group")
	}
	if d.Tree.Get(kids[0]).Name != "Group-1" {
		t.Errorf("name = %q, want Group-1", d.Tree.Get(kids[0]).Name)
	}
}

func TestPanelDeleteGroupCascades(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Shape("s1", "g1")
	d.Shape("s0", "base")

	m := newPanel(t, d)
	m = press(t, m, keyRune('d')) // cursor on g1

	if d.Tree.Exists(d.ID("g1")) {
		t.Error("g1 still exists after delete")
	}
	if d.Canvas.Len() != 1 {
		t.Errorf("canvas has %d shapes, want only s0", d.Canvas.Len())
	}
	if len(m.rows) != 1 {
		t.Errorf("panel shows %d rows, want 1", len(m.rows))
	}
}

func TestPanelSelectSubtree(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Shape("s1", "g1")
	d.Shape("s2", "g1")

	m := newPanel(t, d)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if got := len(d.Engine.Selection()); got != 3 {
		t.Errorf("selection size = %d, want 3", got)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if got := len(d.Engine.Selection()); got != 0 {
		t.Errorf("selection size = %d after esc, want 0", got)
	}
}

func TestPanelGroupSelection(t *testing.T) {
	d := testutil.NewDocument()
	d.Shape("s1", "base")
	d.Shape("s2", "base")

	m := newPanel(t, d)
	// Rows: s2 (newer, front-most), s1.
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter}) // select s2
	m = press(t, m, keyRune('j'), keyRune('a'))     // add s1
	m = press(t, m, keyRune('g'))

	if got := d.Tree.Children(d.Tree.BaseID()); len(got) != 1 {
		t.Fatalf("base has %d child groups, want 1", len(got))
	}
	if row, _ := m.currentRow(); row.Kind != layers.FlatNode {
		t.Error("cursor should land on the new group")
	}
}

func TestPanelRename(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")

	m := newPanel(t, d)
	m = press(t, m, keyRune('r'))
	if !m.renaming {
		t.Fatal("rename mode not entered")
	}
	m.rename.SetValue("Artwork")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if got := d.Tree.Get(d.ID("g1")).Name; got != "Artwork" {
		t.Errorf("name = %q, want Artwork", got)
	}
	if m.renaming {
		t.Error("rename mode still active")
	}
}

func TestPanelCollapseHidesChildren(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Shape("s1", "g1")

	m := newPanel(t, d)
	m = press(t, m, keyRune('h'))
	if len(m.rows) != 1 {
		t.Errorf("got %d rows after collapse, want 1", len(m.rows))
	}
	m = press(t, m, keyRune('l'))
	if len(m.rows) != 2 {
		t.Errorf("got %d rows after expand, want 2", len(m.rows))
	}
}

func TestPanelSearchFilters(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Shape("wheel", "g1")
	d.Shape("door", "g1")

	m := newPanel(t, d)
	m = press(t, m, keyRune('/'))
	if !m.searching {
		t.Fatal("search mode not entered")
	}
	for _, r := range "wheel" {
		m = press(t, m, keyRune(r))
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	ids := make([]string, 0, len(m.rows))
	for _, row := range m.rows {
		ids = append(ids, m.names[row.ID])
	}
	// The match plus its force-included ancestor.
	if len(m.rows) != 2 {
		t.Fatalf("rows = %v, want [g1 wheel]", ids)
	}
	if m.names[m.rows[1].ID] != "wheel" {
		t.Errorf("rows = %v, want wheel under g1", ids)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if len(m.rows) != 3 {
		t.Errorf("got %d rows after clearing the filter, want 3", len(m.rows))
	}
}

func TestPanelTypeFilterCycles(t *testing.T) {
	d := testutil.NewDocument()
	d.Shape("box", "base")

	m := newPanel(t, d)
	m = press(t, m, keyRune('t')) // rect
	if len(m.rows) != 1 {
		t.Errorf("rect filter: %d rows, want 1", len(m.rows))
	}
	m = press(t, m, keyRune('t')) // ellipse
	if len(m.rows) != 0 {
		t.Errorf("ellipse filter: %d rows, want 0", len(m.rows))
	}
	m = press(t, m, keyRune('t'), keyRune('t'), keyRune('t')) // path, text, off
	if len(m.rows) != 1 {
		t.Errorf("filter off: %d rows, want 1", len(m.rows))
	}
}

func TestPanelKeyboardDrag(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Group("g2", "") // created last, so rows are [g2, g1]

	m := newPanel(t, d)
	m = press(t, m, keyRune('m'))
	if !m.grabbed {
		t.Fatal("grab did not start a drag session")
	}
	m = press(t, m, keyRune('j'), tea.KeyMsg{Type: tea.KeyEnter})
	if m.grabbed {
		t.Fatal("drop did not end the drag session")
	}

	root := d.Tree.RootID()
	kids := d.Tree.Children(root)
	want := []model.ID{d.ID("g1"), d.ID("g2"), d.Tree.BaseID()}
	if len(kids) != 3 || kids[0] != want[0] || kids[1] != want[1] || kids[2] != want[2] {
		t.Errorf("root children after drop = %v, want [g1 g2 base]", kids)
	}
}

func TestPanelDragCancelRestores(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Group("g2", "")

	before := d.Tree.Children(d.Tree.RootID())
	m := newPanel(t, d)
	m = press(t, m, keyRune('m'), keyRune('j'), tea.KeyMsg{Type: tea.KeyEsc})
	if m.grabbed {
		t.Fatal("cancel did not end the drag session")
	}
	after := d.Tree.Children(d.Tree.RootID())
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("tree changed after cancel: %v -> %v", before, after)
		}
	}
}

func TestPanelDragNestWithDepthKey(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Group("g2", "") // rows: [g2, g1]

	m := newPanel(t, d)
	// Grab g2, move over g1, push one level deeper.
	m = press(t, m, keyRune('m'), keyRune('j'), keyRune('l'), tea.KeyMsg{Type: tea.KeyEnter})

	if got := d.Tree.Parent(d.ID("g2")); got != d.ID("g1") {
		t.Errorf("g2 parent = %s, want g1", d.Name(got))
	}
}

func TestPanelClickSelectsNode(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Shape("s1", "g1")

	before := d.Tree.Children(d.Tree.RootID())
	m := newPanel(t, d)
	// Press and release on the g1 row (header occupies y=0) without travel.
	m = press(t, m,
		tea.MouseMsg{X: 3, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: 3, Y: 1, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
	)

	if !d.Engine.IsSelected(d.ID("g1")) {
		t.Error("click on a group row did not select it")
	}
	if m.grabbed || d.Engine.Dragging() != nil {
		t.Error("click left a drag session open")
	}
	after := d.Tree.Children(d.Tree.RootID())
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("click moved the node: %v -> %v", before, after)
		}
	}
}

func TestPanelClickSelectsLeaf(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Shape("s1", "g1")

	m := newPanel(t, d)
	// s1 renders on the second list row.
	m = press(t, m,
		tea.MouseMsg{X: 5, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: 5, Y: 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
	)

	if !d.Engine.IsSelected(d.ID("s1")) {
		t.Error("click on a leaf row did not select it")
	}
	if m.grabbed {
		t.Error("click left the panel in grab mode")
	}
}

func TestPanelMouseDragReorders(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Group("g2", "") // rows: [g2, g1]

	m := newPanel(t, d)
	m = press(t, m,
		tea.MouseMsg{X: 3, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: 3, Y: 2, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft},
		tea.MouseMsg{X: 3, Y: 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft},
	)

	if m.grabbed {
		t.Fatal("release did not end the drag")
	}
	kids := d.Tree.Children(d.Tree.RootID())
	if kids[0] != d.ID("g1") || kids[1] != d.ID("g2") {
		t.Errorf("children = %v, want g2 dropped below g1", kids)
	}
}

func TestPanelMoveSibling(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Group("g2", "") // root children: [g2, g1, base]

	m := newPanel(t, d)
	m = press(t, m, keyRune('J'))

	kids := d.Tree.Children(d.Tree.RootID())
	if kids[0] != d.ID("g1") || kids[1] != d.ID("g2") {
		t.Errorf("children = %v, want g2 moved below g1", kids)
	}
}

func TestPanelLockAndHide(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Shape("s1", "g1")

	m := newPanel(t, d)
	m = press(t, m, keyRune('L'))
	if !d.Tree.Get(d.ID("g1")).Locked {
		t.Error("L did not lock the group")
	}
	if s := d.Canvas.Shape(d.ID("s1")); !s.Locked {
		t.Error("lock did not propagate to the shape")
	}

	m = press(t, m, keyRune('H'))
	if d.Tree.Get(d.ID("g1")).Visible {
		t.Error("H did not hide the group")
	}
}

func TestPanelDuplicateSubtree(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Shape("s1", "g1")

	m := newPanel(t, d)
	m = press(t, m, keyRune('D'))

	if got := len(d.Tree.Children(d.Tree.RootID())); got != 3 {
		t.Errorf("root has %d children, want g1, its copy, and base", got)
	}
	if d.Canvas.Len() != 2 {
		t.Errorf("canvas has %d shapes, want 2", d.Canvas.Len())
	}
}

func TestPanelExporterHook(t *testing.T) {
	d := testutil.NewDocument()
	d.Shape("s1", "base")

	m := newPanel(t, d)
	called := false
	m.Exporter = func() error { called = true; return nil }
	m = press(t, m, keyRune('e'))
	if !called {
		t.Error("export key did not invoke the exporter")
	}
	if !strings.Contains(m.status, "exported") {
		t.Errorf("status = %q", m.status)
	}
}

func TestPanelStatsOverlay(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")
	d.Shape("s1", "g1")

	m := newPanel(t, d)
	m = press(t, m, keyRune('i'))
	if !m.showStats {
		t.Fatal("stats overlay not shown")
	}
	out := m.View()
	if !strings.Contains(out, "groups") || !strings.Contains(out, "shapes") {
		t.Errorf("stats view incomplete:\n%s", out)
	}
	m = press(t, m, keyRune('x'))
	if m.showStats {
		t.Error("overlay did not close")
	}
}

func TestPanelHelpOverlay(t *testing.T) {
	d := testutil.NewDocument()
	m := newPanel(t, d)
	m = press(t, m, keyRune('?'))
	if !m.showHelp {
		t.Fatal("help overlay not shown")
	}
	if out := m.View(); !strings.Contains(out, "Layers panel") {
		t.Error("help content missing")
	}
	m = press(t, m, keyRune('q'))
	if m.showHelp {
		t.Error("help did not close")
	}
}

func TestPanelReloadMsg(t *testing.T) {
	d := testutil.NewDocument()
	d.Group("g1", "")

	m := newPanel(t, d)
	d.Group("g2", "")
	m = press(t, m, ReloadMsg{})
	if len(m.rows) != 2 {
		t.Errorf("got %d rows after reload, want 2", len(m.rows))
	}
}

func TestPanelWindowing(t *testing.T) {
	d := testutil.NewDocument()
	for i := 0; i < 40; i++ {
		d.Shape("s"+string(rune('a'+i%26))+string(rune('0'+i/26)), "base")
	}

	m := newPanel(t, d)
	m.height = 10
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnd})
	if m.cursor != 39 {
		t.Fatalf("cursor = %d, want 39", m.cursor)
	}
	if m.offset == 0 {
		t.Error("window did not scroll to keep the cursor visible")
	}
	lines := strings.Split(m.View(), "\n")
	if len(lines) > m.height+2 {
		t.Errorf("view has %d lines for height %d", len(lines), m.height)
	}
}
