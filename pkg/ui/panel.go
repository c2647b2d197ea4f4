// Package ui implements the layers panel: a bubbletea program that projects
// the grouping engine's flattened rows into a scrollable, keyboard- and
// mouse-driven tree with search, type filtering, drag reorder/reparent, and
// overlays for help and document statistics.
package ui

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MateenKhan/tracedraw/pkg/analysis"
	"github.com/MateenKhan/tracedraw/pkg/canvas"
	"github.com/MateenKhan/tracedraw/pkg/config"
	"github.com/MateenKhan/tracedraw/pkg/debug"
	"github.com/MateenKhan/tracedraw/pkg/layers"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

// leafKinds is the cycle order for the type filter ("" = no filter).
var leafKinds = []string{"", "rect", "ellipse", "path", "text"}

// ReloadMsg asks the panel to re-read its rows after an external change.
// When Engine/Canvas are set the panel swaps to them (watcher-driven
// document reload); when nil it just refreshes the current document.
type ReloadMsg struct {
	Engine *layers.Engine
	Canvas *canvas.Canvas
}

// Model is the bubbletea model for the layers panel.
type Model struct {
	eng   *layers.Engine
	cv    *canvas.Canvas
	theme Theme
	cfg   config.PanelConfig

	docName string
	docDir  string // panel-state persistence; empty disables

	width  int
	height int

	rows   []layers.FlatItem
	names  map[model.ID]string
	kinds  map[model.ID]string
	paints map[model.ID]int
	cursor int
	offset int // first visible row index

	// Search and filter state.
	searching bool
	search    textinput.Model
	query     string
	kindIdx   int // index into leafKinds

	// Inline rename state.
	renaming bool
	rename   textinput.Model
	renameID model.ID

	// Drag state. Keyboard drags move the cursor row; mouse drags follow
	// the pointer. Both feed the same engine session.
	grabbed    bool
	dragOffset float64
	dragPlan   layers.DropPlan
	mouseDownX int
	mouseDownY int

	showHelp  bool
	helpView  string
	showStats bool
	stats     analysis.DocumentStats

	status string

	// Exporter, when set, is invoked by the export key. The CLI wires this
	// to the snapshot exporter with the document's directory.
	Exporter func() error
}

// New builds a panel model over a wired engine and canvas.
func New(eng *layers.Engine, cv *canvas.Canvas, cfg config.PanelConfig, docName, docDir string) Model {
	theme := DefaultTheme(defaultRenderer())

	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search layers"
	search.CharLimit = 64

	rename := textinput.New()
	rename.Prompt = "rename: "
	rename.CharLimit = 64

	if cfg.IndentStep > 0 {
		eng.IndentStep = cfg.IndentStep
	}

	m := Model{
		eng:     eng,
		cv:      cv,
		theme:   theme,
		cfg:     cfg,
		docName: docName,
		docDir:  docDir,
		search:  search,
		rename:  rename,
		width:   80,
		height:  24,
	}
	LoadPanelState(docDir, eng.Tree())
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// refresh recomputes the visible rows and the name/kind lookup, keeping the
// cursor on the same row where possible.
func (m *Model) refresh() {
	var keep model.ID
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		keep = m.rows[m.cursor].ID
	}

	m.rows = m.eng.Flatten(layers.FlattenOptions{
		Query:    m.query,
		LeafKind: leafKinds[m.kindIdx],
	})

	m.names = make(map[model.ID]string, len(m.rows))
	m.kinds = make(map[model.ID]string)
	for _, row := range m.rows {
		if row.Kind == layers.FlatNode {
			if n := m.eng.Tree().Get(row.ID); n != nil {
				m.names[row.ID] = n.Name
			}
		}
	}
	m.paints = make(map[model.ID]int)
	for _, leaf := range m.cv.EnumerateLeaves() {
		m.names[leaf.ID] = leaf.Name
		m.kinds[leaf.ID] = leaf.Kind
		m.paints[leaf.ID] = leaf.PaintIndex
	}

	if keep != model.Nil {
		if i := layers.FlatIndex(m.rows, keep); i >= 0 {
			m.cursor = i
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureCursorVisible()
}

// ensureCursorVisible scrolls the window so the cursor row stays on screen.
func (m *Model) ensureCursorVisible() {
	visible := m.listHeight()
	if visible <= 0 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// listHeight is the number of row lines available between header and footer.
func (m *Model) listHeight() int {
	h := m.height - 3 // header, footer, input line
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) currentRow() (layers.FlatItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return layers.FlatItem{}, false
	}
	return m.rows[m.cursor], true
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.helpView = "" // re-render at the new width on demand
		m.ensureCursorVisible()
		return m, nil

	case ReloadMsg:
		if msg.Engine != nil && msg.Canvas != nil {
			m.eng = msg.Engine
			m.cv = msg.Canvas
			if m.cfg.IndentStep > 0 {
				m.eng.IndentStep = m.cfg.IndentStep
			}
			LoadPanelState(m.docDir, m.eng.Tree())
		}
		m.refresh()
		m.setStatus("document reloaded")
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Modal states swallow keys first.
	if m.searching {
		return m.updateSearch(msg)
	}
	if m.renaming {
		return m.updateRename(msg)
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.showStats {
		m.showStats = false
		return m, nil
	}
	if m.grabbed {
		return m.updateGrabbed(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		SavePanelState(m.docDir, m.eng.Tree())
		return m, tea.Quit

	case "up", "k":
		m.cursor--
		m.clampCursor()
	case "down", "j":
		m.cursor++
		m.clampCursor()
	case "home":
		m.cursor = 0
		m.clampCursor()
	case "end":
		m.cursor = len(m.rows) - 1
		m.clampCursor()
	case "pgup":
		m.cursor -= m.listHeight()
		m.clampCursor()
	case "pgdown":
		m.cursor += m.listHeight()
		m.clampCursor()

	case "enter", " ", "space":
		if row, ok := m.currentRow(); ok {
			m.eng.Select(row.ID, false)
			m.refresh()
		}
	case "a":
		if row, ok := m.currentRow(); ok {
			m.eng.Select(row.ID, true)
			m.refresh()
		}
	case "esc":
		if m.query != "" || m.kindIdx != 0 {
			m.query = ""
			m.kindIdx = 0
			m.search.SetValue("")
			m.refresh()
		} else {
			m.eng.ClearSelection()
		}

	case "left", "h":
		if row, ok := m.currentRow(); ok && row.Kind == layers.FlatNode {
			m.eng.SetExpanded(row.ID, false)
			m.refresh()
		}
	case "right", "l":
		if row, ok := m.currentRow(); ok && row.Kind == layers.FlatNode {
			m.eng.SetExpanded(row.ID, true)
			m.refresh()
		}
	case "tab":
		if row, ok := m.currentRow(); ok && row.Kind == layers.FlatNode {
			m.eng.ToggleExpand(row.ID)
			m.refresh()
		}

	case "n", "N":
		kind := model.KindGroup
		if msg.String() == "N" {
			kind = model.KindProject
		}
		parent := m.eng.Tree().RootID()
		if row, ok := m.currentRow(); ok && row.Kind == layers.FlatNode {
			parent = row.ID
		}
		id, err := m.eng.CreateNode(parent, kind)
		if err != nil {
			m.setStatus("create: %v", err)
			break
		}
		m.refresh()
		if i := layers.FlatIndex(m.rows, id); i >= 0 {
			m.cursor = i
			m.ensureCursorVisible()
		}
		m.setStatus("created %s", m.names[id])

	case "d", "delete":
		row, ok := m.currentRow()
		if !ok {
			break
		}
		if row.Kind == layers.FlatNode {
			name := m.names[row.ID]
			if err := m.eng.DeleteNode(row.ID); err != nil {
				m.setStatus("delete: %v", err)
				break
			}
			m.setStatus("deleted %s", name)
		} else {
			name := m.names[row.ID]
			if err := m.cv.RemoveLeaf(row.ID); err != nil {
				m.setStatus("delete: %v", err)
				break
			}
			m.setStatus("deleted %s", name)
		}
		m.refresh()

	case "r":
		row, ok := m.currentRow()
		if !ok || row.Kind != layers.FlatNode {
			break
		}
		m.renaming = true
		m.renameID = row.ID
		m.rename.SetValue(m.names[row.ID])
		m.rename.CursorEnd()
		m.rename.Focus()
		return m, textinput.Blink

	case "g":
		sel := m.eng.Selection()
		if len(sel) == 0 {
			m.setStatus("nothing selected to group")
			break
		}
		id, err := m.eng.Group(sel)
		if err != nil {
			m.setStatus("group: %v", err)
			break
		}
		m.refresh()
		if i := layers.FlatIndex(m.rows, id); i >= 0 {
			m.cursor = i
			m.ensureCursorVisible()
		}
		m.setStatus("grouped %d items", len(sel))

	case "u":
		sel := m.eng.Selection()
		if len(sel) == 0 {
			if row, ok := m.currentRow(); ok && row.Kind == layers.FlatNode {
				sel = []model.ID{row.ID}
			}
		}
		if err := m.eng.Ungroup(sel); err != nil {
			m.setStatus("ungroup: %v", err)
			break
		}
		m.refresh()

	case "D":
		row, ok := m.currentRow()
		if !ok {
			break
		}
		if row.Kind == layers.FlatNode {
			id, err := m.eng.CloneSubtree(row.ID)
			if err != nil {
				m.setStatus("duplicate: %v", err)
				break
			}
			m.refresh()
			m.setStatus("duplicated as %s", m.names[id])
		} else {
			dup, err := m.cv.DuplicateLeaf(row.ID)
			if err != nil {
				m.setStatus("duplicate: %v", err)
				break
			}
			m.refresh()
			m.setStatus("duplicated as %s", dup.Name)
		}

	case "L":
		row, ok := m.currentRow()
		if !ok {
			break
		}
		if row.Kind == layers.FlatNode {
			m.eng.ToggleLockRecursive(row.ID)
		} else {
			m.eng.ToggleLeafLock(row.ID)
		}
		m.refresh()

	case "H":
		row, ok := m.currentRow()
		if !ok {
			break
		}
		if row.Kind == layers.FlatNode {
			m.eng.ToggleVisibleRecursive(row.ID)
		} else {
			m.eng.ToggleLeafVisible(row.ID)
		}
		m.refresh()

	case "K":
		if row, ok := m.currentRow(); ok && row.Kind == layers.FlatNode {
			m.eng.MoveSibling(row.ID, layers.MoveUp)
			m.refresh()
		}
	case "J":
		if row, ok := m.currentRow(); ok && row.Kind == layers.FlatNode {
			m.eng.MoveSibling(row.ID, layers.MoveDown)
			m.refresh()
		}

	case "m":
		row, ok := m.currentRow()
		if !ok {
			break
		}
		if err := m.eng.BeginDrag(row.ID); err != nil {
			m.setStatus("drag: %v", err)
			break
		}
		m.grabbed = true
		m.dragOffset = 0
		m.dragPlan, _ = m.eng.UpdateDrag(row.ID, 0)
		m.setStatus("moving %s (j/k position, h/l depth, enter drop, esc cancel)", m.names[row.ID])

	case "/":
		m.searching = true
		m.search.SetValue(m.query)
		m.search.CursorEnd()
		m.search.Focus()
		return m, textinput.Blink

	case "t":
		m.kindIdx = (m.kindIdx + 1) % len(leafKinds)
		m.refresh()
		if kind := leafKinds[m.kindIdx]; kind == "" {
			m.setStatus("type filter off")
		} else {
			m.setStatus("showing %s layers", kind)
		}

	case "c":
		if row, ok := m.currentRow(); ok {
			if err := clipboard.WriteAll(m.names[row.ID]); err != nil {
				debug.Log("clipboard: %v", err)
				m.setStatus("clipboard unavailable")
			} else {
				m.setStatus("copied %q", m.names[row.ID])
			}
		}

	case "e":
		if m.Exporter == nil {
			m.setStatus("export not configured")
			break
		}
		if err := m.Exporter(); err != nil {
			m.setStatus("export: %v", err)
		} else {
			m.setStatus("exported snapshot")
		}

	case "i":
		m.stats = analysis.Analyze(m.eng)
		m.showStats = true

	case "?":
		m.showHelp = true
	}

	return m, nil
}

// updateGrabbed handles keys during a keyboard drag session.
func (m Model) updateGrabbed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.eng.CancelDrag()
		m.grabbed = false
		m.dragPlan = layers.DropPlan{}
		m.setStatus("move cancelled")
		return m, nil

	case "up", "k":
		m.cursor--
		m.clampCursor()
	case "down", "j":
		m.cursor++
		m.clampCursor()
	case "left", "h":
		m.dragOffset -= m.eng.IndentStep
	case "right", "l":
		m.dragOffset += m.eng.IndentStep

	case "enter", "m":
		row, ok := m.currentRow()
		if !ok {
			break
		}
		dragged := m.eng.Dragging().ID()
		err := m.eng.EndDrag(row.ID, m.dragOffset)
		m.grabbed = false
		m.dragPlan = layers.DropPlan{}
		if err != nil {
			m.setStatus("move: %v", err)
		} else {
			m.setStatus("moved %s", m.names[dragged])
		}
		m.refresh()
		return m, nil

	default:
		return m, nil
	}

	if row, ok := m.currentRow(); ok {
		m.dragPlan, _ = m.eng.UpdateDrag(row.ID, m.dragOffset)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		m.query = m.search.Value()
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	// Live filtering: every keystroke narrows the list.
	m.query = m.search.Value()
	m.refresh()
	return m, cmd
}

func (m Model) updateRename(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.renaming = false
		m.rename.Blur()
		return m, nil
	case "enter":
		m.renaming = false
		m.rename.Blur()
		if err := m.eng.RenameNode(m.renameID, m.rename.Value()); err != nil {
			m.setStatus("rename: %v", err)
		} else {
			m.setStatus("renamed to %q", m.rename.Value())
		}
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	return m, cmd
}

// updateMouse maps pointer events onto the same drag session the keyboard
// uses: press grabs the row under the pointer, motion re-plans, release
// drops. Horizontal travel converts to depth offset via the indent width.
func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonWheelUp {
			m.cursor--
			m.clampCursor()
			return m, nil
		}
		if msg.Button == tea.MouseButtonWheelDown {
			m.cursor++
			m.clampCursor()
			return m, nil
		}
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		idx, ok := m.rowAt(msg.Y)
		if !ok {
			return m, nil
		}
		m.cursor = idx
		m.ensureCursorVisible()
		if err := m.eng.BeginDrag(m.rows[idx].ID); err != nil {
			return m, nil
		}
		m.grabbed = true
		m.dragOffset = 0
		m.mouseDownX = msg.X
		m.mouseDownY = msg.Y
		m.dragPlan, _ = m.eng.UpdateDrag(m.rows[idx].ID, 0)

	case tea.MouseActionMotion:
		if !m.grabbed {
			return m, nil
		}
		if idx, ok := m.rowAt(msg.Y); ok {
			m.cursor = idx
			m.ensureCursorVisible()
		}
		m.dragOffset = m.columnsToOffset(msg.X - m.mouseDownX)
		if row, ok := m.currentRow(); ok {
			m.dragPlan, _ = m.eng.UpdateDrag(row.ID, m.dragOffset)
		}

	case tea.MouseActionRelease:
		if !m.grabbed {
			return m, nil
		}
		m.grabbed = false
		m.dragPlan = layers.DropPlan{}
		row, ok := m.currentRow()
		if !ok {
			m.eng.CancelDrag()
			return m, nil
		}
		// A click without travel is a selection, not a drop. Travel alone
		// decides: a node's in-place plan is legal, but releasing where the
		// press landed is still a click.
		if msg.X == m.mouseDownX && msg.Y == m.mouseDownY {
			m.eng.CancelDrag()
			m.eng.Select(row.ID, false)
			m.refresh()
			return m, nil
		}
		if err := m.eng.EndDrag(row.ID, m.dragOffset); err != nil {
			m.setStatus("move: %v", err)
		}
		m.refresh()
	}
	return m, nil
}

// rowAt converts a terminal y coordinate to a row index, accounting for the
// header line and the scroll offset.
func (m *Model) rowAt(y int) (int, bool) {
	idx := y - 1 + m.offset
	if idx < 0 || idx >= len(m.rows) {
		return 0, false
	}
	if idx >= m.offset+m.listHeight() {
		return 0, false
	}
	return idx, true
}

// columnsToOffset converts horizontal cell travel to drag units.
func (m *Model) columnsToOffset(cols int) float64 {
	indentWidth := m.cfg.IndentWidth
	if indentWidth <= 0 {
		indentWidth = 2
	}
	return float64(cols) / float64(indentWidth) * m.eng.IndentStep
}
