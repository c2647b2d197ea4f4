package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/MateenKhan/tracedraw/pkg/layers"
	"github.com/MateenKhan/tracedraw/pkg/model"
)

func defaultRenderer() *lipgloss.Renderer {
	return lipgloss.DefaultRenderer()
}

const helpMarkdown = `# Layers panel

## Navigation
| Key | Action |
|-----|--------|
| j/k, ↑/↓ | move cursor |
| h/l, ←/→ | collapse / expand group |
| tab | toggle expand |
| home/end, pgup/pgdown | jump |

## Editing
| Key | Action |
|-----|--------|
| enter/space | select (group selects subtree) |
| a | add to selection |
| esc | clear filter, then selection |
| n / N | new group / new project |
| r | rename |
| d | delete (groups cascade) |
| g / u | group selection / ungroup |
| D | duplicate subtree |
| L | toggle lock |
| H | toggle visibility |
| J / K | move among siblings |

## Moving
| Key | Action |
|-----|--------|
| m | grab row; j/k position, h/l depth, enter drop, esc cancel |
| mouse drag | same, horizontal travel changes depth |

## Other
| Key | Action |
|-----|--------|
| / | search by name |
| t | cycle shape-type filter |
| c | copy layer name |
| e | export snapshot |
| i | document statistics |
| ? | this help |
| q | quit |
`

// View implements tea.Model.
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}
	if m.showStats {
		return m.renderStats()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	visible := m.listHeight()
	end := m.offset + visible
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}
	for i := end - m.offset; i < visible; i++ {
		b.WriteString("\n")
	}

	b.WriteString(m.renderInputLine())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.docName
	if title == "" {
		title = "Untitled"
	}
	parts := []string{title}
	if m.query != "" {
		parts = append(parts, fmt.Sprintf("search:%q", m.query))
	}
	if kind := leafKinds[m.kindIdx]; kind != "" {
		parts = append(parts, "type:"+kind)
	}
	if sel := len(m.eng.Selection()); sel > 0 {
		parts = append(parts, fmt.Sprintf("%d selected", sel))
	}
	return m.theme.Header.Render(truncate(strings.Join(parts, "  "), m.width-2))
}

// renderRow renders one flattened row: indentation, expander, kind marker,
// name, and state flags.
func (m Model) renderRow(i int) string {
	row := m.rows[i]
	tree := m.eng.Tree()

	indentWidth := m.cfg.IndentWidth
	if indentWidth <= 0 {
		indentWidth = 2
	}
	indent := strings.Repeat(" ", row.Depth*indentWidth)

	var marker, name string
	var locked, hidden bool
	if row.Kind == layers.FlatNode {
		n := tree.Get(row.ID)
		if n == nil {
			return ""
		}
		if len(n.Children) == 0 && !m.containerHasLeaves(row.ID) {
			marker = "· "
		} else if n.Expanded {
			marker = "▾ "
		} else {
			marker = "▸ "
		}
		name = n.Name
		locked = tree.EffectiveLocked(row.ID)
		hidden = !tree.EffectiveVisible(row.ID)
	} else {
		marker = "  "
		name = m.names[row.ID]
		if kind := m.kinds[row.ID]; kind != "" {
			marker = kindMarker(kind)
		}
		locked = m.eng.EffectiveLeafLocked(row.ID)
		hidden = !m.eng.EffectiveLeafVisible(row.ID)
		if m.cfg.ShowPaintIdx {
			name = fmt.Sprintf("%s [%d]", name, m.paints[row.ID])
		}
	}

	var flags []string
	if locked {
		flags = append(flags, m.theme.LockedText.Render("⊘"))
	}
	if hidden {
		flags = append(flags, m.theme.HiddenText.Render("∅"))
	}
	suffix := ""
	if len(flags) > 0 {
		suffix = " " + strings.Join(flags, " ")
	}

	line := indent + marker + truncate(name, m.width-len(indent)-6)

	style := m.theme.Base
	switch {
	case m.grabbed && m.eng.Dragging() != nil && row.ID == m.eng.Dragging().ID():
		style = m.theme.Dragged
	case i == m.cursor:
		style = m.theme.Cursor
	case m.eng.IsSelected(row.ID):
		style = m.theme.Selected
	case hidden:
		style = m.theme.HiddenText
	}

	rendered := style.Render(padRight(line, m.width-4)) + suffix
	if m.grabbed && m.dragPlan.OK && i == m.cursor {
		rendered += m.theme.StatusText.Render(" ◂")
	}
	return rendered
}

// containerHasLeaves reports whether any canvas leaf lives in the container.
func (m Model) containerHasLeaves(id model.ID) bool {
	for _, leaf := range m.cv.EnumerateLeaves() {
		if leaf.Container == id {
			return true
		}
	}
	return false
}

func kindMarker(kind string) string {
	switch kind {
	case "rect":
		return "▭ "
	case "ellipse":
		return "◯ "
	case "path":
		return "〜 "
	case "text":
		return "T "
	default:
		return "  "
	}
}

func (m Model) renderInputLine() string {
	if m.searching {
		return m.search.View()
	}
	if m.renaming {
		return m.rename.View()
	}
	return ""
}

func (m Model) renderFooter() string {
	if m.status != "" {
		return m.theme.StatusText.Render(truncate(m.status, m.width-1))
	}
	hint := "j/k move · enter select · n new · g group · m grab · / search · ? help · q quit"
	return m.theme.Footer.Render(truncate(hint, m.width-1))
}

func (m Model) renderHelp() string {
	if m.helpView == "" {
		width := m.width - 4
		if width < 40 {
			width = 40
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err == nil {
			if out, err := r.Render(helpMarkdown); err == nil {
				return out + m.theme.Footer.Render("press any key to close")
			}
		}
		// Glamour failed (odd TERM); fall back to the raw markdown.
		return helpMarkdown
	}
	return m.helpView
}

func (m Model) renderStats() string {
	s := m.stats
	var b strings.Builder
	b.WriteString(m.theme.Header.Render("Document statistics"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "  groups            %d\n", s.Groups)
	fmt.Fprintf(&b, "  shapes            %d\n", s.Leaves)
	fmt.Fprintf(&b, "  max depth         %d\n", s.MaxDepth)
	fmt.Fprintf(&b, "  mean depth        %.2f (σ %.2f)\n", s.MeanDepth, s.DepthStdDev)
	fmt.Fprintf(&b, "  shapes per group  %.2f (σ %.2f)\n", s.MeanLeavesPerGroup, s.LeavesPerGroupStdDev)
	fmt.Fprintf(&b, "  empty groups      %d\n", s.EmptyGroups)
	fmt.Fprintf(&b, "  locked            %d groups, %d shapes\n", s.LockedGroups, s.LockedLeaves)
	fmt.Fprintf(&b, "  hidden            %d groups, %d shapes\n", s.HiddenGroups, s.HiddenLeaves)
	fmt.Fprintf(&b, "  selected          %d\n", s.Selected)
	b.WriteString("\n")
	b.WriteString(m.theme.Footer.Render("press any key to close"))
	return b.String()
}
