package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/treeview/pkg/meta"
)

const (
	headerHeight = 1
	footerHeight = 1
)

func (m Model) bodyHeight() int {
	h := m.height - headerHeight - footerHeight
	if h < 1 {
		h = 1
	}
	return h
}

// syncViewport re-renders the visible rows and scrolls the focused row into
// view.
func (m *Model) syncViewport() {
	rows := m.tree.Visible()
	width := m.width
	if width <= 0 {
		width = 80
	}

	lines := make([]string, len(rows))
	focusedAt := -1
	for i, row := range rows {
		lines[i] = m.renderRow(row, width)
		if row.Node.Focusable {
			focusedAt = i
		}
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))

	if focusedAt < 0 {
		return
	}
	if focusedAt < m.viewport.YOffset {
		m.viewport.SetYOffset(focusedAt)
	} else if focusedAt >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(focusedAt - m.viewport.Height + 1)
	}
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.helpView)
	}

	var body string
	if len(m.tree.Roots()) == 0 {
		body = m.renderEmptyState()
	} else {
		body = m.viewport.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) renderHeader() string {
	r := m.theme.Renderer
	title := m.opts.Title
	if title == "" {
		title = "treeview"
	}
	var total, selected int
	m.tree.DepthFirst(func(n *meta.Model) bool {
		total++
		if n.State.Selected {
			selected++
		}
		return true
	})
	stats := fmt.Sprintf("%d nodes", total)
	if selected > 0 {
		stats += fmt.Sprintf(" · %d selected", selected)
	}
	if f := m.tree.Filter(); f != nil {
		stats += " · filtered"
	}
	titleStyle := r.NewStyle().Foreground(m.theme.Primary).Bold(true)
	statsStyle := r.NewStyle().Foreground(m.theme.Muted)
	return titleStyle.Render(title) + "  " + statsStyle.Render(stats)
}

func (m Model) renderFooter() string {
	r := m.theme.Renderer
	if m.filtering {
		return m.filterInput.View()
	}
	if m.statusMsg != "" {
		style := r.NewStyle().Foreground(m.theme.Success)
		if m.statusIsError {
			style = style.Foreground(m.theme.Danger)
		}
		return style.Render(m.statusMsg)
	}
	return r.NewStyle().Foreground(m.theme.Muted).
		Render("↑/↓ move · ←/→ collapse/expand · space check · enter select · / filter · ? help · q quit")
}

// renderEmptyState renders the view when the tree has no nodes.
func (m Model) renderEmptyState() string {
	r := m.theme.Renderer
	titleStyle := r.NewStyle().Foreground(m.theme.Primary).Bold(true)
	mutedStyle := r.NewStyle().Foreground(m.theme.Muted)

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Tree View"))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("No nodes to display."))
	sb.WriteString("\n\n")
	sb.WriteString(mutedStyle.Render("Point data_file or database in .treeview/config.yaml at your tree,"))
	sb.WriteString("\n")
	sb.WriteString(mutedStyle.Render("or run: treeview -data tree.json"))
	return sb.String()
}
