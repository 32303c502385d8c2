// tree.go - row rendering and persisted expand/select state for the tree view
package ui

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	json "github.com/goccy/go-json"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/treeview/pkg/loader"
	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/tree"
)

// TreeState is the persistent state of the tree view. It is saved to
// .treeview/tree-state.json to keep expansion, selection and focus across
// sessions and across live reloads.
//
// File format (JSON):
//
//	{
//	  "version": 1,
//	  "expanded": {"a": true, "b": false},
//	  "selected": ["a1"],
//	  "focused": "a1"
//	}
//
// Ids that no longer exist are ignored. Ids below nodes whose children load
// lazily stay pending until those children arrive.
type TreeState struct {
	Version  int             `json:"version"`
	Expanded map[string]bool `json:"expanded"`
	Selected []string        `json:"selected,omitempty"`
	Focused  string          `json:"focused,omitempty"`
}

// TreeStateVersion is the current schema version for tree persistence
const TreeStateVersion = 1

// DefaultTreeState returns an empty state.
func DefaultTreeState() *TreeState {
	return &TreeState{
		Version:  TreeStateVersion,
		Expanded: make(map[string]bool),
	}
}

const treeStateFileName = "tree-state.json"

// TreeStatePath returns the state file inside stateDir, or .treeview in the
// current directory when stateDir is empty.
func TreeStatePath(stateDir string) string {
	if stateDir == "" {
		stateDir = ".treeview"
	}
	return filepath.Join(stateDir, treeStateFileName)
}

// CaptureState records the expansion of every expandable node, the selected
// nodes and the focused node.
func CaptureState(tr *tree.Tree) *TreeState {
	state := DefaultTreeState()
	tr.DepthFirst(func(m *meta.Model) bool {
		id := m.ID()
		if id == "" {
			return true
		}
		if m.Expandable {
			state.Expanded[id] = m.State.Expanded
		}
		if m.State.Selected {
			state.Selected = append(state.Selected, id)
		}
		return true
	})
	if f := tr.Focused(); f != nil {
		state.Focused = f.ID()
	}
	return state
}

// SaveState writes state to path. Errors are logged but do not interrupt
// the user.
func SaveState(path string, state *TreeState) {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		log.Printf("warning: failed to marshal tree state: %v", err)
		return
	}
	if err := loader.WriteAtomic(path, data); err != nil {
		log.Printf("warning: failed to write tree state to %s: %v", path, err)
	}
}

// LoadState reads the state at path. A missing or corrupted file yields
// nil, which means defaults.
func LoadState(path string) *TreeState {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("warning: failed to read tree state %s: %v", path, err)
		}
		return nil
	}
	var state TreeState
	if err := json.Unmarshal(data, &state); err != nil {
		log.Printf("warning: invalid tree state file, using defaults: %v", err)
		return nil
	}
	if state.Expanded == nil {
		state.Expanded = make(map[string]bool)
	}
	return &state
}

// Apply restores whatever part of the state the tree currently has nodes
// for and removes it from s. The returned command loads children of
// restored lazy nodes; apply s again once they arrive.
func (s *TreeState) Apply(tr *tree.Tree) tea.Cmd {
	if s == nil {
		return nil
	}
	var cmds []tea.Cmd
	for id, expanded := range s.Expanded {
		m := tr.FindByID(id)
		if m == nil {
			continue
		}
		delete(s.Expanded, id)
		if m.State.Expanded == expanded || (expanded && !tr.CanExpand(m)) {
			continue
		}
		if cmd := tr.SetExpanded(m, expanded); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	switch tr.SelectionMode() {
	case tree.SelectionSingle, tree.SelectionMultiple:
		remaining := s.Selected[:0]
		for _, id := range s.Selected {
			m := tr.FindByID(id)
			if m == nil {
				remaining = append(remaining, id)
				continue
			}
			if m.Selectable {
				tr.SetSelected(m, true)
			}
		}
		s.Selected = remaining
	default:
		s.Selected = nil
	}

	if s.Focused != "" {
		if m := tr.FindByID(s.Focused); m != nil && tr.IsIncluded(m) {
			tr.FocusKeepingDOM(m)
			s.Focused = ""
		}
	}
	return tea.Batch(cmds...)
}

// Pending reports whether some of the state still waits for its nodes.
func (s *TreeState) Pending() bool {
	return s != nil && (len(s.Expanded) > 0 || len(s.Selected) > 0 || s.Focused != "")
}

// renderRow renders one visible row: branch prefix, expander, input,
// selection mark and label.
func (m Model) renderRow(row tree.Row, width int) string {
	n := row.Node
	r := m.theme.Renderer
	var sb strings.Builder

	prefix := m.buildTreePrefix(row)
	sb.WriteString(prefix)

	indicatorStyle := r.NewStyle().Foreground(m.theme.Secondary)
	sb.WriteString(indicatorStyle.Render(m.expandIndicator(n)))
	sb.WriteString(" ")

	if box := m.inputMarker(n); box != "" {
		style := r.NewStyle().Foreground(m.theme.Subtext)
		if tree.IsInputDisabled(n) {
			style = style.Foreground(m.theme.Muted)
		}
		sb.WriteString(style.Render(box))
		sb.WriteString(" ")
	}

	label := n.Label()
	if label == "" {
		label = n.ID()
	}
	used := lipgloss.Width(prefix) + 2
	if box := m.inputMarker(n); box != "" {
		used += runewidth.StringWidth(box) + 1
	}
	label = truncateTitle(label, width-used-2)

	labelStyle := r.NewStyle()
	switch {
	case n.Internal.IsDropTarget:
		labelStyle = m.theme.DropTarget
	case n.State.Selected && m.tree.AriaSelected(n) != nil:
		labelStyle = m.theme.Selected
	}
	if n.Internal.Dragging {
		labelStyle = labelStyle.Faint(true)
	}
	sb.WriteString(labelStyle.Render(label))

	if mark := dropMarker(n); mark != "" {
		sb.WriteString(" ")
		sb.WriteString(r.NewStyle().Foreground(m.theme.Highlight).Render(mark))
	}
	if n.Internal.AreChildrenLoading {
		sb.WriteString(r.NewStyle().Foreground(m.theme.Muted).Italic(true).Render(" loading…"))
	}

	line := sb.String()
	if n.Focusable {
		line = m.theme.Focused.Render(line)
	}
	return line
}

// buildTreePrefix builds the indentation and branch characters for a row.
func (m Model) buildTreePrefix(row tree.Row) string {
	if row.Depth == 0 {
		return ""
	}
	path := m.tree.Path(row.Node)
	var parts []string
	// Ancestors between the root level and the parent draw a rail when more
	// visible siblings follow them.
	for i := 1; i < len(path)-1; i++ {
		if m.hasVisibleSiblingBelow(path[:i+1]) {
			parts = append(parts, "│   ")
		} else {
			parts = append(parts, "    ")
		}
	}
	if row.Last {
		parts = append(parts, "└── ")
	} else {
		parts = append(parts, "├── ")
	}
	style := m.theme.Renderer.NewStyle().Foreground(m.theme.Muted)
	return style.Render(strings.Join(parts, ""))
}

// hasVisibleSiblingBelow reports whether the last node of path has a later
// sibling that the filter includes.
func (m Model) hasVisibleSiblingBelow(path []*meta.Model) bool {
	n := path[len(path)-1]
	var siblings []*meta.Model
	if len(path) == 1 {
		for _, r := range m.tree.Roots() {
			if m.tree.IsIncluded(r) {
				siblings = append(siblings, r)
			}
		}
	} else {
		siblings = m.tree.FilteredChildren(path[len(path)-2])
	}
	for i, s := range siblings {
		if s == n {
			return i < len(siblings)-1
		}
	}
	return false
}

func (m Model) expandIndicator(n *meta.Model) string {
	if !m.tree.CanExpand(n) {
		return "•"
	}
	if n.State.Expanded {
		return "▾"
	}
	return "▸"
}

func (m Model) inputMarker(n *meta.Model) string {
	if n.Input == nil {
		return ""
	}
	checked := m.tree.IsChecked(n)
	switch n.Input.Type {
	case meta.InputCheckbox:
		if checked {
			return "[x]"
		}
		return "[ ]"
	case meta.InputRadio:
		if checked {
			return "(•)"
		}
		return "( )"
	}
	return ""
}

func dropMarker(n *meta.Model) string {
	switch {
	case n.Internal.IsPrevDropTarget:
		return "↑ before"
	case n.Internal.IsNextDropTarget:
		return "↓ after"
	case n.Internal.IsChildDropTarget:
		return "→ into"
	}
	return ""
}

// truncateTitle truncates a title to maxLen display cells with an ellipsis.
func truncateTitle(title string, maxLen int) string {
	if maxLen <= 0 {
		return title
	}
	if runewidth.StringWidth(title) <= maxLen {
		return title
	}
	if maxLen <= 3 {
		return runewidth.Truncate(title, maxLen, "")
	}
	return runewidth.Truncate(title, maxLen, "…")
}
