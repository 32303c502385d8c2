package tree

import "github.com/vanderheijden86/treeview/pkg/meta"

// SelectionMode is the tree-wide selection policy.
type SelectionMode string

const (
	SelectionNone         SelectionMode = "none"
	SelectionSingle       SelectionMode = "single"
	SelectionMultiple     SelectionMode = "multiple"
	SelectionFollowsFocus SelectionMode = "selectionFollowsFocus"
)

// IsValid reports whether m is a known mode.
func (m SelectionMode) IsValid() bool {
	switch m {
	case SelectionNone, SelectionSingle, SelectionMultiple, SelectionFollowsFocus:
		return true
	}
	return false
}

// ParseSelectionMode accepts the mode names used in config files.
func ParseSelectionMode(s string) (SelectionMode, bool) {
	switch s {
	case "", "none":
		return SelectionNone, true
	case "single":
		return SelectionSingle, true
	case "multiple", "multi":
		return SelectionMultiple, true
	case "selectionFollowsFocus", "selection_follows_focus", "follow-focus", "follows-focus":
		return SelectionFollowsFocus, true
	}
	return SelectionNone, false
}

// SelectionMode returns the active mode.
func (t *Tree) SelectionMode() SelectionMode { return t.mode }

// SetSelectionMode switches modes and immediately enforces the new mode's
// invariant over the whole tree.
func (t *Tree) SetSelectionMode(mode SelectionMode) {
	if !mode.IsValid() {
		return
	}
	t.mode = mode
	t.EnforceSelectionMode()
}

// EnforceSelectionMode applies the active mode's invariant to state the
// caller may have changed directly. Single keeps the first selected node in
// depth-first order. SelectionFollowsFocus selects the focused node when it
// is selectable and otherwise behaves like Single.
func (t *Tree) EnforceSelectionMode() {
	switch t.mode {
	case SelectionSingle:
		t.dedupeSelection()
	case SelectionFollowsFocus:
		if t.focused != nil && t.focused.Selectable {
			t.selectExclusive(t.focused)
		} else {
			t.dedupeSelection()
		}
	}
}

func (t *Tree) dedupeSelection() {
	var keep *meta.Model
	t.DepthFirst(func(m *meta.Model) bool {
		if !m.State.Selected {
			return true
		}
		if keep == nil {
			keep = m
			return true
		}
		t.setSelected(m, false)
		return true
	})
}

// selectExclusive selects m and deselects every other node.
func (t *Tree) selectExclusive(m *meta.Model) {
	t.setSelected(m, true)
	t.DepthFirst(func(n *meta.Model) bool {
		if n != m && n.State.Selected {
			t.setSelected(n, false)
		}
		return true
	})
}

func (t *Tree) setSelected(m *meta.Model, selected bool) {
	if m.State.Selected == selected {
		return
	}
	m.State.Selected = selected
	t.emit(Event{Kind: EventSelectedChange, Node: m})
}

// ToggleSelected flips m's selection. It is a no-op when m is not
// selectable, under mode None, and under SelectionFollowsFocus, where
// selection only follows focus. Under Single, selecting m deselects the
// previous selection. It reports whether the state changed.
func (t *Tree) ToggleSelected(m *meta.Model) bool {
	if m == nil || !m.Selectable {
		return false
	}
	switch t.mode {
	case SelectionNone, SelectionFollowsFocus:
		return false
	}
	t.SetSelected(m, !m.State.Selected)
	return true
}

// SetSelected sets m's selection, applying the Single mode invariant.
func (t *Tree) SetSelected(m *meta.Model, selected bool) {
	if m == nil {
		return
	}
	if selected && t.mode == SelectionSingle {
		t.selectExclusive(m)
		return
	}
	t.setSelected(m, selected)
}

// AriaSelected returns the aria-selected value for m: nil when the
// attribute is omitted. Single-select modes report true or nil; Multiple
// reports true or false.
func AriaSelected(mode SelectionMode, m *meta.Model) *bool {
	if m == nil || mode == SelectionNone || !m.Selectable {
		return nil
	}
	if mode == SelectionMultiple {
		v := m.State.Selected
		return &v
	}
	if m.State.Selected {
		v := true
		return &v
	}
	return nil
}

// AriaSelected returns the aria-selected value of m under the tree's mode.
func (t *Tree) AriaSelected(m *meta.Model) *bool {
	return AriaSelected(t.mode, m)
}
