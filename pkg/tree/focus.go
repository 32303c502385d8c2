package tree

import "github.com/vanderheijden86/treeview/pkg/meta"

// Focus makes m the tree's single focusable node and moves input focus to
// its element. A node that is not in the tree is ignored.
func (t *Tree) Focus(m *meta.Model) {
	if m == nil || t.Path(m) == nil {
		return
	}
	t.focus(m, false)
}

// FocusKeepingDOM makes m focusable without moving input focus, for when the
// element already has it (a click, for example).
func (t *Tree) FocusKeepingDOM(m *meta.Model) {
	if m == nil || t.Path(m) == nil {
		return
	}
	t.focus(m, true)
}

// focus is the focus primitive plus the tree-level watchers it triggers:
// the previous focusable node is unfocused and, under
// SelectionFollowsFocus, selection moves along.
func (t *Tree) focus(m *meta.Model, keepCurrentDomFocus bool) {
	if prev := t.focused; prev != nil && prev != m {
		t.unfocus(prev)
	}

	changed := !m.Focusable
	m.Focusable = true
	t.focused = m
	t.pendingRefocus = false

	if !keepCurrentDomFocus && !m.Internal.KeepCurrentDomFocus && t.focuser != nil {
		t.focuser.FocusElement(m)
	}
	m.Internal.KeepCurrentDomFocus = false

	if changed {
		t.emit(Event{Kind: EventFocusable, Node: m})
	}
	if t.mode == SelectionFollowsFocus && m.Selectable {
		t.selectExclusive(m)
	}
}

// Unfocus clears m's focusable flag. The tree keeps no focus target until
// another node is focused.
func (t *Tree) Unfocus(m *meta.Model) {
	if m == nil {
		return
	}
	t.unfocus(m)
	if t.focused == m {
		t.focused = nil
	}
}

func (t *Tree) unfocus(m *meta.Model) {
	if !m.Focusable {
		return
	}
	m.Focusable = false
	t.emit(Event{Kind: EventFocusable, Node: m})
}

// FocusFirst focuses the first included node of collection.
func (t *Tree) FocusFirst(collection []*meta.Model) bool {
	visible := t.filterList(collection)
	if len(visible) == 0 {
		return false
	}
	t.focus(visible[0], false)
	return true
}

// FocusLast focuses the last included node of collection, descending into
// the last child of each expanded node.
func (t *Tree) FocusLast(collection []*meta.Model) bool {
	visible := t.filterList(collection)
	if len(visible) == 0 {
		return false
	}
	t.focus(t.deepestLastExpanded(visible[len(visible)-1]), false)
	return true
}

func (t *Tree) deepestLastExpanded(m *meta.Model) *meta.Model {
	for m.State.Expanded {
		kids := t.FilteredChildren(m)
		if len(kids) == 0 {
			break
		}
		m = kids[len(kids)-1]
	}
	return m
}

// FocusFirstItem focuses the first included root node.
func (t *Tree) FocusFirstItem() bool {
	return t.FocusFirst(t.roots)
}

// FocusLastItem focuses the last visible node of the whole tree.
func (t *Tree) FocusLastItem() bool {
	return t.FocusLast(t.roots)
}

// focusNextIn is the node-scoped "next" step: the first child of an
// expanded from, else the next included sibling. It fails when from is the
// last sibling so the caller can retry one level up.
func (t *Tree) focusNextIn(collection []*meta.Model, from *meta.Model, ignoreChildren bool) bool {
	if !ignoreChildren && from.State.Expanded {
		if kids := t.FilteredChildren(from); len(kids) > 0 {
			t.focus(kids[0], false)
			return true
		}
	}
	visible := t.filterList(collection)
	for i, n := range visible {
		if n == from {
			if i+1 < len(visible) {
				t.focus(visible[i+1], false)
				return true
			}
			return false
		}
	}
	return false
}

// FocusNext moves focus to the node after from in visible order. A failed
// attempt at one level bubbles up to the parent's sibling list with children
// ignored. It returns false, leaving focus unchanged, when from is the last
// visible node; the last RequestNextFocus event then names a root node.
func (t *Tree) FocusNext(from *meta.Model, ignoreChildren bool) bool {
	path := t.Path(from)
	if path == nil {
		return false
	}
	node := from
	for level := len(path) - 1; level >= 0; level-- {
		if t.focusNextIn(t.siblingsAt(path, level), node, ignoreChildren) {
			return true
		}
		// Each level that cannot move on hands the request to its parent.
		t.emit(Event{Kind: EventRequestNextFocus, Node: node, IgnoreChildren: ignoreChildren})
		if level > 0 {
			node = path[level-1]
			ignoreChildren = true
		}
	}
	return false
}

// FocusPrevious moves focus to the node before from in visible order: the
// deepest expanded descendant of the previous sibling, or the parent when
// from is a first child. It returns false for the first root.
func (t *Tree) FocusPrevious(from *meta.Model) bool {
	path := t.Path(from)
	if path == nil {
		return false
	}
	visible := t.filterList(t.siblingsAt(path, len(path)-1))
	for i, n := range visible {
		if n != from {
			continue
		}
		if i > 0 {
			t.focus(t.deepestLastExpanded(visible[i-1]), false)
			return true
		}
		break
	}
	if len(path) < 2 {
		return false
	}
	t.emit(Event{Kind: EventRequestPreviousFocus, Node: from})
	t.focus(path[len(path)-2], false)
	return true
}

// FocusParent focuses from's parent. It returns false for root nodes.
func (t *Tree) FocusParent(from *meta.Model) bool {
	path := t.Path(from)
	if len(path) < 2 {
		return false
	}
	t.emit(Event{Kind: EventRequestParentFocus, Node: from})
	t.focus(path[len(path)-2], false)
	return true
}

// siblingsAt returns the full sibling list of path[level].
func (t *Tree) siblingsAt(path []*meta.Model, level int) []*meta.Model {
	if level == 0 {
		return t.roots
	}
	return path[level-1].Children
}

// focusFirstIncluded focuses the first included root, or records that a
// refocus is due once the filtered root set becomes non-empty.
func (t *Tree) focusFirstIncluded(keepCurrentDomFocus bool) {
	included := t.filterList(t.roots)
	if len(included) == 0 {
		t.pendingRefocus = len(t.roots) > 0
		return
	}
	t.focus(included[0], keepCurrentDomFocus)
}
