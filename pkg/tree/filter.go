package tree

import "github.com/vanderheijden86/treeview/pkg/meta"

// Filter returns the active filter, or nil.
func (t *Tree) Filter() FilterFunc { return t.filter }

// SetFilter replaces the active filter (nil removes it) and recomputes
// filter state for every node.
func (t *Tree) SetFilter(f FilterFunc) {
	t.filter = f
	t.applyFilter()
}

// IsIncluded reports whether m is shown under the active filter: it matches
// itself or some descendant does.
func (t *Tree) IsIncluded(m *meta.Model) bool {
	return m != nil && (m.Internal.MatchesFilter || m.Internal.SubnodeMatchesFilter)
}

// FilteredChildren returns the children of m included by the active filter.
func (t *Tree) FilteredChildren(m *meta.Model) []*meta.Model {
	if m == nil {
		return nil
	}
	return t.filterList(m.Children)
}

func (t *Tree) filterList(nodes []*meta.Model) []*meta.Model {
	if t.filter == nil {
		return nodes
	}
	out := make([]*meta.Model, 0, len(nodes))
	for _, n := range nodes {
		if t.IsIncluded(n) {
			out = append(out, n)
		}
	}
	return out
}

// applyFilter recomputes match state bottom-up and then keeps focus on an
// included node. Refocusing after the filter hid the focused node does not
// move input focus, since the user is typing into the filter.
func (t *Tree) applyFilter() {
	for _, r := range t.roots {
		t.computeMatch(r)
	}

	if t.focused != nil && !t.IsIncluded(t.focused) {
		t.unfocus(t.focused)
		t.focused = nil
		t.emit(Event{Kind: EventRequestFirstFocus})
		t.focusFirstIncluded(true)
		return
	}

	if len(t.filterList(t.roots)) == 0 {
		if len(t.roots) > 0 {
			t.pendingRefocus = true
		}
		return
	}
	if t.pendingRefocus || (t.focused == nil && t.ready) {
		t.focusFirstIncluded(true)
	}
}

func (t *Tree) computeMatch(m *meta.Model) {
	sub := false
	for _, c := range m.Children {
		t.computeMatch(c)
		if c.Internal.MatchesFilter || c.Internal.SubnodeMatchesFilter {
			sub = true
		}
	}
	m.Internal.SubnodeMatchesFilter = sub
	m.Internal.MatchesFilter = t.filter == nil || t.filter(m)
}

// PendingRefocus reports whether the tree is waiting for the filtered root
// set to become non-empty before focusing its first node.
func (t *Tree) PendingRefocus() bool { return t.pendingRefocus }
