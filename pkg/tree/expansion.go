package tree

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/model"
)

// ChildrenLoadedMsg carries the result of a node's async child loader.
type ChildrenLoadedMsg struct {
	TreeID   string
	Node     *meta.Model
	Children []model.Node
	Err      error
}

// RootNodesLoadedMsg carries the result of the tree's root loader.
type RootNodesLoadedMsg struct {
	TreeID string
	Nodes  []model.Node
	Err    error
}

// CanExpand reports whether m is expandable and has, or may still load,
// children included by the active filter.
func (t *Tree) CanExpand(m *meta.Model) bool {
	if m == nil || !m.Expandable {
		return false
	}
	if !m.Internal.AreChildrenLoaded {
		return true
	}
	return len(t.FilteredChildren(m)) > 0
}

// ToggleExpanded flips m's expansion when it can expand. The returned
// command loads children for async nodes being expanded.
func (t *Tree) ToggleExpanded(m *meta.Model) tea.Cmd {
	if !t.CanExpand(m) {
		return nil
	}
	return t.SetExpanded(m, !m.State.Expanded)
}

// SetExpanded sets m's expansion and reports the change. Expanding a node
// whose children load asynchronously returns the load command.
func (t *Tree) SetExpanded(m *meta.Model, expanded bool) tea.Cmd {
	if m == nil {
		return nil
	}
	m.State.Expanded = expanded
	t.emit(Event{Kind: EventExpandedChange, Node: m})
	if !expanded {
		t.hiddenFocusToAncestor()
	}
	if expanded && m.LoadChildrenAsync != nil {
		return t.LoadChildren(m)
	}
	return nil
}

// ExpandAll expands every expandable node. Async nodes are not loaded.
func (t *Tree) ExpandAll() {
	t.setAllExpanded(true)
}

// CollapseAll collapses every node.
func (t *Tree) CollapseAll() {
	t.setAllExpanded(false)
}

func (t *Tree) setAllExpanded(expanded bool) {
	t.DepthFirst(func(m *meta.Model) bool {
		if m.Expandable && m.Internal.AreChildrenLoaded && m.State.Expanded != expanded {
			m.State.Expanded = expanded
			t.emit(Event{Kind: EventExpandedChange, Node: m})
		}
		return true
	})
	t.hiddenFocusToAncestor()
}

// hiddenFocusToAncestor moves focus to the nearest visible ancestor when
// collapsing hid the focused node.
func (t *Tree) hiddenFocusToAncestor() {
	path := t.Path(t.focused)
	for i := 0; i < len(path)-1; i++ {
		if !path[i].State.Expanded {
			t.focus(path[i], true)
			return
		}
	}
}

// LoadChildren starts loading m's children. It returns nil when m has no
// loader or a load is already in flight or done, so duplicate requests
// collapse into one callback invocation.
func (t *Tree) LoadChildren(m *meta.Model) tea.Cmd {
	if m == nil || m.LoadChildrenAsync == nil {
		return nil
	}
	if m.Internal.AreChildrenLoading || m.Internal.AreChildrenLoaded {
		return nil
	}
	m.Internal.AreChildrenLoading = true

	ctx, load, treeID := t.ctx, m.LoadChildrenAsync, t.id
	return func() tea.Msg {
		children, err := load(ctx, m)
		return ChildrenLoadedMsg{TreeID: treeID, Node: m, Children: children, Err: err}
	}
}

func (t *Tree) applyChildrenLoaded(msg ChildrenLoadedMsg) error {
	m := msg.Node
	if m == nil {
		return nil
	}
	m.Internal.AreChildrenLoading = false
	if msg.Err != nil {
		return CallbackError{Op: "loadChildren", NodeID: m.ID(), Cause: msg.Err}
	}
	if len(msg.Children) == 0 {
		// Stays not loaded; expanding again retries.
		return nil
	}

	existing, _ := m.RawChildren()
	m.SpliceChildren(0, len(existing), msg.Children...)
	m.Internal.AreChildrenLoaded = true
	t.Sync()
	t.emit(Event{Kind: EventChildrenLoad, Node: m})
	return nil
}

// LoadRootNodes starts the root loader. Like LoadChildren, it is a no-op
// while a load is in flight or after one succeeded.
func (t *Tree) LoadRootNodes() tea.Cmd {
	if t.loadNodesAsync == nil || t.rootsLoading || t.rootsLoaded {
		return nil
	}
	t.rootsLoading = true

	ctx, load, treeID := t.ctx, t.loadNodesAsync, t.id
	return func() tea.Msg {
		nodes, err := load(ctx)
		return RootNodesLoadedMsg{TreeID: treeID, Nodes: nodes, Err: err}
	}
}

func (t *Tree) applyRootNodesLoaded(msg RootNodesLoadedMsg) error {
	t.rootsLoading = false
	if msg.Err != nil {
		return CallbackError{Op: "loadNodes", Cause: msg.Err}
	}
	if len(msg.Nodes) == 0 {
		return nil
	}
	meta.SpliceList(&t.data, &t.roots, 0, len(t.data), msg.Nodes...)
	t.rootsLoaded = true
	t.refresh()
	t.reconcileFocus()
	t.EnforceSelectionMode()
	t.emit(Event{Kind: EventRootNodesLoad, Roots: t.data})
	return nil
}
