package tree

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/model"
)

// ChildAddedMsg carries the node produced by an add-child callback.
type ChildAddedMsg struct {
	TreeID string
	Parent *meta.Model
	Node   model.Node
	Err    error
}

// NodeDeletedMsg carries the answer of a delete-node callback.
type NodeDeletedMsg struct {
	TreeID    string
	Node      *meta.Model
	Confirmed bool
	Err       error
}

// AddChild asks parent's add-child callback for a new child. It returns nil
// when parent has no callback.
func (t *Tree) AddChild(parent *meta.Model) tea.Cmd {
	if parent == nil || parent.AddChildCallback == nil {
		return nil
	}
	ctx, add, treeID := t.ctx, parent.AddChildCallback, t.id
	return func() tea.Msg {
		node, err := add(ctx, parent)
		return ChildAddedMsg{TreeID: treeID, Parent: parent, Node: node, Err: err}
	}
}

func (t *Tree) applyChildAdded(msg ChildAddedMsg) error {
	parent := msg.Parent
	if parent == nil {
		return nil
	}
	if msg.Err != nil {
		return CallbackError{Op: "addChild", NodeID: parent.ID(), Cause: msg.Err}
	}
	if msg.Node == nil || t.Path(parent) == nil {
		return nil
	}
	if _, ok := parent.RawChildren(); !ok {
		log.Printf("warning: cannot add a child to node %q: %q is not a list", parent.ID(), parent.ChildrenProperty)
		return nil
	}

	child := parent.PushChild(msg.Node)
	t.Sync()
	if !parent.State.Expanded {
		t.SetExpanded(parent, true)
	}
	t.emit(Event{Kind: EventAdd, Node: child, Parent: parent})
	return nil
}

// Delete removes m when it is deletable. With a delete callback the
// removal waits for its confirmation, carried by the returned command;
// without one m is removed at once and the command is nil.
func (t *Tree) Delete(m *meta.Model) tea.Cmd {
	if m == nil || !m.Deletable || t.Path(m) == nil {
		return nil
	}
	if m.DeleteNodeCallback == nil {
		t.removeNode(m)
		return nil
	}
	ctx, confirm, treeID := t.ctx, m.DeleteNodeCallback, t.id
	return func() tea.Msg {
		ok, err := confirm(ctx, m)
		return NodeDeletedMsg{TreeID: treeID, Node: m, Confirmed: ok, Err: err}
	}
}

func (t *Tree) applyNodeDeleted(msg NodeDeletedMsg) error {
	if msg.Node == nil {
		return nil
	}
	if msg.Err != nil {
		return CallbackError{Op: "deleteNode", NodeID: msg.Node.ID(), Cause: msg.Err}
	}
	if msg.Confirmed {
		t.removeNode(msg.Node)
	}
	return nil
}

// removeNode splices m out of its parent's lists, moving focus first when
// m or one of its descendants holds it. A focused first child passes focus
// to its next sibling (or its parent); any other node passes it to the
// previous node.
func (t *Tree) removeNode(m *meta.Model) bool {
	path := t.Path(m)
	if path == nil {
		return false
	}
	if t.focused != nil && contains(m, t.focused) {
		t.redirectFocusFrom(m, path)
	}

	t.detach(m, path)
	if t.focused != nil && contains(m, t.focused) {
		t.focused.Focusable = false
		t.focused = nil
	}
	t.refresh()
	if t.focused == nil {
		t.focusFirstIncluded(true)
	}
	t.emit(Event{Kind: EventDelete, Node: m})
	return true
}

func (t *Tree) redirectFocusFrom(m *meta.Model, path []*meta.Model) {
	level := len(path) - 1
	visible := t.filterList(t.siblingsAt(path, level))
	first := len(visible) > 0 && visible[0] == m
	if !first {
		t.FocusPrevious(m)
		return
	}
	if t.focusNextIn(t.siblingsAt(path, level), m, true) {
		return
	}
	if level > 0 {
		t.focus(path[level-1], false)
	}
}

// detach splices m out of the list that holds it directly. The search
// starts at m's parent and walks up, so it ends at whichever level owns m.
func (t *Tree) detach(m *meta.Model, path []*meta.Model) bool {
	for level := len(path) - 2; level >= -1; level-- {
		var siblings []*meta.Model
		if level >= 0 {
			siblings = path[level].Children
		} else {
			siblings = t.roots
		}
		for i, n := range siblings {
			if n != m {
				continue
			}
			if level >= 0 {
				path[level].SpliceChildren(i, 1)
			} else {
				meta.SpliceList(&t.data, &t.roots, i, 1)
			}
			return true
		}
	}
	return false
}

// Apply hands the result of an async command back to the tree. Errors from
// caller callbacks come back as CallbackError. Messages for other trees and
// unknown messages are ignored.
func (t *Tree) Apply(msg tea.Msg) error {
	switch msg := msg.(type) {
	case ChildrenLoadedMsg:
		if msg.TreeID == t.id {
			return t.applyChildrenLoaded(msg)
		}
	case RootNodesLoadedMsg:
		if msg.TreeID == t.id {
			return t.applyRootNodesLoaded(msg)
		}
	case ChildAddedMsg:
		if msg.TreeID == t.id {
			return t.applyChildAdded(msg)
		}
	case NodeDeletedMsg:
		if msg.TreeID == t.id {
			return t.applyNodeDeleted(msg)
		}
	}
	return nil
}
