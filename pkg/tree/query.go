package tree

import (
	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/model"
)

// FindByID returns the first node in depth-first order whose id is id, or nil.
func (t *Tree) FindByID(id string) *meta.Model {
	var found *meta.Model
	t.DepthFirst(func(m *meta.Model) bool {
		if m.ID() == id {
			found = m
			return false
		}
		return true
	})
	return found
}

// RemoveByID removes the node with id and returns its raw node, or nil when
// no node has that id. Focus moves the same way as for a deletion.
func (t *Tree) RemoveByID(id string) model.Node {
	m := t.FindByID(id)
	if m == nil {
		return nil
	}
	if !t.removeNode(m) {
		return nil
	}
	return m.Data
}

// GetMatching returns up to max nodes, depth-first, for which pred is true.
// A max of zero or less means no limit.
func (t *Tree) GetMatching(pred func(*meta.Model) bool, max int) []*meta.Model {
	var out []*meta.Model
	if pred == nil {
		return out
	}
	t.DepthFirst(func(m *meta.Model) bool {
		if pred(m) {
			out = append(out, m)
			if max > 0 && len(out) >= max {
				return false
			}
		}
		return true
	})
	return out
}

// GetSelected returns the selected nodes in depth-first order.
func (t *Tree) GetSelected() []*meta.Model {
	return t.GetMatching(func(m *meta.Model) bool { return m.State.Selected }, 0)
}

// GetCheckedCheckboxes returns the nodes whose checkbox is checked.
func (t *Tree) GetCheckedCheckboxes() []*meta.Model {
	return t.GetMatching(func(m *meta.Model) bool {
		return m.Input != nil && m.Input.Type == meta.InputCheckbox && t.IsChecked(m)
	}, 0)
}

// GetCheckedRadioButtons returns the radio nodes that hold their group's value.
func (t *Tree) GetCheckedRadioButtons() []*meta.Model {
	return t.GetMatching(func(m *meta.Model) bool {
		return m.Input != nil && m.Input.Type == meta.InputRadio && t.IsChecked(m)
	}, 0)
}
