package tree

import "github.com/vanderheijden86/treeview/pkg/meta"

// Visitor is called for each node during a traversal. Returning false stops
// the traversal.
type Visitor func(m *meta.Model) bool

// DepthFirst visits nodes and their descendants in pre-order. It reports
// whether the traversal ran to completion.
func DepthFirst(nodes []*meta.Model, visit Visitor) bool {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if !visit(n) {
			return false
		}
		if !DepthFirst(n.Children, visit) {
			return false
		}
	}
	return true
}

// BreadthFirst visits nodes level by level. It reports whether the traversal
// ran to completion.
func BreadthFirst(nodes []*meta.Model, visit Visitor) bool {
	queue := append([]*meta.Model(nil), nodes...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n == nil {
			continue
		}
		if !visit(n) {
			return false
		}
		queue = append(queue, n.Children...)
	}
	return true
}

// DepthFirst traverses the whole tree in pre-order.
func (t *Tree) DepthFirst(visit Visitor) bool {
	return DepthFirst(t.roots, visit)
}

// BreadthFirst traverses the whole tree level by level.
func (t *Tree) BreadthFirst(visit Visitor) bool {
	return BreadthFirst(t.roots, visit)
}

// Row is one line of the visible, flattened tree.
type Row struct {
	Node   *meta.Model
	Parent *meta.Model
	Depth  int
	// Last is true when Node is the last visible sibling.
	Last bool
}

// Visible flattens the nodes a renderer should show: filter-included nodes
// whose ancestors are all expanded.
func (t *Tree) Visible() []Row {
	var rows []Row
	var walk func(parent *meta.Model, nodes []*meta.Model, depth int)
	walk = func(parent *meta.Model, nodes []*meta.Model, depth int) {
		for i, n := range nodes {
			rows = append(rows, Row{Node: n, Parent: parent, Depth: depth, Last: i == len(nodes)-1})
			if n.State.Expanded {
				walk(n, t.FilteredChildren(n), depth+1)
			}
		}
	}
	walk(nil, t.filterList(t.roots), 0)
	return rows
}

// Path returns the chain of nodes from a root down to m, inclusive, or nil
// when m is not in the tree.
func (t *Tree) Path(m *meta.Model) []*meta.Model {
	if m == nil {
		return nil
	}
	var path []*meta.Model
	var find func(nodes []*meta.Model) bool
	find = func(nodes []*meta.Model) bool {
		for _, n := range nodes {
			path = append(path, n)
			if n == m || find(n.Children) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}
	if !find(t.roots) {
		return nil
	}
	return path
}

// ParentOf returns m's parent, or nil for root nodes and unknown nodes.
func (t *Tree) ParentOf(m *meta.Model) *meta.Model {
	path := t.Path(m)
	if len(path) < 2 {
		return nil
	}
	return path[len(path)-2]
}

// contains reports whether n is ancestor or one of its descendants.
func contains(ancestor, n *meta.Model) bool {
	found := false
	DepthFirst([]*meta.Model{ancestor}, func(x *meta.Model) bool {
		if x == n {
			found = true
			return false
		}
		return true
	})
	return found
}
