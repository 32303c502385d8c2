package store

import (
	"context"

	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/model"
)

// LoadNodes reads the top level. It has the shape of tree.RootLoaderFunc.
func (s *Store) LoadNodes(ctx context.Context) ([]model.Node, error) {
	return s.Roots(ctx)
}

// LoadChildren reads the children of node.
func (s *Store) LoadChildren(ctx context.Context, node *meta.Model) ([]model.Node, error) {
	return s.Children(ctx, node.ID())
}

// AddChild inserts a new node below parent.
func (s *Store) AddChild(ctx context.Context, parent *meta.Model) (model.Node, error) {
	return s.Add(ctx, parent.ID(), NewNodeLabel)
}

// DeleteNode removes node and its subtree. A node the store does not know
// about is still allowed to go.
func (s *Store) DeleteNode(ctx context.Context, node *meta.Model) (bool, error) {
	if _, err := s.Delete(ctx, node.ID()); err != nil {
		return false, err
	}
	return true, nil
}

// Defaults wraps base so every node is backed by the store: nodes with rows
// below them load children on expand, and all nodes can add and delete.
func (s *Store) Defaults(base meta.DefaultsFunc) meta.DefaultsFunc {
	return func(n model.Node) *meta.Overrides {
		var o *meta.Overrides
		if base != nil {
			o = base(n)
		}
		hooks := &meta.Overrides{
			AddChildCallback:   s.AddChild,
			DeleteNodeCallback: s.DeleteNode,
		}
		if hasChildren, _ := n[HasChildrenProperty].(bool); hasChildren {
			hooks.LoadChildrenAsync = s.LoadChildren
		}
		return meta.Merge(o, hooks)
	}
}
