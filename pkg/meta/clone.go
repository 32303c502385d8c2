package meta

import (
	"github.com/vanderheijden86/treeview/pkg/model"
	"github.com/vanderheijden86/treeview/pkg/objutil"
)

// Clone returns a copy of m and its subtree. The raw data is deep-copied
// with objutil.DeepCopy and each cloned child points at the matching copied
// raw child. Callbacks are shared by reference.
func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	c := cloneShallow(m)
	c.Data = objutil.CopyNode(m.Data)
	relinkChildren(c, m.Children)
	return c
}

func cloneShallow(m *Model) *Model {
	c := *m
	if m.Input != nil {
		in := *m.Input
		c.Input = &in
	}
	if m.State.Input != nil {
		st := *m.State.Input
		c.State.Input = &st
	}
	c.Internal = Internal{
		AreChildrenLoaded:    m.Internal.AreChildrenLoaded,
		MatchesFilter:        m.Internal.MatchesFilter,
		SubnodeMatchesFilter: m.Internal.SubnodeMatchesFilter,
	}
	c.Children = nil
	return &c
}

// relinkChildren rebuilds c.Children from source metas so each clone points
// at c's own raw children by position.
func relinkChildren(c *Model, source []*Model) {
	raws, _ := c.RawChildren()
	if len(raws) != len(source) {
		c.Children = nil
		return
	}
	c.Children = make([]*Model, len(source))
	for i, src := range source {
		child := cloneShallow(src)
		child.Data = raws[i]
		relinkChildren(child, src.Children)
		c.Children[i] = child
	}
}

// Rehydrate prepares a meta model decoded from a serialized payload for use
// in a tree: child meta models are re-pointed at the raw children of m.Data
// by position (decoding produces separate copies of them), and every model
// is marked as already normalized so decoded settings are kept.
func Rehydrate(m *Model) {
	if m == nil {
		return
	}
	if m.Data == nil {
		m.Data = model.Node{}
	}
	m.normalized = true
	raws, _ := m.RawChildren()
	if len(raws) != len(m.Children) {
		m.Children = nil
		return
	}
	for i, child := range m.Children {
		if child == nil {
			m.Children = nil
			return
		}
		child.Data = raws[i]
		Rehydrate(child)
	}
}
