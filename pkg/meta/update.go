package meta

import (
	"fmt"

	"github.com/vanderheijden86/treeview/pkg/model"
)

// SpliceList removes deleteCount entries at index from both raw and metas and
// inserts items there, creating a meta model for each inserted raw node.
// Index and count are clamped the way Array.prototype.splice clamps them.
// It returns the removed meta models.
func SpliceList(raw *[]model.Node, metas *[]*Model, index, deleteCount int, items ...model.Node) []*Model {
	inserted := make([]*Model, len(items))
	for i, item := range items {
		inserted[i] = CreateMetaModel(item)
	}
	return spliceModels(raw, metas, index, deleteCount, inserted)
}

// InsertModels inserts existing meta models (and their raw nodes) at index,
// keeping the meta models' identity and state.
func InsertModels(raw *[]model.Node, metas *[]*Model, index int, models ...*Model) {
	spliceModels(raw, metas, index, 0, models)
}

func spliceModels(raw *[]model.Node, metas *[]*Model, index, deleteCount int, inserted []*Model) []*Model {
	*metas = SyncList(*raw, *metas)

	n := len(*raw)
	index = clampIndex(index, n)
	if deleteCount < 0 {
		deleteCount = 0
	}
	if deleteCount > n-index {
		deleteCount = n - index
	}

	removed := append([]*Model(nil), (*metas)[index:index+deleteCount]...)

	newRaw := make([]model.Node, 0, n-deleteCount+len(inserted))
	newRaw = append(newRaw, (*raw)[:index]...)
	newMeta := make([]*Model, 0, n-deleteCount+len(inserted))
	newMeta = append(newMeta, (*metas)[:index]...)
	for _, mm := range inserted {
		if mm.Data == nil {
			mm.Data = model.Node{}
		}
		newRaw = append(newRaw, mm.Data)
		newMeta = append(newMeta, mm)
	}
	newRaw = append(newRaw, (*raw)[index+deleteCount:]...)
	newMeta = append(newMeta, (*metas)[index+deleteCount:]...)

	*raw = newRaw
	*metas = newMeta
	return removed
}

func clampIndex(index, n int) int {
	if index < 0 {
		index += n
		if index < 0 {
			index = 0
		}
	}
	if index > n {
		index = n
	}
	return index
}

// SpliceChildren splices m's raw children and child meta models together.
// The raw children list is created when absent.
func (m *Model) SpliceChildren(index, deleteCount int, items ...model.Node) []*Model {
	raws, _ := m.RawChildren()
	removed := SpliceList(&raws, &m.Children, index, deleteCount, items...)
	m.Data.SetChildren(m.ChildrenProperty, raws)
	return removed
}

// InsertChildren inserts existing meta models as children of m at index.
func (m *Model) InsertChildren(index int, models ...*Model) {
	raws, _ := m.RawChildren()
	InsertModels(&raws, &m.Children, index, models...)
	m.Data.SetChildren(m.ChildrenProperty, raws)
}

// PushChild appends raw as the last child of m and returns its meta model.
func (m *Model) PushChild(raw model.Node) *Model {
	raws, _ := m.RawChildren()
	m.SpliceChildren(len(raws), 0, raw)
	return m.Children[len(m.Children)-1]
}

// CheckParallel verifies recursively that metas is index-aligned with raws.
func CheckParallel(raws []model.Node, metas []*Model) error {
	if len(raws) != len(metas) {
		return fmt.Errorf("length mismatch: %d raw nodes, %d meta models", len(raws), len(metas))
	}
	for i := range raws {
		if metas[i] == nil {
			return fmt.Errorf("index %d: nil meta model", i)
		}
		if !model.Same(metas[i].Data, raws[i]) {
			return fmt.Errorf("index %d: meta model %q does not point at raw node %q",
				i, metas[i].ID(), raws[i].ID(metas[i].IDProperty))
		}
		kids, _ := metas[i].RawChildren()
		if err := CheckParallel(kids, metas[i].Children); err != nil {
			return fmt.Errorf("%s: %w", metas[i].ID(), err)
		}
	}
	return nil
}
