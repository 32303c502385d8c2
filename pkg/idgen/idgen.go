// Package idgen coins element ids and resolves id collisions for nodes that
// are copied or moved between trees.
package idgen

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/vanderheijden86/treeview/pkg/meta"
)

// Prefix starts every generated id.
const Prefix = "trv-"

const (
	idLength = 8
	alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Registry is the uniqueness oracle for element ids. It stands in for "an
// element with this id already exists on the page".
type Registry interface {
	Has(id string) bool
	Add(id string)
	Remove(id string)
}

// SetRegistry is a Registry backed by a set. It is safe for concurrent use
// so one registry can be shared by trees driven from different programs.
type SetRegistry struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewRegistry returns an empty SetRegistry.
func NewRegistry() *SetRegistry {
	return &SetRegistry{ids: make(map[string]struct{})}
}

func (r *SetRegistry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[id]
	return ok
}

func (r *SetRegistry) Add(id string) {
	r.mu.Lock()
	r.ids[id] = struct{}{}
	r.mu.Unlock()
}

func (r *SetRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.ids, id)
	r.mu.Unlock()
}

// Len returns the number of registered ids.
func (r *SetRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}

// Global is the process-wide registry used when a tree is not given one.
var Global Registry = NewRegistry()

// GenerateUniqueID returns a new id that reg does not know yet and reserves it.
func GenerateUniqueID(reg Registry) string {
	if reg == nil {
		reg = Global
	}
	buf := make([]byte, idLength)
	for {
		for i := range buf {
			buf[i] = alphabet[rand.IntN(len(alphabet))]
		}
		id := Prefix + string(buf)
		if !reg.Has(id) {
			reg.Add(id)
			return id
		}
	}
}

// ElementID is the registry key of a node rendered inside a tree.
func ElementID(scopeID, nodeID string) string {
	return scopeID + "-" + nodeID
}

// ResolveIDConflicts renames m and its descendants so that no
// "<scopeID>-<nodeID>" key is already registered. A colliding id gets the
// first free "-1", "-2", ... suffix. The new id is written to the raw node.
//
// It does not register the ids it settles on, so running it again on a tree
// that has no conflicts changes nothing.
func ResolveIDConflicts(m *meta.Model, scopeID string, reg Registry) {
	if m == nil {
		return
	}
	if reg == nil {
		reg = Global
	}

	id := m.ID()
	if reg.Has(ElementID(scopeID, id)) {
		for n := 1; ; n++ {
			candidate := fmt.Sprintf("%s-%d", id, n)
			if !reg.Has(ElementID(scopeID, candidate)) {
				m.SetID(candidate)
				break
			}
		}
	}

	for _, child := range m.Children {
		ResolveIDConflicts(child, scopeID, reg)
	}

	// A child meta model may point at a different map than the raw child at
	// the same index (payloads decoded from JSON); carry renamed ids over.
	raws, ok := m.RawChildren()
	if !ok || len(raws) != len(m.Children) {
		return
	}
	for i, child := range m.Children {
		raw := raws[i]
		if raw == nil || child == nil {
			continue
		}
		if childID := child.ID(); raw.ID(child.IDProperty) != childID {
			prop := child.IDProperty
			if prop == "" {
				prop = "id"
			}
			raw[prop] = childID
		}
	}
}
