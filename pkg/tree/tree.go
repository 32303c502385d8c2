// Package tree implements the tree-view state engine: focus, selection,
// expansion, filtering, async child loading and drag-and-drop over a meta
// model tree that shadows caller-owned raw data.
//
// A Tree is not safe for concurrent use. Operations that call caller
// callbacks return a tea.Cmd; run it anywhere, then hand the resulting
// message back to Apply on the goroutine that owns the Tree.
package tree

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treeview/pkg/idgen"
	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/model"
)

// FilterFunc decides whether a node matches the active filter.
type FilterFunc func(m *meta.Model) bool

// RootLoaderFunc loads the root nodes of a tree.
type RootLoaderFunc func(ctx context.Context) ([]model.Node, error)

// Focuser moves input focus to a node's rendered element.
type Focuser interface {
	FocusElement(m *meta.Model)
}

// FocuserFunc adapts a function to Focuser.
type FocuserFunc func(m *meta.Model)

func (f FocuserFunc) FocusElement(m *meta.Model) { f(m) }

// Options configures a Tree.
type Options struct {
	// ID scopes element ids. A unique id is generated when empty.
	ID            string
	SelectionMode SelectionMode
	Defaults      meta.DefaultsFunc
	Filter        FilterFunc
	// KeyMap overrides the default key bindings when non-nil.
	KeyMap KeyMap
	// Registry is the element id oracle; idgen.Global when nil.
	Registry       idgen.Registry
	LoadNodesAsync RootLoaderFunc
	Focuser        Focuser
	// Context is passed to caller callbacks; context.Background when nil.
	Context context.Context
}

// Tree is the root of a tree view.
type Tree struct {
	id       string
	data     []model.Node
	roots    []*meta.Model
	mode     SelectionMode
	defaults meta.DefaultsFunc
	filter   FilterFunc
	keys     KeyMap
	registry idgen.Registry
	radios   meta.RadioGroups
	focuser  Focuser
	ctx      context.Context

	loadNodesAsync RootLoaderFunc
	rootsLoading   bool
	rootsLoaded    bool

	focused        *meta.Model
	pendingRefocus bool
	ready          bool

	// element ids this tree has put in the registry
	registered map[string]struct{}

	listeners     map[int]Listener
	listenerOrder []int
	nextListener  int
}

// New mounts a tree over data. The slice is adopted; read the current raw
// roots back with Data after structural changes.
func New(data []model.Node, opts Options) *Tree {
	t := &Tree{
		data:           data,
		mode:           opts.SelectionMode,
		defaults:       opts.Defaults,
		filter:         opts.Filter,
		keys:           DefaultKeyMap(),
		registry:       opts.Registry,
		radios:         make(meta.RadioGroups),
		focuser:        opts.Focuser,
		ctx:            opts.Context,
		loadNodesAsync: opts.LoadNodesAsync,
		registered:     make(map[string]struct{}),
		listeners:      make(map[int]Listener),
	}
	if !t.mode.IsValid() {
		t.mode = SelectionNone
	}
	if opts.KeyMap != nil {
		t.keys = opts.KeyMap
	}
	if t.registry == nil {
		t.registry = idgen.Global
	}
	if t.ctx == nil {
		t.ctx = context.Background()
	}
	t.id = opts.ID
	if t.id == "" {
		t.id = idgen.GenerateUniqueID(t.registry)
	}
	if t.loadNodesAsync == nil {
		t.rootsLoaded = true
	}

	t.refresh()
	t.initFocus()
	t.ready = true
	t.EnforceSelectionMode()
	return t
}

// Init returns the command that loads root nodes when the tree was created
// with a root loader.
func (t *Tree) Init() tea.Cmd {
	return t.LoadRootNodes()
}

// ID returns the tree's id.
func (t *Tree) ID() string { return t.id }

// Data returns the raw root nodes.
func (t *Tree) Data() []model.Node { return t.data }

// Roots returns the root meta models.
func (t *Tree) Roots() []*meta.Model { return t.roots }

// RadioGroups returns the tree's radio group value map.
func (t *Tree) RadioGroups() meta.RadioGroups { return t.radios }

// KeyMap returns the active key bindings.
func (t *Tree) KeyMap() KeyMap { return t.keys }

// Focused returns the focusable node, or nil for an empty tree.
func (t *Tree) Focused() *meta.Model { return t.focused }

// Sync re-establishes every tree-wide invariant after the caller mutated raw
// data or meta models directly.
func (t *Tree) Sync() {
	t.refresh()
	t.reconcileFocus()
	t.EnforceSelectionMode()
}

// SetData replaces every raw root, for example after the backing file was
// rewritten, and settles focus and selection over the new nodes.
func (t *Tree) SetData(nodes []model.Node) {
	meta.SpliceList(&t.data, &t.roots, 0, len(t.data), nodes...)
	t.rootsLoaded = true
	t.Sync()
}

// refresh normalizes the whole meta tree against the raw data, recomputes
// filter state and keeps the id registry in step.
func (t *Tree) refresh() {
	t.roots = meta.SyncList(t.data, t.roots)
	for _, r := range t.roots {
		meta.Normalize(r, t.defaults, t.radios)
	}
	t.applyFilter()
	t.syncRegistry()
}

func (t *Tree) syncRegistry() {
	current := make(map[string]struct{})
	t.DepthFirst(func(m *meta.Model) bool {
		current[idgen.ElementID(t.id, m.ID())] = struct{}{}
		return true
	})
	for id := range t.registered {
		if _, ok := current[id]; !ok {
			t.registry.Remove(id)
			delete(t.registered, id)
		}
	}
	for id := range current {
		if _, ok := t.registered[id]; !ok {
			t.registry.Add(id)
			t.registered[id] = struct{}{}
		}
	}
}

// Close releases the element ids this tree registered.
func (t *Tree) Close() {
	for id := range t.registered {
		t.registry.Remove(id)
	}
	t.registered = make(map[string]struct{})
}

// initFocus picks the initial focus target: the first node already marked
// focusable, else the first selected node, else the first included root.
func (t *Tree) initFocus() {
	var target *meta.Model
	t.DepthFirst(func(m *meta.Model) bool {
		if m.Focusable {
			if target == nil {
				target = m
			} else {
				m.Focusable = false
			}
		}
		return true
	})
	if target == nil {
		t.DepthFirst(func(m *meta.Model) bool {
			if m.State.Selected && t.IsIncluded(m) {
				target = m
				return false
			}
			return true
		})
	}
	if target == nil {
		if included := t.filterList(t.roots); len(included) > 0 {
			target = included[0]
		} else if len(t.roots) > 0 {
			t.pendingRefocus = true
		}
	}
	if target != nil {
		t.focus(target, true)
	}
}

// reconcileFocus restores the single-focus invariant after external edits.
// A node that became focusable since the last settle wins over the old one.
func (t *Tree) reconcileFocus() {
	var marked []*meta.Model
	t.DepthFirst(func(m *meta.Model) bool {
		if m.Focusable {
			marked = append(marked, m)
		}
		return true
	})

	if t.focused != nil && t.Path(t.focused) == nil {
		t.focused = nil
	}

	var winner *meta.Model
	for _, m := range marked {
		if m != t.focused {
			winner = m
			break
		}
	}
	if winner == nil && len(marked) > 0 {
		winner = marked[0]
	}
	for _, m := range marked {
		if m != winner {
			m.Focusable = false
		}
	}

	switch {
	case winner != nil && winner != t.focused:
		winner.Focusable = false
		t.focus(winner, true)
	case winner == nil && t.focused != nil:
		t.focused.Focusable = true
	case winner == nil:
		t.focusFirstIncluded(true)
	}
}
