package ui

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/vanderheijden86/treeview/pkg/loader"
	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/model"
	"github.com/vanderheijden86/treeview/pkg/objutil"
	"github.com/vanderheijden86/treeview/pkg/tree"
)

// LevelSaver persists the ordered children of a node. pkg/store implements
// it; file-backed trees leave it nil.
type LevelSaver interface {
	SaveLevel(ctx context.Context, parentID string, nodes []model.Node) error
}

// Options configures the tree view.
type Options struct {
	Theme Theme
	// StatePath is the tree-state.json location. Empty disables persistence.
	StatePath string
	// Saver records drops; nil when the tree is not store-backed.
	Saver LevelSaver
	// DataPath is written by the save key when set.
	DataPath string
	// Changes signals that the data file changed on disk.
	Changes <-chan struct{}
	// Reload reads the data again after a change.
	Reload func() ([]model.Node, error)
	// Filter is the initial filter text.
	Filter string
	// Title is shown in the header.
	Title string
}

// DataChangedMsg reports a change of the backing data file.
type DataChangedMsg struct{}

// DataReloadedMsg carries freshly read data.
type DataReloadedMsg struct {
	Nodes []model.Node
	Err   error
}

// LevelSavedMsg reports the outcome of persisting a drop.
type LevelSavedMsg struct {
	ParentID string
	Err      error
}

// carry is a keyboard drag in progress: cut or copy, waiting for paste.
type carry struct {
	source   *meta.Model
	transfer *tree.DataTransfer
	effect   meta.DropEffect
	target   *meta.Model
}

// events collects tree events between updates. It is shared by copies of
// Model, which bubbletea passes by value.
type events struct {
	list []tree.Event
}

// Model is the bubbletea model of the tree view.
type Model struct {
	tree  *tree.Tree
	theme Theme
	opts  Options

	viewport    viewport.Model
	filterInput textinput.Model
	filtering   bool

	showHelp bool
	helpView string

	width  int
	height int
	ready  bool

	statusMsg     string
	statusIsError bool

	carry   *carry
	events  *events
	pending *TreeState
}

// NewModel wraps tr in a tree view.
func NewModel(tr *tree.Tree, opts Options) Model {
	if opts.Theme.Renderer == nil {
		opts.Theme = DefaultTheme(lipgloss.DefaultRenderer())
	}

	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.CharLimit = 80
	ti.Width = 30
	ti.SetValue(opts.Filter)

	m := Model{
		tree:        tr,
		theme:       opts.Theme,
		opts:        opts,
		viewport:    viewport.New(80, 20),
		filterInput: ti,
		events:      &events{},
	}
	tr.Subscribe(func(e tree.Event) {
		m.events.list = append(m.events.list, e)
	})
	if opts.Filter != "" {
		tr.SetFilter(LabelFilter(opts.Filter))
	}
	if opts.StatePath != "" {
		m.pending = LoadState(opts.StatePath)
	}
	return m
}

// Tree returns the wrapped tree.
func (m Model) Tree() *tree.Tree { return m.tree }

// LabelFilter matches nodes whose label or id contains text, ignoring case.
// Empty text removes the filter.
func LabelFilter(text string) tree.FilterFunc {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}
	return func(n *meta.Model) bool {
		return strings.Contains(strings.ToLower(n.Label()), text) ||
			strings.Contains(strings.ToLower(n.ID()), text)
	}
}

// NewChild is an add-child callback for file-backed trees: it creates an
// empty node with a random id.
func NewChild(_ context.Context, _ *meta.Model) (model.Node, error) {
	return model.Node{
		model.DefaultIDProperty:       uuid.NewString(),
		model.DefaultLabelProperty:    "New node",
		model.DefaultChildrenProperty: []model.Node{},
	}, nil
}

// WaitForChange returns a command that blocks until the data file changes.
func WaitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return DataChangedMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tree.Init(), WaitForChange(m.opts.Changes)}
	if m.pending != nil {
		cmds = append(cmds, m.pending.Apply(m.tree))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.viewport.Width = msg.Width
		m.viewport.Height = m.bodyHeight()
		m.helpView = RenderHelp(m.theme, m.tree.KeyMap(), msg.Width)

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case tea.MouseMsg:
		cmds = append(cmds, m.handleMouse(msg))

	case DataChangedMsg:
		cmds = append(cmds, m.reloadCmd(), WaitForChange(m.opts.Changes))

	case DataReloadedMsg:
		if msg.Err != nil {
			m.setError(fmt.Errorf("reload failed: %w", msg.Err))
			break
		}
		state := CaptureState(m.tree)
		m.dropCarry()
		m.tree.SetData(msg.Nodes)
		m.pending = state
		m.setStatus("Reloaded " + m.opts.DataPath)

	case LevelSavedMsg:
		if msg.Err != nil {
			m.setError(fmt.Errorf("saving order under %q: %w", msg.ParentID, msg.Err))
		}

	default:
		if err := m.tree.Apply(msg); err != nil {
			m.setError(err)
		}
	}

	cmds = append(cmds, m.drainEvents())
	if m.pending != nil {
		cmds = append(cmds, m.pending.Apply(m.tree))
		if !m.pending.Pending() {
			m.pending = nil
		}
	}
	m.syncViewport()
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	if m.filtering {
		switch key {
		case "esc":
			m.filtering = false
			m.filterInput.Blur()
			m.filterInput.SetValue("")
			m.tree.SetFilter(nil)
			return nil
		case "enter":
			m.filtering = false
			m.filterInput.Blur()
			return nil
		}
		var cmd tea.Cmd
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.tree.SetFilter(LabelFilter(m.filterInput.Value()))
		return cmd
	}

	if m.showHelp {
		switch key {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return nil
	}

	if cmd, ok := m.tree.HandleKey(key); ok {
		m.trackCarry()
		return cmd
	}

	switch key {
	case "ctrl+c", "q":
		m.saveState()
		return tea.Quit
	case "esc":
		if m.carry != nil {
			m.cancelCarry()
		}
	case "?":
		m.showHelp = true
	case "/":
		m.filtering = true
		return m.filterInput.Focus()
	case "y":
		m.copyID()
	case "x":
		m.startCarry(meta.EffectMove)
	case "c":
		m.startCarry(meta.EffectCopy)
	case "p":
		return m.paste(tree.ZoneAfter)
	case "P":
		return m.paste(tree.ZoneBefore)
	case ">":
		return m.paste(tree.ZoneChild)
	case "E":
		m.tree.ExpandAll()
	case "C":
		m.tree.CollapseAll()
	case "ctrl+s":
		m.saveData()
	case "pgdown":
		m.viewport.HalfPageDown()
	case "pgup":
		m.viewport.HalfPageUp()
	}
	return nil
}

// handleMouse focuses and clicks the row under a left click; a click on the
// expander toggles the node.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil
	}
	index := msg.Y - headerHeight + m.viewport.YOffset
	rows := m.tree.Visible()
	if index < 0 || index >= len(rows) {
		return nil
	}
	row := rows[index]
	if msg.X == row.Depth*4 {
		return m.tree.ToggleExpanded(row.Node)
	}
	m.tree.Click(row.Node)
	m.trackCarry()
	return nil
}

func (m *Model) copyID() {
	f := m.tree.Focused()
	if f == nil {
		return
	}
	if err := clipboard.WriteAll(f.ID()); err != nil {
		m.setError(fmt.Errorf("clipboard error: %w", err))
		return
	}
	m.setStatus(fmt.Sprintf("Copied %s to clipboard", f.ID()))
}

// startCarry picks up the focused node as a keyboard drag.
func (m *Model) startCarry(effect meta.DropEffect) {
	m.dropCarry()
	f := m.tree.Focused()
	dt := tree.NewDataTransfer()
	if !m.tree.DragStart(f, dt) {
		m.setError(fmt.Errorf("%q cannot be dragged", labelOf(f)))
		return
	}
	if !dt.EffectAllowed.Allows(effect) {
		m.tree.DragEnd(f, dt)
		m.setError(fmt.Errorf("%q does not allow %s", labelOf(f), effect))
		return
	}
	m.carry = &carry{source: f, transfer: dt, effect: effect}
	verb := "Cut"
	if effect == meta.EffectCopy {
		verb = "Copied"
	}
	m.setStatus(fmt.Sprintf("%s %s: p paste after, P before, > into, esc cancel", verb, labelOf(f)))
	m.trackCarry()
}

// trackCarry moves the drop highlight to the focused node.
func (m *Model) trackCarry() {
	c := m.carry
	if c == nil {
		return
	}
	f := m.tree.Focused()
	if c.target == f {
		return
	}
	if c.target != nil {
		m.tree.DragLeave(c.target, tree.ZoneChild, c.transfer)
	}
	c.target = f
	c.transfer.DropEffect = c.effect
	m.tree.DragEnter(f, tree.ZoneChild, c.transfer)
}

func (m *Model) paste(zone tree.DropZone) tea.Cmd {
	c := m.carry
	if c == nil {
		return nil
	}
	target := m.tree.Focused()
	c.transfer.DropEffect = c.effect
	if !m.tree.DragOver(target, zone, c.transfer) || !m.tree.Drop(target, zone, c.transfer) {
		m.setError(fmt.Errorf("cannot drop %s %s %q", labelOf(c.source), zone, labelOf(target)))
		c.target = nil
		m.trackCarry()
		return nil
	}
	m.tree.DragEnd(c.source, c.transfer)
	m.carry = nil
	m.setStatus(fmt.Sprintf("Dropped %s %s %s", labelOf(c.source), zone, labelOf(target)))
	return nil
}

func (m *Model) cancelCarry() {
	m.dropCarry()
	m.setStatus("Cancelled")
}

// dropCarry ends a keyboard drag without dropping.
func (m *Model) dropCarry() {
	c := m.carry
	if c == nil {
		return
	}
	c.transfer.DropEffect = meta.EffectNone
	m.tree.DragEnd(c.source, c.transfer)
	m.carry = nil
}

// drainEvents reacts to tree events raised during this update.
func (m *Model) drainEvents() tea.Cmd {
	var cmds []tea.Cmd
	evs := m.events.list
	m.events.list = nil
	for _, e := range evs {
		switch e.Kind {
		case tree.EventDrop:
			cmds = append(cmds, m.persistLevel(m.tree.ParentOf(e.Node)))
		case tree.EventAdd, tree.EventDelete:
			if m.opts.Saver == nil && m.opts.DataPath != "" {
				m.setStatus("Modified (ctrl+s to save)")
			}
		}
	}
	return tea.Batch(cmds...)
}

// persistLevel stores the children of parent, or the roots when parent is
// nil, through the saver.
func (m *Model) persistLevel(parent *meta.Model) tea.Cmd {
	saver := m.opts.Saver
	if saver == nil {
		if m.opts.DataPath != "" {
			m.setStatus("Modified (ctrl+s to save)")
		}
		return nil
	}
	raws := m.tree.Data()
	parentID := ""
	if parent != nil {
		raws, _ = parent.RawChildren()
		parentID = parent.ID()
	}
	// The command runs off the update goroutine; give it its own copy.
	snapshot := make([]model.Node, len(raws))
	for i, n := range raws {
		snapshot[i] = objutil.WithoutFuncs(n)
	}
	return func() tea.Msg {
		err := saver.SaveLevel(context.Background(), parentID, snapshot)
		return LevelSavedMsg{ParentID: parentID, Err: err}
	}
}

func (m *Model) reloadCmd() tea.Cmd {
	reload := m.opts.Reload
	if reload == nil {
		return nil
	}
	return func() tea.Msg {
		nodes, err := reload()
		return DataReloadedMsg{Nodes: nodes, Err: err}
	}
}

func (m *Model) saveData() {
	if m.opts.DataPath == "" {
		m.setStatus("Nothing to save: the tree is stored as it changes")
		return
	}
	data := make([]model.Node, len(m.tree.Data()))
	for i, n := range m.tree.Data() {
		data[i] = objutil.WithoutFuncs(n)
	}
	if err := loader.SaveFile(m.opts.DataPath, data); err != nil {
		m.setError(err)
		return
	}
	m.setStatus("Saved " + m.opts.DataPath)
}

func (m *Model) saveState() {
	if m.opts.StatePath == "" {
		return
	}
	SaveState(m.opts.StatePath, CaptureState(m.tree))
}

func (m *Model) setStatus(s string) {
	m.statusMsg = s
	m.statusIsError = false
}

func (m *Model) setError(err error) {
	log.Printf("warning: %v", err)
	m.statusMsg = err.Error()
	m.statusIsError = true
}

func labelOf(n *meta.Model) string {
	if n == nil {
		return ""
	}
	if l := n.Label(); l != "" {
		return l
	}
	return n.ID()
}
