package ui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treeview/pkg/loader"
	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/model"
	"github.com/vanderheijden86/treeview/pkg/tree"
)

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "insert":
		return tea.KeyMsg{Type: tea.KeyInsert}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func newTestModel(t *testing.T, data []model.Node, mode tree.SelectionMode, opts Options) Model {
	t.Helper()
	opts.Theme = newTreeTestTheme()
	m := NewModel(newTestTree(t, data, mode), opts)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

// runCmd executes cmd and feeds every resulting message back into m,
// flattening batches. Quit messages are dropped.
func runCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case nil, tea.QuitMsg:
		return m
	case tea.BatchMsg:
		for _, c := range msg {
			m = runCmd(t, m, c)
		}
		return m
	default:
		next, follow := m.Update(msg)
		return runCmd(t, next.(Model), follow)
	}
}

// quits reports whether cmd, or a command batched into it, quits.
func quits(cmd tea.Cmd) bool {
	switch msg := cmd().(type) {
	case tea.QuitMsg:
		return true
	case tea.BatchMsg:
		for _, c := range msg {
			if c != nil && quits(c) {
				return true
			}
		}
	}
	return false
}

func rootIDs(tr *tree.Tree) []string {
	var ids []string
	for _, r := range tr.Roots() {
		ids = append(ids, r.ID())
	}
	return ids
}

type recordingSaver struct {
	mu    sync.Mutex
	calls []string
}

func (s *recordingSaver) SaveLevel(ctx context.Context, parentID string, nodes []model.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID("")
	}
	s.calls = append(s.calls, parentID+":"+strings.Join(ids, ","))
	return nil
}

// TestModelNavigation verifies arrow keys drive tree focus and expansion
func TestModelNavigation(t *testing.T) {
	m := newTestModel(t, sampleData(), tree.SelectionMultiple, Options{})
	tr := m.Tree()

	m, _ = press(t, m, "right")
	if !tr.FindByID("a").State.Expanded {
		t.Fatal("right should expand a")
	}
	m, _ = press(t, m, "down")
	if f := tr.Focused(); f.ID() != "a1" {
		t.Errorf("focused = %s, want a1", f.ID())
	}
	m, _ = press(t, m, "enter")
	if !tr.FindByID("a1").State.Selected {
		t.Error("enter should select a1")
	}
	m, _ = press(t, m, "left")
	if f := tr.Focused(); f.ID() != "a" {
		t.Errorf("left on a leaf should focus the parent, got %s", f.ID())
	}
	if !strings.Contains(m.View(), "1 selected") {
		t.Errorf("header should count the selection:\n%s", m.View())
	}
}

// TestModelFilterPrompt verifies typing a filter narrows the visible rows and esc clears it
func TestModelFilterPrompt(t *testing.T) {
	m := newTestModel(t, sampleData(), tree.SelectionNone, Options{})
	tr := m.Tree()

	m, _ = press(t, m, "/", "b")
	if !m.filtering {
		t.Fatal("expected filter prompt to be open")
	}
	rows := tr.Visible()
	if len(rows) != 1 || rows[0].Node.ID() != "b" {
		t.Fatalf("visible rows under filter = %d", len(rows))
	}
	m, _ = press(t, m, "enter")
	if m.filtering || tr.Filter() == nil {
		t.Error("enter should keep the filter and close the prompt")
	}
	m, _ = press(t, m, "/", "esc")
	if tr.Filter() != nil {
		t.Error("esc should clear the filter")
	}
}

// TestModelCutPaste verifies cut and paste moves a node within the tree
func TestModelCutPaste(t *testing.T) {
	m := newTestModel(t, sampleData(), tree.SelectionNone, Options{})
	tr := m.Tree()

	m, _ = press(t, m, "x")
	if m.carry == nil || !tr.FindByID("a").Internal.Dragging {
		t.Fatal("x should start carrying a")
	}
	m, _ = press(t, m, "down")
	if !tr.FindByID("b").Internal.IsChildDropTarget {
		t.Error("focused node should be highlighted as drop target")
	}
	m, _ = press(t, m, "p")

	if got := rootIDs(tr); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("roots = %v, want [b a]", got)
	}
	if m.carry != nil || tr.FindByID("a").Internal.Dragging {
		t.Error("carry should end after paste")
	}
	if m.statusIsError {
		t.Errorf("unexpected error status: %s", m.statusMsg)
	}
}

// TestModelCopyPasteInto verifies copy and paste into a node inserts a renamed copy
func TestModelCopyPasteInto(t *testing.T) {
	m := newTestModel(t, sampleData(), tree.SelectionNone, Options{})
	tr := m.Tree()

	m, _ = press(t, m, "c", "down", ">")

	b := tr.FindByID("b")
	if len(b.Children) != 1 {
		t.Fatalf("b has %d children, want 1", len(b.Children))
	}
	if id := b.Children[0].ID(); id == "a" || !strings.HasPrefix(id, "a") {
		t.Errorf("copy id = %q, want a renamed copy of a", id)
	}
	if tr.FindByID("a") == nil {
		t.Error("the original should stay after a copy")
	}
	if cp := b.Children[0]; len(cp.Children) != 2 {
		t.Errorf("copy has %d children, want the two copied from a", len(cp.Children))
	}
	if err := meta.CheckParallel(tr.Data(), tr.Roots()); err != nil {
		t.Error(err)
	}
}

// TestModelCopyKeepsSingleSelection verifies pasting a selected subtree
// leaves only the original selected
func TestModelCopyKeepsSingleSelection(t *testing.T) {
	m := newTestModel(t, sampleData(), tree.SelectionSingle, Options{})
	tr := m.Tree()

	m, _ = press(t, m, "enter", "c", "down", "p")

	if got := rootIDs(tr); len(got) != 3 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("roots = %v, want [a b <copy>]", got)
	}
	selected := tr.GetSelected()
	if len(selected) != 1 || selected[0].ID() != "a" {
		t.Errorf("selected = %d nodes, want only a", len(selected))
	}
}

// TestModelCancelCarry verifies esc leaves the tree as it was
func TestModelCancelCarry(t *testing.T) {
	m := newTestModel(t, sampleData(), tree.SelectionNone, Options{})
	tr := m.Tree()

	m, _ = press(t, m, "x", "down", "esc")
	if m.carry != nil {
		t.Fatal("esc should cancel the carry")
	}
	if got := rootIDs(tr); len(got) != 2 || got[0] != "a" {
		t.Errorf("roots = %v, want [a b]", got)
	}
	if tr.FindByID("a").Internal.Dragging || tr.FindByID("b").Internal.IsDropTarget {
		t.Error("drag markers should be cleared")
	}
}

// TestModelPasteIntoOwnSubtreeFails verifies a node cannot be dropped into itself
func TestModelPasteIntoOwnSubtreeFails(t *testing.T) {
	m := newTestModel(t, sampleData(), tree.SelectionNone, Options{})
	tr := m.Tree()

	m, _ = press(t, m, "x", ">")
	if !m.statusIsError {
		t.Error("dropping a onto itself should report an error")
	}
	if m.carry == nil {
		t.Error("the carry should survive a refused drop")
	}
	if got := rootIDs(tr); len(got) != 2 {
		t.Errorf("roots = %v", got)
	}
}

// TestModelDropPersistsLevel verifies drops are written through the saver
func TestModelDropPersistsLevel(t *testing.T) {
	saver := &recordingSaver{}
	m := newTestModel(t, sampleData(), tree.SelectionNone, Options{Saver: saver})

	m, _ = press(t, m, "x", "down")
	next, cmd := m.Update(keyMsg("p"))
	m = runCmd(t, next.(Model), cmd)

	saver.mu.Lock()
	defer saver.mu.Unlock()
	if len(saver.calls) != 1 || saver.calls[0] != ":b,a" {
		t.Errorf("saver calls = %v, want [:b,a]", saver.calls)
	}
}

// TestModelInsertAddsChild verifies the insert key runs the add-child flow
func TestModelInsertAddsChild(t *testing.T) {
	m := newTestModel(t, sampleData(), tree.SelectionNone, Options{})
	tr := m.Tree()

	next, cmd := m.Update(keyMsg("insert"))
	if cmd == nil {
		t.Fatal("insert should return the add-child command")
	}
	runCmd(t, next.(Model), cmd)

	a := tr.FindByID("a")
	if len(a.Children) != 3 || a.Children[2].Label() != "New node" {
		t.Errorf("a children = %d, want a new third child", len(a.Children))
	}
}

// TestModelReloadKeepsState verifies reloaded data keeps expansion and focus
func TestModelReloadKeepsState(t *testing.T) {
	m := newTestModel(t, sampleData(), tree.SelectionNone, Options{DataPath: "tree.json"})
	tr := m.Tree()
	m, _ = press(t, m, "right", "down")

	next, _ := m.Update(DataReloadedMsg{Nodes: []model.Node{
		node("a", node("a1"), node("a2"), node("a3")),
		node("b"),
	}})
	m = next.(Model)

	a := tr.FindByID("a")
	if len(a.Children) != 3 || !a.State.Expanded {
		t.Errorf("a: %d children, expanded=%v", len(a.Children), a.State.Expanded)
	}
	if f := tr.Focused(); f == nil || f.ID() != "a1" {
		t.Errorf("focused = %v, want a1", f)
	}
	if m.statusMsg != "Reloaded tree.json" {
		t.Errorf("status = %q", m.statusMsg)
	}
}

// TestModelReloadFromWatcher verifies a change signal triggers a reload
func TestModelReloadFromWatcher(t *testing.T) {
	changes := make(chan struct{}, 1)
	reloads := 0
	m := newTestModel(t, sampleData(), tree.SelectionNone, Options{
		Changes: changes,
		Reload: func() ([]model.Node, error) {
			reloads++
			return []model.Node{node("z")}, nil
		},
	})

	next, cmd := m.Update(DataChangedMsg{})
	m = next.(Model)
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("expected a batch of reload and wait commands")
	}
	// The first command reloads; the second waits for the next change.
	next, _ = m.Update(batch[0]())
	m = next.(Model)

	if reloads != 1 {
		t.Errorf("reloads = %d, want 1", reloads)
	}
	if got := rootIDs(m.Tree()); len(got) != 1 || got[0] != "z" {
		t.Errorf("roots = %v, want [z]", got)
	}
}

// TestModelMouseClick verifies a click focuses the row under the pointer
func TestModelMouseClick(t *testing.T) {
	m := newTestModel(t, sampleData(), tree.SelectionMultiple, Options{})
	tr := m.Tree()

	next, _ := m.Update(tea.MouseMsg{X: 5, Y: headerHeight + 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = next.(Model)

	b := tr.FindByID("b")
	if !b.Focusable || !b.State.Selected {
		t.Errorf("b: focusable=%v selected=%v, want both", b.Focusable, b.State.Selected)
	}

	next, _ = m.Update(tea.MouseMsg{X: 0, Y: headerHeight, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if !tr.FindByID("a").State.Expanded {
		t.Error("clicking the expander should expand a")
	}
	_ = next
}

// TestModelQuitSavesState verifies quitting writes tree-state.json
func TestModelQuitSavesState(t *testing.T) {
	path := TreeStatePath(t.TempDir())
	m := newTestModel(t, sampleData(), tree.SelectionNone, Options{StatePath: path})

	m, _ = press(t, m, "right")
	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if !quits(cmd) {
		t.Error("expected a quit message")
	}
	state := LoadState(path)
	if state == nil || !state.Expanded["a"] {
		t.Errorf("saved state = %+v", state)
	}
}

// TestModelSaveData verifies ctrl+s writes the data file without callbacks
func TestModelSaveData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tree.json")
	m := newTestModel(t, sampleData(), tree.SelectionNone, Options{DataPath: path})

	m, _ = press(t, m, "ctrl+s")
	if m.statusIsError {
		t.Fatalf("save failed: %s", m.statusMsg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("data file not written: %v", err)
	}
	nodes, err := loader.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(nodes) != 2 || nodes[0].ID("") != "a" {
		t.Errorf("saved nodes = %v", nodes)
	}
}

// TestHelpMarkdown verifies the help lists active bindings
func TestHelpMarkdown(t *testing.T) {
	keys, err := tree.DefaultKeyMap().WithOverrides(map[string][]string{"focusNextItem": {"down", "j"}})
	if err != nil {
		t.Fatal(err)
	}
	md := HelpMarkdown(keys)
	for _, want := range []string{"| Space | Toggle checkbox / pick radio |", "| down / j | Next node |", "Paste into focus"} {
		if !strings.Contains(md, want) {
			t.Errorf("help missing %q:\n%s", want, md)
		}
	}

	m := newTestModel(t, sampleData(), tree.SelectionNone, Options{})
	m, _ = press(t, m, "?")
	if !strings.Contains(m.View(), "Quick Reference") {
		t.Error("? should show the help overlay")
	}
	m, _ = press(t, m, "esc")
	if m.showHelp {
		t.Error("esc should close the help overlay")
	}
}

// TestLabelFilter verifies case-insensitive label and id matching
func TestLabelFilter(t *testing.T) {
	if LabelFilter("  ") != nil {
		t.Error("blank text should remove the filter")
	}
	tr := newTestTree(t, sampleData(), tree.SelectionNone)
	f := LabelFilter("NODE A")
	if !f(tr.FindByID("a")) || !f(tr.FindByID("a1")) || f(tr.FindByID("b")) {
		t.Error("label filter mismatch")
	}
}
