package store

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treeview/pkg/idgen"
	"github.com/vanderheijden86/treeview/pkg/loader"
	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/model"
	"github.com/vanderheijden86/treeview/pkg/tree"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "tree.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ids(nodes []model.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID("")
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	data := []model.Node{
		{"id": "a", "label": "A", "children": []model.Node{
			{"id": "a1", "label": "A1"},
			{"id": "a2", "label": "A2", "children": []model.Node{{"id": "a2x", "label": "A2X"}}},
		}},
		{"id": "b", "label": "B", loader.SpecProperty: map[string]any{"draggable": false}},
	}
	if err := s.Import(context.Background(), data); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
}

func drain(t *testing.T, tr *tree.Tree, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command, got nil")
	}
	if err := tr.Apply(cmd()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
}

// TestRootsAndChildren verifies levels are read in order with child markers
func TestRootsAndChildren(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	roots, err := s.Roots(ctx)
	if err != nil {
		t.Fatalf("Roots failed: %v", err)
	}
	if got := ids(roots); !equalStrings(got, []string{"a", "b"}) {
		t.Fatalf("roots = %v, want [a b]", got)
	}
	if roots[0][HasChildrenProperty] != true || roots[1][HasChildrenProperty] != false {
		t.Errorf("hasChildren = %v/%v, want true/false", roots[0][HasChildrenProperty], roots[1][HasChildrenProperty])
	}
	if kids, ok := roots[0].Children(""); !ok || len(kids) != 0 {
		t.Errorf("children of a = %v, want an empty list", kids)
	}
	if spec := loader.NodeSpec(roots[1]); spec == nil || spec.Draggable == nil || *spec.Draggable {
		t.Errorf("spec of b = %+v, want draggable false", spec)
	}

	kids, err := s.Children(ctx, "a")
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if got := ids(kids); !equalStrings(got, []string{"a1", "a2"}) {
		t.Errorf("children of a = %v, want [a1 a2]", got)
	}
}

// TestAddAndDelete verifies new nodes are appended and deletes cascade
func TestAddAndDelete(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	n, err := s.Add(ctx, "a", NewNodeLabel)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if n.ID("") == "" || n.Label("") != NewNodeLabel {
		t.Errorf("added node = %v", n)
	}
	kids, _ := s.Children(ctx, "a")
	if got := ids(kids); !equalStrings(got, []string{"a1", "a2", n.ID("")}) {
		t.Errorf("children of a = %v, want new node last", got)
	}

	removed, err := s.Delete(ctx, "a")
	if err != nil || !removed {
		t.Fatalf("Delete = %v, %v", removed, err)
	}
	if kids, _ := s.Children(ctx, "a2"); len(kids) != 0 {
		t.Errorf("grandchildren survived delete: %v", ids(kids))
	}
	removed, err = s.Delete(ctx, "a")
	if err != nil || removed {
		t.Errorf("second Delete = %v, %v, want false, nil", removed, err)
	}
}

// TestSaveLevelMoves verifies upserting a level reparents and reorders rows
func TestSaveLevelMoves(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	roots, _ := s.Roots(ctx)
	a1 := model.Node{"id": "a1", "label": "A1"}
	level := []model.Node{roots[1], a1, roots[0]}
	if err := s.SaveLevel(ctx, "", level); err != nil {
		t.Fatalf("SaveLevel failed: %v", err)
	}

	roots, _ = s.Roots(ctx)
	if got := ids(roots); !equalStrings(got, []string{"b", "a1", "a"}) {
		t.Errorf("roots = %v, want [b a1 a]", got)
	}
	kids, _ := s.Children(ctx, "a")
	if got := ids(kids); !equalStrings(got, []string{"a2"}) {
		t.Errorf("children of a = %v, want [a2]", got)
	}
	// a's unloaded children are left alone.
	if kids, _ := s.Children(ctx, "a2"); len(kids) != 1 {
		t.Errorf("children of a2 = %v, want [a2x]", ids(kids))
	}
}

// TestImportAssignsIDs verifies nodes without ids get one
func TestImportAssignsIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Import(ctx, []model.Node{{"label": "anon", "children": []model.Node{{"label": "kid"}}}}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	roots, _ := s.Roots(ctx)
	if len(roots) != 1 || roots[0].ID("") == "" {
		t.Fatalf("roots = %v", roots)
	}
	kids, _ := s.Children(ctx, roots[0].ID(""))
	if len(kids) != 1 || kids[0].Label("") != "kid" {
		t.Errorf("children = %v", kids)
	}
}

// TestMemoryDSN verifies an in-memory database needs no directory
func TestMemoryDSN(t *testing.T) {
	if _, ok := sqliteFilePathFromDSN(":memory:"); ok {
		t.Error(":memory: should not map to a file")
	}
	if p, ok := sqliteFilePathFromDSN("file:/tmp/x.db?cache=shared"); !ok || p != "/tmp/x.db" {
		t.Errorf("file DSN = %q, %v", p, ok)
	}

	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()
	if _, err := s.Add(context.Background(), "", "root"); err != nil {
		t.Errorf("Add failed: %v", err)
	}
}

// TestTreeBackedByStore verifies a tree loads, grows and shrinks through the store callbacks
func TestTreeBackedByStore(t *testing.T) {
	s := openTestStore(t)
	seed(t, s)
	ctx := context.Background()

	tr := tree.New(nil, tree.Options{
		ID:             "stored",
		Registry:       idgen.NewRegistry(),
		Defaults:       s.Defaults(loader.SpecDefaults(&meta.Overrides{Deletable: meta.Bool(true)})),
		LoadNodesAsync: s.LoadNodes,
	})
	defer tr.Close()

	drain(t, tr, tr.Init())
	if len(tr.Roots()) != 2 {
		t.Fatalf("roots = %d, want 2", len(tr.Roots()))
	}
	a := tr.FindByID("a")
	if a.Internal.AreChildrenLoaded {
		t.Error("a should load lazily")
	}
	if b := tr.FindByID("b"); b.Draggable || b.LoadChildrenAsync != nil {
		t.Errorf("b: draggable=%v loader=%v, want false/nil", b.Draggable, b.LoadChildrenAsync != nil)
	}

	drain(t, tr, tr.SetExpanded(a, true))
	if len(a.Children) != 2 {
		t.Fatalf("a has %d children after load, want 2", len(a.Children))
	}

	drain(t, tr, tr.AddChild(a))
	if len(a.Children) != 3 {
		t.Fatalf("a has %d children after add, want 3", len(a.Children))
	}
	kids, _ := s.Children(ctx, "a")
	if len(kids) != 3 {
		t.Errorf("store has %d children of a, want 3", len(kids))
	}

	drain(t, tr, tr.Delete(tr.FindByID("a1")))
	kids, _ = s.Children(ctx, "a")
	if got := ids(kids); len(got) != 2 || got[0] != "a2" {
		t.Errorf("store children of a = %v, want a2 first", got)
	}
	if tr.FindByID("a1") != nil {
		t.Error("a1 still in tree")
	}
}
