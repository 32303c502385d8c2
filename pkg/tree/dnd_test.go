package tree

import (
	"strings"
	"testing"

	"github.com/vanderheijden86/treeview/pkg/idgen"
	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/model"
)

// TestDragStartWritesPayload verifies all three MIME types carry the node
func TestDragStartWritesPayload(t *testing.T) {
	tr := newTestTree(t, []model.Node{node("a", node("a1"))}, Options{ID: "src"})
	a := tr.FindByID("a")
	a.Data["onClick"] = func() {}
	dt := NewDataTransfer()

	if !tr.DragStart(a, dt) {
		t.Fatal("DragStart should succeed for a draggable node")
	}
	if !a.Internal.Dragging {
		t.Error("source should be marked as dragging")
	}
	if dt.EffectAllowed != meta.EffectCopyMove {
		t.Errorf("EffectAllowed = %q, want copyMove", dt.EffectAllowed)
	}
	for _, mime := range []string{MIMETreeNode, MIMEJSON, MIMEText} {
		if dt.GetData(mime) == "" {
			t.Errorf("no data for %s", mime)
		}
	}
	if got := dt.Types(); len(got) != 3 || got[0] != MIMETreeNode {
		t.Errorf("Types() = %v", got)
	}

	p, err := DecodePayload(dt.GetData(MIMEJSON))
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}
	if p.TreeID != "src" || p.Data.ID() != "a" {
		t.Errorf("payload = %s/%s, want src/a", p.TreeID, p.Data.ID())
	}
	if p.Data.Focusable {
		t.Error("payload node must not be focusable")
	}
	if _, ok := p.Data.Data["onClick"]; ok {
		t.Error("funcs should not be serialized")
	}
	if len(p.Data.Children) != 1 || !model.Same(p.Data.Children[0].Data, mustChildren(t, p.Data)[0]) {
		t.Error("decoded child meta should point at decoded raw child")
	}
	if _, ok := a.Data["onClick"]; !ok {
		t.Error("source raw node must keep its funcs")
	}
}

func mustChildren(t *testing.T, m *meta.Model) []model.Node {
	t.Helper()
	kids, ok := m.RawChildren()
	if !ok {
		t.Fatalf("%s has no children list", m.ID())
	}
	return kids
}

// TestDragStartRequiresDraggable verifies non-draggable nodes cannot start a drag
func TestDragStartRequiresDraggable(t *testing.T) {
	tr := newTestTree(t, []model.Node{node("a")}, Options{Defaults: meta.StaticDefaults(&meta.Overrides{})})
	dt := NewDataTransfer()
	if tr.DragStart(tr.FindByID("a"), dt) {
		t.Error("DragStart should fail")
	}
	if dt.HasType(MIMETreeNode) {
		t.Error("no payload should be written")
	}
}

// TestDragStartEffectFallback verifies a policy outside the restriction falls back to copyMove
func TestDragStartEffectFallback(t *testing.T) {
	tests := []struct {
		policy      meta.DropEffect
		restriction meta.DropEffect
		want        meta.DropEffect
	}{
		{meta.EffectMove, "", meta.EffectMove},
		{meta.EffectMove, meta.EffectCopyMove, meta.EffectMove},
		{meta.EffectCopy, meta.EffectMove, meta.EffectCopyMove},
		{meta.EffectCopyMove, meta.EffectCopy, meta.EffectCopyMove},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy)+"/"+string(tt.restriction), func(t *testing.T) {
			defaults := meta.StaticDefaults(&meta.Overrides{
				Draggable:                 meta.Bool(true),
				DataTransferEffectAllowed: meta.Effect(tt.policy),
			})
			tr := newTestTree(t, []model.Node{node("a")}, Options{Defaults: defaults})
			dt := NewDataTransfer()
			dt.Restriction = tt.restriction
			tr.DragStart(tr.FindByID("a"), dt)
			if dt.EffectAllowed != tt.want {
				t.Errorf("EffectAllowed = %q, want %q", dt.EffectAllowed, tt.want)
			}
		})
	}
}

// TestDragOverZones verifies zone highlighting and self-drop prevention
func TestDragOverZones(t *testing.T) {
	tr := newTestTree(t, []model.Node{node("a", node("a1")), node("b")}, Options{})
	a, a1, b := tr.FindByID("a"), tr.FindByID("a1"), tr.FindByID("b")
	dt := NewDataTransfer()
	tr.DragStart(a, dt)

	if tr.DragOver(a1, ZoneChild, dt) {
		t.Error("dropping a node into its own subtree should be refused")
	}
	if dt.DropEffect != meta.EffectNone {
		t.Errorf("DropEffect = %q, want none", dt.DropEffect)
	}

	if !tr.DragEnter(b, ZoneBefore, dt) {
		t.Fatal("b should accept the drag")
	}
	if !b.Internal.IsDropTarget || !b.Internal.IsPrevDropTarget {
		t.Error("b should highlight its before zone")
	}
	if dt.DropEffect != meta.EffectMove {
		t.Errorf("DropEffect = %q, want move", dt.DropEffect)
	}

	tr.DragOver(b, ZoneAfter, dt)
	if b.Internal.IsPrevDropTarget || !b.Internal.IsNextDropTarget {
		t.Error("moving to the after zone should clear the before zone")
	}
	tr.DragLeave(b, ZoneAfter, dt)
	if b.Internal.IsDropTarget || b.Internal.IsNextDropTarget {
		t.Error("DragLeave should clear highlighting")
	}
}

// TestDragOverRejectsForeignData verifies targets only accept tree-node payloads
func TestDragOverRejectsForeignData(t *testing.T) {
	tr := newTestTree(t, []model.Node{node("a")}, Options{})
	dt := NewDataTransfer()
	dt.SetData(MIMEText, "hello")
	if tr.DragOver(tr.FindByID("a"), ZoneChild, dt) {
		t.Error("plain text should not be accepted")
	}
}

// TestDropSameTreeMove verifies moving A after B in [A, B] yields [B, A]
func TestDropSameTreeMove(t *testing.T) {
	tr := newTestTree(t, []model.Node{node("A"), node("B")}, Options{})
	events := recordEvents(tr)
	a, b := tr.FindByID("A"), tr.FindByID("B")
	dt := NewDataTransfer()

	tr.DragStart(a, dt)
	tr.DragOver(b, ZoneAfter, dt)
	if !tr.Drop(b, ZoneAfter, dt) {
		t.Fatal("Drop should succeed")
	}
	tr.DragEnd(a, dt)

	if got := rootIDs(tr); !equalStrings(got, []string{"B", "A"}) {
		t.Errorf("roots = %v, want [B A]", got)
	}
	if tr.Roots()[1] != a {
		t.Error("the moved node should keep its meta model")
	}
	if a.Internal.DragMoved || a.Internal.Dragging {
		t.Error("drag markers should be cleared after DragEnd")
	}
	if err := meta.CheckParallel(tr.Data(), tr.Roots()); err != nil {
		t.Error(err)
	}
	if !hasKind(*events, EventDrop) || !hasKind(*events, EventDragMove) {
		t.Errorf("events = %v, want Drop and DragMove", kinds(*events))
	}
	if hasKind(*events, EventDelete) {
		t.Error("a same-tree move must not delete the node")
	}
}

// TestDropSameTreeMoveIntoChild verifies a move into another node's children list
func TestDropSameTreeMoveIntoChild(t *testing.T) {
	tr := newTestTree(t, []model.Node{node("a", node("a1")), node("b")}, Options{})
	a1, b := tr.FindByID("a1"), tr.FindByID("b")
	dt := NewDataTransfer()

	tr.DragStart(a1, dt)
	tr.Drop(b, ZoneChild, dt)
	tr.DragEnd(a1, dt)

	if tr.ParentOf(a1) != b {
		t.Error("a1 should now be a child of b")
	}
	if kids, ok := tr.FindByID("a").RawChildren(); !ok || len(kids) != 0 {
		t.Errorf("a raw children = %v, want empty", kids)
	}
	if err := meta.CheckParallel(tr.Data(), tr.Roots()); err != nil {
		t.Error(err)
	}
}

// TestDropSameTreeCopy verifies a copy gets a fresh id and the original stays
func TestDropSameTreeCopy(t *testing.T) {
	tr := newTestTree(t, []model.Node{node("a", node("a1")), node("b")}, Options{ID: "t"})
	a, b := tr.FindByID("a"), tr.FindByID("b")
	dt := NewDataTransfer()

	tr.DragStart(a, dt)
	dt.DropEffect = meta.EffectCopy
	tr.DragOver(b, ZoneBefore, dt)
	if dt.DropEffect != meta.EffectCopy {
		t.Fatalf("DropEffect = %q, want the requested copy", dt.DropEffect)
	}
	tr.Drop(b, ZoneBefore, dt)
	tr.DragEnd(a, dt)

	if got := rootIDs(tr); !equalStrings(got, []string{"a", "a-1", "b"}) {
		t.Errorf("roots = %v, want [a a-1 b]", got)
	}
	cp := tr.FindByID("a-1")
	if cp.Focusable {
		t.Error("copy must not be focusable")
	}
	if len(cp.Children) != 1 || cp.Children[0].ID() != "a1-1" {
		t.Errorf("copied child should be renamed to a1-1")
	}
	if model.Same(cp.Data, a.Data) {
		t.Error("copy should have its own raw data")
	}
	if got := focusableIDs(tr); len(got) != 1 {
		t.Errorf("focusable = %v, want exactly one", got)
	}
}

// TestDropCrossTreeCopyWithConflict verifies conflicting ids get a suffix and the source is untouched
func TestDropCrossTreeCopyWithConflict(t *testing.T) {
	reg := idgen.NewRegistry()
	src := newTestTree(t, []model.Node{node("shared")}, Options{ID: "src", Registry: reg})
	dst := newTestTree(t, []model.Node{node("shared"), node("other")}, Options{ID: "dst", Registry: reg})
	dt := NewDataTransfer()

	shared := src.FindByID("shared")
	src.DragStart(shared, dt)
	dt.DropEffect = meta.EffectCopy
	if !dst.Drop(dst.FindByID("other"), ZoneAfter, dt) {
		t.Fatal("Drop should succeed")
	}
	src.DragEnd(shared, dt)

	if got := rootIDs(dst); !equalStrings(got, []string{"shared", "other", "shared-1"}) {
		t.Errorf("destination roots = %v", got)
	}
	if dst.FindByID("shared-1").Focusable {
		t.Error("dropped copy must not be focusable")
	}
	if got := rootIDs(src); !equalStrings(got, []string{"shared"}) {
		t.Errorf("source roots = %v, want [shared]", got)
	}
	if !reg.Has("dst-shared-1") {
		t.Error("destination should register the new id")
	}
	if err := meta.CheckParallel(dst.Data(), dst.Roots()); err != nil {
		t.Error(err)
	}
}

// TestDropCrossTreeMove verifies the source removes its node on drag end
func TestDropCrossTreeMove(t *testing.T) {
	reg := idgen.NewRegistry()
	src := newTestTree(t, []model.Node{node("p", node("leaf")), node("q")}, Options{ID: "src", Registry: reg})
	dst := newTestTree(t, []model.Node{node("x")}, Options{ID: "dst", Registry: reg})
	dt := NewDataTransfer()

	leaf := src.FindByID("leaf")
	src.DragStart(leaf, dt)
	dst.DragOver(dst.FindByID("x"), ZoneChild, dt)
	dst.Drop(dst.FindByID("x"), ZoneChild, dt)
	src.DragEnd(leaf, dt)

	if dst.FindByID("leaf") == nil {
		t.Error("destination should contain leaf")
	}
	if src.FindByID("leaf") != nil {
		t.Error("source should no longer contain leaf")
	}
	if err := meta.CheckParallel(src.Data(), src.Roots()); err != nil {
		t.Error(err)
	}
}

// TestDropIgnoresBadPayload verifies unparseable payloads are a no-op
func TestDropIgnoresBadPayload(t *testing.T) {
	tr := newTestTree(t, []model.Node{node("a")}, Options{})
	dt := NewDataTransfer()
	dt.SetData(MIMETreeNode, "{not json")
	dt.EffectAllowed = meta.EffectCopyMove

	if tr.Drop(tr.FindByID("a"), ZoneChild, dt) {
		t.Error("Drop should fail")
	}
	if len(tr.Roots()) != 1 || len(tr.FindByID("a").Children) != 0 {
		t.Error("tree should be unchanged")
	}
}

// TestDragEndCopyKeepsSource verifies a copy never deletes the source
func TestDragEndCopyKeepsSource(t *testing.T) {
	tr := newTestTree(t, []model.Node{node("a"), node("b")}, Options{})
	a := tr.FindByID("a")
	dt := NewDataTransfer()
	tr.DragStart(a, dt)
	dt.DropEffect = meta.EffectCopy
	tr.DragEnd(a, dt)

	if tr.FindByID("a") == nil || a.Internal.Dragging {
		t.Error("copy drag end should keep the node and clear dragging")
	}
}

// TestEncodePayloadIsJSON verifies the payload field names
func TestEncodePayloadIsJSON(t *testing.T) {
	m := meta.CreateMetaModel(model.Node{"id": "n"})
	meta.Normalize(m, nil, nil)
	s, err := EncodePayload("tree-1", m)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(s, `"treeId":"tree-1"`) || !strings.Contains(s, `"data":`) {
		t.Errorf("payload = %s", s)
	}
}

// TestPayloadKeepsSubtree verifies a multi-level node survives encoding with
// its state and with child models linked to the decoded raw children
func TestPayloadKeepsSubtree(t *testing.T) {
	tr := newTestTree(t, []model.Node{
		node("a", node("a1", node("a1x"), node("a1y")), node("a2")),
	}, Options{ID: "src"})
	a1 := tr.FindByID("a1")
	tr.SetExpanded(tr.FindByID("a"), true)
	tr.SetExpanded(a1, true)
	a1.Input = &meta.Input{Type: meta.InputCheckbox}

	s, err := EncodePayload("src", tr.FindByID("a"))
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	p, err := DecodePayload(s)
	if err != nil {
		t.Fatalf("DecodePayload: %v", err)
	}

	got := p.Data
	if got.ID() != "a" || !got.State.Expanded {
		t.Errorf("root = %s expanded=%v", got.ID(), got.State.Expanded)
	}
	if err := meta.CheckParallel(mustChildren(t, got), got.Children); err != nil {
		t.Fatalf("decoded subtree is not parallel: %v", err)
	}
	d1 := got.Children[0]
	if d1.ID() != "a1" || len(d1.Children) != 2 || d1.Children[1].ID() != "a1y" {
		t.Errorf("decoded a1 = %s with %d children", d1.ID(), len(d1.Children))
	}
	if d1.Input == nil || d1.Input.Type != meta.InputCheckbox {
		t.Error("input settings should survive encoding")
	}
	if !d1.IsNormalized() || !d1.Children[0].IsNormalized() {
		t.Error("decoded models should be marked normalized")
	}
}

// TestDropCrossTreeSubtree verifies a two-level subtree copied or moved into
// another tree keeps its shape and gets conflict-free ids
func TestDropCrossTreeSubtree(t *testing.T) {
	tests := []struct {
		name       string
		effect     meta.DropEffect
		wantSource []string
	}{
		{"copy", meta.EffectCopy, []string{"p", "q"}},
		{"move", meta.EffectMove, []string{"q"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := idgen.NewRegistry()
			src := newTestTree(t, []model.Node{
				node("p", node("c1", node("g")), node("c2")),
				node("q"),
			}, Options{ID: "src", Registry: reg})
			dst := newTestTree(t, []model.Node{node("p"), node("x")}, Options{ID: "dst", Registry: reg})
			dt := NewDataTransfer()

			p := src.FindByID("p")
			if !src.DragStart(p, dt) {
				t.Fatal("DragStart should succeed for a node with children")
			}
			dt.DropEffect = tt.effect
			x := dst.FindByID("x")
			if !dst.DragOver(x, ZoneAfter, dt) || !dst.Drop(x, ZoneAfter, dt) {
				t.Fatal("Drop should succeed")
			}
			src.DragEnd(p, dt)

			if got := rootIDs(dst); !equalStrings(got, []string{"p", "x", "p-1"}) {
				t.Errorf("destination roots = %v", got)
			}
			if err := meta.CheckParallel(dst.Data(), dst.Roots()); err != nil {
				t.Errorf("destination not parallel: %v", err)
			}
			dropped := dst.FindByID("p-1")
			if len(dropped.Children) != 2 || dropped.Children[0].ID() != "c1" ||
				len(dropped.Children[0].Children) != 1 || dropped.Children[0].Children[0].ID() != "g" {
				t.Error("dropped subtree lost its shape")
			}
			if got := focusableIDs(dst); !equalStrings(got, []string{"p"}) {
				t.Errorf("destination focusable = %v, want [p]", got)
			}
			if got := rootIDs(src); !equalStrings(got, tt.wantSource) {
				t.Errorf("source roots = %v, want %v", got, tt.wantSource)
			}
			if err := meta.CheckParallel(src.Data(), src.Roots()); err != nil {
				t.Errorf("source not parallel: %v", err)
			}
		})
	}
}

// selectableDrag makes nodes draggable drop targets and preselects the given ids.
func selectableDrag(ids ...string) meta.DefaultsFunc {
	set := make(map[string]bool)
	for _, id := range ids {
		set[id] = true
	}
	return func(n model.Node) *meta.Overrides {
		return &meta.Overrides{
			Selectable: meta.Bool(true),
			Draggable:  meta.Bool(true),
			AllowDrop:  meta.Bool(true),
			State:      &meta.StateOverrides{Selected: meta.Bool(set[n.ID("id")])},
		}
	}
}

// TestDropKeepsSelectionMode verifies a drop never leaves a second selected
// node under the exclusive modes
func TestDropKeepsSelectionMode(t *testing.T) {
	tests := []struct {
		name string
		mode SelectionMode
	}{
		{"single", SelectionSingle},
		{"follows focus", SelectionFollowsFocus},
	}
	for _, tt := range tests {
		t.Run(tt.name+" same tree copy", func(t *testing.T) {
			tr := newTestTree(t, []model.Node{node("a"), node("b")}, Options{
				ID:            "t",
				SelectionMode: tt.mode,
				Defaults:      selectableDrag("a"),
			})
			a, b := tr.FindByID("a"), tr.FindByID("b")
			dt := NewDataTransfer()
			tr.DragStart(a, dt)
			dt.DropEffect = meta.EffectCopy
			if !tr.Drop(b, ZoneAfter, dt) {
				t.Fatal("Drop should succeed")
			}
			tr.DragEnd(a, dt)

			if got := rootIDs(tr); !equalStrings(got, []string{"a", "b", "a-1"}) {
				t.Fatalf("roots = %v", got)
			}
			if got := selectedIDs(tr); !equalStrings(got, []string{"a"}) {
				t.Errorf("selected = %v, want [a]", got)
			}
		})

		t.Run(tt.name+" cross tree", func(t *testing.T) {
			reg := idgen.NewRegistry()
			src := newTestTree(t, []model.Node{node("s")}, Options{
				ID: "src", Registry: reg, Defaults: selectableDrag("s"),
			})
			dst := newTestTree(t, []model.Node{node("x")}, Options{
				ID: "dst", Registry: reg, SelectionMode: tt.mode, Defaults: selectableDrag("x"),
			})
			dt := NewDataTransfer()
			s := src.FindByID("s")
			src.DragStart(s, dt)
			dt.DropEffect = meta.EffectCopy
			if !dst.Drop(dst.FindByID("x"), ZoneAfter, dt) {
				t.Fatal("Drop should succeed")
			}

			if got := selectedIDs(dst); !equalStrings(got, []string{"x"}) {
				t.Errorf("destination selected = %v, want [x]", got)
			}
		})
	}
}
