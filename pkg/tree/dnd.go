package tree

import (
	"log"

	"github.com/vanderheijden86/treeview/pkg/idgen"
	"github.com/vanderheijden86/treeview/pkg/meta"
)

// DropZone is where a drop lands relative to its target node.
type DropZone int

const (
	// ZoneChild appends the dropped node to the target's children.
	ZoneChild DropZone = iota
	// ZoneBefore inserts it as the target's previous sibling.
	ZoneBefore
	// ZoneAfter inserts it as the target's next sibling.
	ZoneAfter
)

func (z DropZone) String() string {
	switch z {
	case ZoneBefore:
		return "before"
	case ZoneAfter:
		return "after"
	default:
		return "child"
	}
}

// intersects reports whether two effect policies share a concrete effect.
func intersects(a, b meta.DropEffect) bool {
	if a == b {
		return true
	}
	return a.Allows(meta.EffectCopy) && b.Allows(meta.EffectCopy) ||
		a.Allows(meta.EffectMove) && b.Allows(meta.EffectMove)
}

// DragStart begins dragging m: the node is marked as dragging and its
// payload is written to dt under every supported MIME type. It reports
// false when m is not draggable.
func (t *Tree) DragStart(m *meta.Model, dt *DataTransfer) bool {
	if m == nil || dt == nil || !m.Draggable || t.Path(m) == nil {
		return false
	}
	payload, err := EncodePayload(t.id, m)
	if err != nil {
		log.Printf("warning: %v", err)
		return false
	}

	m.Internal.Dragging = true
	effect := m.DataTransferEffectAllowed
	if dt.Restriction != "" && !intersects(effect, dt.Restriction) {
		effect = meta.EffectCopyMove
	}
	dt.EffectAllowed = effect
	dt.DropEffect = meta.EffectNone
	for _, mime := range []string{MIMETreeNode, MIMEJSON, MIMEText} {
		dt.SetData(mime, payload)
	}
	return true
}

// canDrop reports whether target accepts the drag in dt. A node never
// accepts a drag of itself or of one of its ancestors.
func (t *Tree) canDrop(target *meta.Model, dt *DataTransfer) bool {
	if target == nil || dt == nil || !target.AllowDrop || !dt.HasType(MIMETreeNode) {
		return false
	}
	for _, n := range t.Path(target) {
		if n.Internal.Dragging {
			return false
		}
	}
	return true
}

// chooseEffect picks the effect a drop would apply: the caller's preference
// when allowed, else move, else copy.
func chooseEffect(dt *DataTransfer) meta.DropEffect {
	allowed := dt.EffectAllowed
	if allowed == "" {
		allowed = meta.EffectCopyMove
	}
	if (dt.DropEffect == meta.EffectCopy || dt.DropEffect == meta.EffectMove) && allowed.Allows(dt.DropEffect) {
		return dt.DropEffect
	}
	if allowed.Allows(meta.EffectMove) {
		return meta.EffectMove
	}
	if allowed.Allows(meta.EffectCopy) {
		return meta.EffectCopy
	}
	return meta.EffectNone
}

// DragEnter highlights zone on target when the target accepts the drag.
func (t *Tree) DragEnter(target *meta.Model, zone DropZone, dt *DataTransfer) bool {
	return t.DragOver(target, zone, dt)
}

// DragOver is DragEnter repeated while the pointer moves. It sets
// dt.DropEffect to the effect a drop here would apply, or none.
func (t *Tree) DragOver(target *meta.Model, zone DropZone, dt *DataTransfer) bool {
	if !t.canDrop(target, dt) {
		if dt != nil {
			dt.DropEffect = meta.EffectNone
		}
		return false
	}
	target.Internal.ClearDropTargets()
	target.Internal.IsDropTarget = true
	switch zone {
	case ZoneBefore:
		target.Internal.IsPrevDropTarget = true
	case ZoneAfter:
		target.Internal.IsNextDropTarget = true
	default:
		target.Internal.IsChildDropTarget = true
	}
	dt.DropEffect = chooseEffect(dt)
	return dt.DropEffect != meta.EffectNone
}

// DragLeave clears the highlight of zone on target.
func (t *Tree) DragLeave(target *meta.Model, zone DropZone, dt *DataTransfer) {
	if target == nil {
		return
	}
	switch zone {
	case ZoneBefore:
		target.Internal.IsPrevDropTarget = false
	case ZoneAfter:
		target.Internal.IsNextDropTarget = false
	default:
		target.Internal.IsChildDropTarget = false
	}
	in := target.Internal
	if !in.IsPrevDropTarget && !in.IsNextDropTarget && !in.IsChildDropTarget {
		target.Internal.IsDropTarget = false
	}
}

// Drop completes a drag on target. Within one tree a move relocates the
// original node and a copy inserts a deep copy of it. A node from another
// tree is inserted as decoded from the payload; the source tree removes
// its own node in DragEnd when the effect was a move. Copies get
// conflict-free ids and are never focusable.
//
// Drops that cannot be resolved are ignored and report false.
func (t *Tree) Drop(target *meta.Model, zone DropZone, dt *DataTransfer) bool {
	if !t.canDrop(target, dt) {
		return false
	}
	defer target.Internal.ClearDropTargets()

	payload, err := DecodePayload(dt.GetData(MIMETreeNode))
	if err != nil {
		log.Printf("warning: ignoring drop on %q: %v", target.ID(), err)
		return false
	}
	effect := chooseEffect(dt)
	if effect == meta.EffectNone {
		return false
	}
	sameTree := payload.TreeID == t.id

	var node *meta.Model
	switch {
	case sameTree && effect == meta.EffectMove:
		orig := t.FindByID(payload.Data.ID())
		if orig == nil || contains(orig, target) {
			return false
		}
		t.detach(orig, t.Path(orig))
		orig.Internal.DragMoved = true
		node = orig
	case sameTree:
		orig := t.FindByID(payload.Data.ID())
		if orig == nil {
			return false
		}
		node = orig.Clone()
	default:
		node = payload.Data
	}

	moved := node.Internal.DragMoved
	if !moved {
		idgen.ResolveIDConflicts(node, t.id, t.registry)
		DepthFirst([]*meta.Model{node}, func(n *meta.Model) bool {
			n.Focusable = false
			n.Internal.Dragging = false
			return true
		})
	}

	if !t.insertAt(target, zone, node) {
		// Only reachable for a move when the target vanished; put it back.
		if moved {
			meta.InsertModels(&t.data, &t.roots, len(t.roots), node)
		}
		t.Sync()
		return false
	}
	t.Sync()

	dt.DropEffect = effect
	t.emit(Event{Kind: EventDrop, Node: node, Drop: &DropEvent{
		Node:         node,
		Target:       target,
		Zone:         zone,
		Effect:       effect,
		SameTree:     sameTree,
		SourceTreeID: payload.TreeID,
	}})
	if moved {
		t.emit(Event{Kind: EventDragMove, Node: node})
	}
	return true
}

// insertAt puts node into the list zone refers to, raw and meta together.
func (t *Tree) insertAt(target *meta.Model, zone DropZone, node *meta.Model) bool {
	if zone == ZoneChild {
		kids, _ := target.RawChildren()
		target.InsertChildren(len(kids), node)
		return true
	}

	path := t.Path(target)
	if path == nil {
		return false
	}
	level := len(path) - 1
	siblings := t.siblingsAt(path, level)
	index := -1
	for i, s := range siblings {
		if s == target {
			index = i
			break
		}
	}
	if index < 0 {
		return false
	}
	if zone == ZoneAfter {
		index++
	}
	if level == 0 {
		meta.InsertModels(&t.data, &t.roots, index, node)
	} else {
		path[level-1].InsertChildren(index, node)
	}
	return true
}

// DragEnd finishes a drag on the source tree. A move that the same tree
// already relocated only clears its marker; a move into another tree
// removes the source node here. Copies and cancelled drags leave the tree
// as it was.
func (t *Tree) DragEnd(source *meta.Model, dt *DataTransfer) {
	if source == nil {
		return
	}
	source.Internal.Dragging = false
	if dt != nil && dt.DropEffect == meta.EffectMove {
		if source.Internal.DragMoved {
			source.Internal.DragMoved = false
		} else {
			t.removeNode(source)
		}
	}
	t.DepthFirst(func(m *meta.Model) bool {
		m.Internal.ClearDropTargets()
		return true
	})
}
