package tree

import (
	"fmt"

	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/model"
)

// EventKind names an outbound tree event.
type EventKind string

const (
	EventRootNodesLoad  EventKind = "rootNodesLoad"
	EventClick          EventKind = "click"
	EventDoubleClick    EventKind = "doubleClick"
	EventCheckboxChange EventKind = "checkboxChange"
	EventRadioChange    EventKind = "radioChange"
	EventExpandedChange EventKind = "expandedChange"
	EventChildrenLoad   EventKind = "childrenLoad"
	EventSelectedChange EventKind = "selectedChange"
	EventFocusable      EventKind = "focusableChange"
	EventAdd            EventKind = "add"
	EventDelete         EventKind = "delete"
	EventDragMove       EventKind = "dragMove"
	EventDrop           EventKind = "drop"

	// Focus requests bubbling from a node to its parent scope.
	EventRequestFirstFocus    EventKind = "requestFirstFocus"
	EventRequestLastFocus     EventKind = "requestLastFocus"
	EventRequestParentFocus   EventKind = "requestParentFocus"
	EventRequestPreviousFocus EventKind = "requestPreviousFocus"
	EventRequestNextFocus     EventKind = "requestNextFocus"
)

// Event is delivered synchronously to subscribers.
type Event struct {
	Kind EventKind

	// Node is the node the event is about.
	Node *meta.Model
	// Parent is set for EventAdd.
	Parent *meta.Model
	// Roots is set for EventRootNodesLoad.
	Roots []model.Node
	// IgnoreChildren is set for EventRequestNextFocus.
	IgnoreChildren bool
	// Drop is set for EventDrop.
	Drop *DropEvent
}

// DropEvent describes a completed drop.
type DropEvent struct {
	Node         *meta.Model
	Target       *meta.Model
	Zone         DropZone
	Effect       meta.DropEffect
	SameTree     bool
	SourceTreeID string
}

// Listener receives tree events.
type Listener func(Event)

// Subscribe registers l and returns a function that removes it.
func (t *Tree) Subscribe(l Listener) (unsubscribe func()) {
	id := t.nextListener
	t.nextListener++
	t.listeners[id] = l
	t.listenerOrder = append(t.listenerOrder, id)
	return func() {
		delete(t.listeners, id)
		for i, o := range t.listenerOrder {
			if o == id {
				t.listenerOrder = append(t.listenerOrder[:i:i], t.listenerOrder[i+1:]...)
				break
			}
		}
	}
}

func (t *Tree) emit(e Event) {
	for _, id := range t.listenerOrder {
		if l, ok := t.listeners[id]; ok {
			l(e)
		}
	}
}

// CallbackError wraps an error returned by a caller-supplied callback.
type CallbackError struct {
	Op     string // "loadChildren", "loadNodes", "addChild", "deleteNode"
	NodeID string
	Cause  error
}

func (e CallbackError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("%s callback failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s callback failed for node %q: %v", e.Op, e.NodeID, e.Cause)
}

func (e CallbackError) Unwrap() error {
	return e.Cause
}
