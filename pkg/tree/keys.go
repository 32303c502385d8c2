package tree

import (
	"fmt"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
)

// Command is a keyboard command a tree understands.
type Command string

const (
	CmdActivateItem        Command = "activateItem"
	CmdSelectItem          Command = "selectItem"
	CmdFocusFirstItem      Command = "focusFirstItem"
	CmdFocusLastItem       Command = "focusLastItem"
	CmdCollapseFocusedItem Command = "collapseFocusedItem"
	CmdExpandFocusedItem   Command = "expandFocusedItem"
	CmdFocusPreviousItem   Command = "focusPreviousItem"
	CmdFocusNextItem       Command = "focusNextItem"
	CmdInsertItem          Command = "insertItem"
	CmdDeleteItem          Command = "deleteItem"
)

// Commands lists every command in a stable order.
func Commands() []Command {
	return []Command{
		CmdActivateItem, CmdSelectItem, CmdFocusFirstItem, CmdFocusLastItem,
		CmdCollapseFocusedItem, CmdExpandFocusedItem, CmdFocusPreviousItem,
		CmdFocusNextItem, CmdInsertItem, CmdDeleteItem,
	}
}

// KeyMap binds commands to key names as produced by tea.KeyMsg.String.
type KeyMap map[Command][]string

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		CmdActivateItem:        {" "},
		CmdSelectItem:          {"enter"},
		CmdFocusFirstItem:      {"home"},
		CmdFocusLastItem:       {"end"},
		CmdCollapseFocusedItem: {"left"},
		CmdExpandFocusedItem:   {"right"},
		CmdFocusPreviousItem:   {"up"},
		CmdFocusNextItem:       {"down"},
		CmdInsertItem:          {"insert"},
		CmdDeleteItem:          {"delete"},
	}
}

// Lookup returns the command bound to key.
func (k KeyMap) Lookup(key string) (Command, bool) {
	// Iterate in a fixed order so overlapping bindings resolve predictably.
	for _, cmd := range Commands() {
		for _, bound := range k[cmd] {
			if bound == key {
				return cmd, true
			}
		}
	}
	return "", false
}

// WithOverrides returns a copy of k where each command named in overrides
// is rebound to the given keys. Unknown command names are an error.
func (k KeyMap) WithOverrides(overrides map[string][]string) (KeyMap, error) {
	known := make(map[Command]bool)
	for _, c := range Commands() {
		known[c] = true
	}
	out := make(KeyMap, len(k))
	for c, keys := range k {
		out[c] = append([]string(nil), keys...)
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := Command(name)
		if !known[c] {
			return nil, fmt.Errorf("unknown key command %q", name)
		}
		out[c] = append([]string(nil), overrides[name]...)
	}
	return out, nil
}

// HandleKey routes key to the command bound to it, acting on the focused
// node. It reports whether key is bound. The command is non-nil when the
// action calls a caller callback.
func (t *Tree) HandleKey(key string) (tea.Cmd, bool) {
	command, ok := t.keys.Lookup(key)
	if !ok {
		return nil, false
	}
	return t.Run(command), true
}

// Run performs command on the focused node.
func (t *Tree) Run(command Command) tea.Cmd {
	m := t.focused
	if m == nil {
		return nil
	}

	switch command {
	case CmdActivateItem:
		t.ActivateInput(m)
	case CmdSelectItem:
		t.ToggleSelected(m)
	case CmdFocusFirstItem:
		t.emit(Event{Kind: EventRequestFirstFocus, Node: m})
		t.FocusFirstItem()
	case CmdFocusLastItem:
		t.emit(Event{Kind: EventRequestLastFocus, Node: m})
		t.FocusLastItem()
	case CmdCollapseFocusedItem:
		if m.State.Expanded && t.CanExpand(m) {
			return t.SetExpanded(m, false)
		}
		t.FocusParent(m)
	case CmdExpandFocusedItem:
		if !m.State.Expanded && t.CanExpand(m) {
			return t.SetExpanded(m, true)
		}
		if m.State.Expanded {
			if kids := t.FilteredChildren(m); len(kids) > 0 {
				t.focus(kids[0], false)
			}
		}
	case CmdFocusPreviousItem:
		t.FocusPrevious(m)
	case CmdFocusNextItem:
		t.FocusNext(m, false)
	case CmdInsertItem:
		return t.AddChild(m)
	case CmdDeleteItem:
		return t.Delete(m)
	}
	return nil
}
