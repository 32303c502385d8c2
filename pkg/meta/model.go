// Package meta implements the normalized shadow tree ("meta model") that
// carries UI state for a caller-owned raw tree.
//
// Every meta Model points at one raw node and keeps a child list that is
// index-aligned with the raw node's children list. Structural edits go through
// the helpers in update.go so the two lists never drift.
package meta

import (
	"context"

	"github.com/vanderheijden86/treeview/pkg/model"
)

// DropEffect is the drag-and-drop effect a node allows.
type DropEffect string

const (
	EffectCopy     DropEffect = "copy"
	EffectMove     DropEffect = "move"
	EffectCopyMove DropEffect = "copyMove"
	EffectNone     DropEffect = "none"
)

// IsValid reports whether e is one of the recognized effects.
func (e DropEffect) IsValid() bool {
	switch e {
	case EffectCopy, EffectMove, EffectCopyMove, EffectNone:
		return true
	}
	return false
}

// Allows reports whether e permits the concrete effect want (copy or move).
func (e DropEffect) Allows(want DropEffect) bool {
	switch e {
	case EffectCopyMove:
		return want == EffectCopy || want == EffectMove
	case EffectCopy, EffectMove:
		return e == want
	}
	return false
}

// InputType is the kind of input control a node renders.
type InputType string

const (
	InputCheckbox InputType = "checkbox"
	InputRadio    InputType = "radio"
)

// IsValid reports whether t is a recognized input type.
func (t InputType) IsValid() bool {
	return t == InputCheckbox || t == InputRadio
}

// UnspecifiedRadioName is the group name given to radio inputs without one.
const UnspecifiedRadioName = "unspecifiedRadioName"

// Input describes the optional checkbox or radio button of a node.
type Input struct {
	Type                     InputType `json:"type" yaml:"type"`
	Name                     string    `json:"name,omitempty" yaml:"name,omitempty"`
	Value                    string    `json:"value,omitempty" yaml:"value,omitempty"`
	IsInitialRadioGroupValue bool      `json:"isInitialRadioGroupValue,omitempty" yaml:"is_initial_radio_group_value,omitempty"`
}

// InputState is the mutable state of a node's input.
type InputState struct {
	Value    bool `json:"value"`
	Disabled bool `json:"disabled"`
}

// State is the public mutable UI state of a node.
type State struct {
	Expanded bool        `json:"expanded"`
	Selected bool        `json:"selected"`
	Input    *InputState `json:"input,omitempty"`
}

// Internal is UI state that is not part of the public contract.
type Internal struct {
	Dragging            bool `json:"-"`
	DragMoved           bool `json:"-"`
	IsDropTarget        bool `json:"-"`
	IsPrevDropTarget    bool `json:"-"`
	IsNextDropTarget    bool `json:"-"`
	IsChildDropTarget   bool `json:"-"`
	KeepCurrentDomFocus bool `json:"-"`

	AreChildrenLoaded    bool `json:"areChildrenLoaded"`
	AreChildrenLoading   bool `json:"areChildrenLoading"`
	MatchesFilter        bool `json:"matchesFilter"`
	SubnodeMatchesFilter bool `json:"subnodeMatchesFilter"`
}

// ClearDropTargets resets every drop-zone highlight flag.
func (i *Internal) ClearDropTargets() {
	i.IsDropTarget = false
	i.IsPrevDropTarget = false
	i.IsNextDropTarget = false
	i.IsChildDropTarget = false
}

// AddChildFunc produces a new raw child for parent. A nil node with a nil
// error means nothing should be added.
type AddChildFunc func(ctx context.Context, parent *Model) (model.Node, error)

// DeleteNodeFunc confirms deletion of node. Returning false cancels it.
type DeleteNodeFunc func(ctx context.Context, node *Model) (bool, error)

// LoadChildrenFunc loads the children of node.
type LoadChildrenFunc func(ctx context.Context, node *Model) ([]model.Node, error)

// Model is a meta-model node.
type Model struct {
	Data model.Node `json:"data"`

	IDProperty       string `json:"idProperty"`
	LabelProperty    string `json:"labelProperty"`
	ChildrenProperty string `json:"childrenProperty"`

	Title         string `json:"title,omitempty"`
	ExpanderTitle string `json:"expanderTitle,omitempty"`
	AddChildTitle string `json:"addChildTitle,omitempty"`
	DeleteTitle   string `json:"deleteTitle,omitempty"`

	Expandable bool `json:"expandable"`
	Selectable bool `json:"selectable"`
	Deletable  bool `json:"deletable"`
	Draggable  bool `json:"draggable"`
	AllowDrop  bool `json:"allowDrop"`
	Focusable  bool `json:"focusable"`

	DataTransferEffectAllowed DropEffect `json:"dataTransferEffectAllowed"`

	Input *Input `json:"input"`
	State State  `json:"state"`

	Internal Internal `json:"internal"`

	AddChildCallback   AddChildFunc     `json:"-"`
	DeleteNodeCallback DeleteNodeFunc   `json:"-"`
	LoadChildrenAsync  LoadChildrenFunc `json:"-"`

	Children []*Model `json:"childMetaModels"`

	// Overrides holds caller-specified values that take precedence over the
	// defaults function on first normalization.
	Overrides *Overrides `json:"-"`

	normalized bool
}

// ID returns the node's id through its id property.
func (m *Model) ID() string {
	if m == nil {
		return ""
	}
	return m.Data.ID(m.IDProperty)
}

// Label returns the node's label through its label property.
func (m *Model) Label() string {
	if m == nil {
		return ""
	}
	return m.Data.Label(m.LabelProperty)
}

// SetID writes id onto the raw node through the id property.
func (m *Model) SetID(id string) {
	prop := m.IDProperty
	if prop == "" {
		prop = model.DefaultIDProperty
	}
	m.Data[prop] = id
}

// RawChildren returns the raw children list and whether it exists.
func (m *Model) RawChildren() ([]model.Node, bool) {
	return m.Data.Children(m.ChildrenProperty)
}

// IsNormalized reports whether Normalize has run on m at least once.
func (m *Model) IsNormalized() bool {
	return m != nil && m.normalized
}

// IsRadioChecked reports whether m is a radio input whose value is the
// current value of its group.
func (m *Model) IsRadioChecked(radios RadioGroups) bool {
	if m == nil || m.Input == nil || m.Input.Type != InputRadio {
		return false
	}
	v, ok := radios[m.Input.Name]
	return ok && v == m.Input.Value
}

// RadioGroups maps a radio group name to its currently selected value.
type RadioGroups map[string]string
