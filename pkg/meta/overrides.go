package meta

import "github.com/vanderheijden86/treeview/pkg/model"

// Overrides is a partial meta model. Nil fields are unset. It is the shape of
// both caller-specified values and the output of a DefaultsFunc, and can be
// read from the config file.
type Overrides struct {
	IDProperty       *string `json:"idProperty,omitempty" yaml:"id_property,omitempty"`
	LabelProperty    *string `json:"labelProperty,omitempty" yaml:"label_property,omitempty"`
	ChildrenProperty *string `json:"childrenProperty,omitempty" yaml:"children_property,omitempty"`

	Title         *string `json:"title,omitempty" yaml:"title,omitempty"`
	ExpanderTitle *string `json:"expanderTitle,omitempty" yaml:"expander_title,omitempty"`
	AddChildTitle *string `json:"addChildTitle,omitempty" yaml:"add_child_title,omitempty"`
	DeleteTitle   *string `json:"deleteTitle,omitempty" yaml:"delete_title,omitempty"`

	Expandable *bool `json:"expandable,omitempty" yaml:"expandable,omitempty"`
	Selectable *bool `json:"selectable,omitempty" yaml:"selectable,omitempty"`
	Deletable  *bool `json:"deletable,omitempty" yaml:"deletable,omitempty"`
	Draggable  *bool `json:"draggable,omitempty" yaml:"draggable,omitempty"`
	AllowDrop  *bool `json:"allowDrop,omitempty" yaml:"allow_drop,omitempty"`
	Focusable  *bool `json:"focusable,omitempty" yaml:"focusable,omitempty"`

	DataTransferEffectAllowed *DropEffect `json:"dataTransferEffectAllowed,omitempty" yaml:"data_transfer_effect_allowed,omitempty"`

	// Input and State are merged field by field in Normalize.
	Input *Input          `json:"input,omitempty" yaml:"input,omitempty" copier:"-"`
	State *StateOverrides `json:"state,omitempty" yaml:"state,omitempty" copier:"-"`

	// Callbacks are never cloned; Normalize re-attaches them by reference.
	AddChildCallback   AddChildFunc     `json:"-" yaml:"-" copier:"-"`
	DeleteNodeCallback DeleteNodeFunc   `json:"-" yaml:"-" copier:"-"`
	LoadChildrenAsync  LoadChildrenFunc `json:"-" yaml:"-" copier:"-"`
}

// StateOverrides is the partial form of State.
type StateOverrides struct {
	Expanded *bool       `json:"expanded,omitempty" yaml:"expanded,omitempty"`
	Selected *bool       `json:"selected,omitempty" yaml:"selected,omitempty"`
	Input    *InputState `json:"input,omitempty" yaml:"input,omitempty"`
}

// DefaultsFunc produces per-node defaults from a raw node.
type DefaultsFunc func(data model.Node) *Overrides

// Bool returns a pointer to b, for building Overrides literals.
func Bool(b bool) *bool { return &b }

// String returns a pointer to s, for building Overrides literals.
func String(s string) *string { return &s }

// Effect returns a pointer to e, for building Overrides literals.
func Effect(e DropEffect) *DropEffect { return &e }

// StaticDefaults returns a DefaultsFunc that yields o for every node.
func StaticDefaults(o *Overrides) DefaultsFunc {
	if o == nil {
		return nil
	}
	return func(model.Node) *Overrides { return o }
}
