package meta

import (
	"log"
	"regexp"
	"strings"

	"github.com/jinzhu/copier"

	"github.com/vanderheijden86/treeview/pkg/model"
)

// radioValueStrip matches characters removed from a label when it is used
// as a radio value.
var radioValueStrip = regexp.MustCompile(`[\s&<>"'/]`)

// CreateMetaModel returns an unnormalized meta model for data. It is the
// constructor the update helpers use; full normalization happens on the next
// Normalize pass.
func CreateMetaModel(data model.Node) *Model {
	return &Model{Data: data}
}

// New returns an unnormalized meta model for data with caller overrides.
func New(data model.Node, overrides *Overrides) *Model {
	return &Model{Data: data, Overrides: overrides}
}

// Normalize fills every field of m so it is a complete meta model, then does
// the same for each child, creating child meta models for raw children that
// do not have one yet.
//
// Caller overrides win over values from defaults, which win over hardcoded
// defaults. Fields resolved on the first pass are not re-resolved on later
// passes, so UI state survives repeated normalization.
func Normalize(m *Model, defaults DefaultsFunc, radios RadioGroups) {
	if m == nil {
		return
	}
	if m.Data == nil {
		m.Data = model.Node{}
	}

	first := !m.normalized
	if first {
		applyOverrides(m, mergeOverrides(m, defaults))
	}

	if !m.DataTransferEffectAllowed.IsValid() {
		m.DataTransferEffectAllowed = EffectCopyMove
	}
	m.Title = blankToEmpty(m.Title)
	m.ExpanderTitle = blankToEmpty(m.ExpanderTitle)
	m.AddChildTitle = blankToEmpty(m.AddChildTitle)
	m.DeleteTitle = blankToEmpty(m.DeleteTitle)

	normalizeInput(m, radios, first)

	if first {
		if m.LoadChildrenAsync != nil {
			m.Internal.AreChildrenLoaded = false
			m.State.Expanded = false
		} else {
			m.Internal.AreChildrenLoaded = true
		}
		if m.AddChildCallback != nil {
			if _, ok := m.RawChildren(); !ok {
				log.Printf("warning: node %q has an add-child callback but %q is not a list; adding children is disabled",
					m.ID(), m.ChildrenProperty)
			}
		}
		m.normalized = true
	}

	syncChildren(m)
	for _, child := range m.Children {
		Normalize(child, defaults, radios)
	}
}

// mergeOverrides builds the effective partial model: defaults first, then
// the caller's own overrides on top.
func mergeOverrides(m *Model, defaults DefaultsFunc) *Overrides {
	var d *Overrides
	if defaults != nil {
		d = defaults(m.Data)
	}
	return Merge(d, m.Overrides)
}

// Merge layers partial models in order; a set field in a later layer wins.
// Scalars are deep-copied with copier, so the result never aliases a layer's
// pointers. Input and State are copied by hand and callbacks are carried
// over by reference.
func Merge(layers ...*Overrides) *Overrides {
	merged := &Overrides{}
	opt := copier.Option{IgnoreEmpty: true, DeepCopy: true}

	for _, layer := range layers {
		if layer == nil {
			continue
		}
		if err := copier.CopyWithOption(merged, layer, opt); err != nil {
			log.Printf("warning: failed to merge node defaults: %v", err)
		}
		if layer.Input != nil {
			in := *layer.Input
			merged.Input = &in
		}
		if layer.State != nil {
			if merged.State == nil {
				merged.State = &StateOverrides{}
			}
			mergeState(merged.State, layer.State)
		}
		if layer.AddChildCallback != nil {
			merged.AddChildCallback = layer.AddChildCallback
		}
		if layer.DeleteNodeCallback != nil {
			merged.DeleteNodeCallback = layer.DeleteNodeCallback
		}
		if layer.LoadChildrenAsync != nil {
			merged.LoadChildrenAsync = layer.LoadChildrenAsync
		}
	}
	return merged
}

func mergeState(dst, src *StateOverrides) {
	if src.Expanded != nil {
		v := *src.Expanded
		dst.Expanded = &v
	}
	if src.Selected != nil {
		v := *src.Selected
		dst.Selected = &v
	}
	if src.Input != nil {
		v := *src.Input
		dst.Input = &v
	}
}

func applyOverrides(m *Model, o *Overrides) {
	m.IDProperty = propOr(o.IDProperty, model.DefaultIDProperty)
	m.LabelProperty = propOr(o.LabelProperty, model.DefaultLabelProperty)
	m.ChildrenProperty = propOr(o.ChildrenProperty, model.DefaultChildrenProperty)

	m.Title = strOr(o.Title, "")
	m.ExpanderTitle = strOr(o.ExpanderTitle, "")
	m.AddChildTitle = strOr(o.AddChildTitle, "")
	m.DeleteTitle = strOr(o.DeleteTitle, "")

	m.Expandable = boolOr(o.Expandable, true)
	m.Selectable = boolOr(o.Selectable, false)
	m.Deletable = boolOr(o.Deletable, false)
	m.Draggable = boolOr(o.Draggable, false)
	m.AllowDrop = boolOr(o.AllowDrop, false)
	m.Focusable = boolOr(o.Focusable, false)

	if o.DataTransferEffectAllowed != nil {
		m.DataTransferEffectAllowed = *o.DataTransferEffectAllowed
	}

	m.Input = o.Input

	if o.State != nil {
		m.State.Expanded = boolOr(o.State.Expanded, false)
		m.State.Selected = boolOr(o.State.Selected, false)
		m.State.Input = o.State.Input
	}

	m.AddChildCallback = o.AddChildCallback
	m.DeleteNodeCallback = o.DeleteNodeCallback
	m.LoadChildrenAsync = o.LoadChildrenAsync
}

// normalizeInput discards unrecognized inputs and fills radio names and
// values. Radio groups are registered in radios the first time a name is seen.
func normalizeInput(m *Model, radios RadioGroups, first bool) {
	if m.Input == nil {
		return
	}
	if !m.Input.Type.IsValid() {
		m.Input = nil
		m.State.Input = nil
		return
	}

	if m.Input.Type == InputRadio {
		if strings.TrimSpace(m.Input.Name) == "" {
			m.Input.Name = UnspecifiedRadioName
		}
		if strings.TrimSpace(m.Input.Value) == "" {
			m.Input.Value = radioValueStrip.ReplaceAllString(m.Label(), "")
		}
		if radios != nil {
			if _, ok := radios[m.Input.Name]; !ok {
				radios[m.Input.Name] = ""
			}
			if first && m.Input.IsInitialRadioGroupValue {
				radios[m.Input.Name] = m.Input.Value
			}
		}
	} else {
		m.Input.Name = ""
	}

	if m.State.Input == nil {
		m.State.Input = &InputState{}
	}
}

// syncChildren aligns m.Children with the raw children list. Existing meta
// models are kept when their raw node is still present.
func syncChildren(m *Model) {
	raws, _ := m.RawChildren()
	m.Children = SyncList(raws, m.Children)
}

// SyncList returns a meta list aligned to raws, reusing metas by raw
// identity and creating meta models for new raw nodes.
func SyncList(raws []model.Node, metas []*Model) []*Model {
	if aligned(raws, metas) {
		return metas
	}
	existing := make(map[uintptr][]*Model, len(metas))
	for _, mm := range metas {
		if mm == nil {
			continue
		}
		k := model.Key(mm.Data)
		existing[k] = append(existing[k], mm)
	}
	out := make([]*Model, 0, len(raws))
	for _, raw := range raws {
		k := model.Key(raw)
		if found := existing[k]; len(found) > 0 {
			out = append(out, found[0])
			existing[k] = found[1:]
			continue
		}
		out = append(out, CreateMetaModel(raw))
	}
	return out
}

func aligned(raws []model.Node, metas []*Model) bool {
	if len(raws) != len(metas) {
		return false
	}
	for i := range raws {
		if metas[i] == nil || !model.Same(metas[i].Data, raws[i]) {
			return false
		}
	}
	return true
}

func blankToEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

func propOr(p *string, def string) string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return def
	}
	return *p
}

func strOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
