package tree

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/objutil"
)

// MIME types a dragged node is offered under. All three carry the same
// encoded Payload.
const (
	MIMETreeNode = "application/x-treeview-node+json"
	MIMEJSON     = "application/json"
	MIMEText     = "text/plain"
)

// DataTransfer is the clipboard of a drag operation, shared between the
// source tree and whichever tree receives the drop.
type DataTransfer struct {
	// EffectAllowed is set by DragStart from the dragged node's policy.
	EffectAllowed meta.DropEffect
	// DropEffect is the effect the current target would apply, or that the
	// drop applied once it completed. A caller may set it to copy or move
	// before DragOver to state a preference.
	DropEffect meta.DropEffect
	// Restriction limits the effects the environment supports. Empty means
	// unrestricted.
	Restriction meta.DropEffect

	data  map[string]string
	types []string
}

// NewDataTransfer returns an empty transfer without restrictions.
func NewDataTransfer() *DataTransfer {
	return &DataTransfer{
		DropEffect: meta.EffectNone,
		data:       make(map[string]string),
	}
}

// SetData stores value under mimeType.
func (dt *DataTransfer) SetData(mimeType, value string) {
	if dt.data == nil {
		dt.data = make(map[string]string)
	}
	if _, ok := dt.data[mimeType]; !ok {
		dt.types = append(dt.types, mimeType)
	}
	dt.data[mimeType] = value
}

// GetData returns the value stored under mimeType, or "".
func (dt *DataTransfer) GetData(mimeType string) string {
	return dt.data[mimeType]
}

// Types lists the stored MIME types in the order they were first set.
func (dt *DataTransfer) Types() []string {
	return append([]string(nil), dt.types...)
}

// HasType reports whether a value is stored under mimeType.
func (dt *DataTransfer) HasType(mimeType string) bool {
	_, ok := dt.data[mimeType]
	return ok
}

// Payload is a dragged node as decoded from a DataTransfer.
type Payload struct {
	TreeID string
	Data   *meta.Model
}

// childrenKey is the JSON name of meta.Model.Children.
const childrenKey = "childMetaModels"

// wirePayload is the encoded form of a Payload. Each model is a flat object
// whose children are nested objects under childrenKey, so the encoder never
// walks the recursive Children field itself.
type wirePayload struct {
	TreeID string         `json:"treeId"`
	Data   map[string]any `json:"data"`
}

// EncodePayload serializes m as dragged from tree treeID. The snapshot is
// not focusable and carries no callbacks.
func EncodePayload(treeID string, m *meta.Model) (string, error) {
	snapshot := m.Clone()
	DepthFirst([]*meta.Model{snapshot}, func(n *meta.Model) bool {
		n.Focusable = false
		return true
	})
	stripFuncs(snapshot)

	data, err := encodeModel(snapshot)
	if err != nil {
		return "", fmt.Errorf("encoding drag payload for %q: %w", m.ID(), err)
	}
	b, err := json.Marshal(wirePayload{TreeID: treeID, Data: data})
	if err != nil {
		return "", fmt.Errorf("encoding drag payload for %q: %w", m.ID(), err)
	}
	return string(b), nil
}

// encodeModel turns m into a JSON object, one level at a time.
func encodeModel(m *meta.Model) (map[string]any, error) {
	flat := *m
	flat.Children = nil
	b, err := json.Marshal(&flat)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	kids := make([]any, 0, len(m.Children))
	for _, c := range m.Children {
		kid, err := encodeModel(c)
		if err != nil {
			return nil, err
		}
		kids = append(kids, kid)
	}
	out[childrenKey] = kids
	return out, nil
}

// decodeModel is the inverse of encodeModel.
func decodeModel(obj map[string]any) (*meta.Model, error) {
	kids, _ := obj[childrenKey].([]any)
	flat := make(map[string]any, len(obj))
	for k, v := range obj {
		if k != childrenKey {
			flat[k] = v
		}
	}
	b, err := json.Marshal(flat)
	if err != nil {
		return nil, err
	}
	var m meta.Model
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for i, k := range kids {
		kobj, ok := k.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("child %d of %q is not an object", i, m.ID())
		}
		child, err := decodeModel(kobj)
		if err != nil {
			return nil, err
		}
		m.Children = append(m.Children, child)
	}
	return &m, nil
}

// stripFuncs replaces the snapshot's raw data with a copy that has no func
// values and points every child model at its copied raw child.
func stripFuncs(m *meta.Model) {
	m.Data = objutil.WithoutFuncs(m.Data)
	relinkData(m)
}

func relinkData(m *meta.Model) {
	raws, _ := m.RawChildren()
	for i, child := range m.Children {
		if i < len(raws) {
			child.Data = raws[i]
		}
		relinkData(child)
	}
}

// DecodePayload parses a payload produced by EncodePayload and relinks the
// decoded meta model to its raw data.
func DecodePayload(s string) (*Payload, error) {
	var w wirePayload
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return nil, fmt.Errorf("decoding drag payload: %w", err)
	}
	if w.Data == nil {
		return nil, fmt.Errorf("decoding drag payload: missing node data")
	}
	data, err := decodeModel(w.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding drag payload: %w", err)
	}
	meta.Rehydrate(data)
	return &Payload{TreeID: w.TreeID, Data: data}, nil
}
