package loader

import (
	"log"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/treeview/pkg/meta"
	"github.com/vanderheijden86/treeview/pkg/model"
)

// SpecProperty is the raw node key that holds per-node settings in data
// files, using the camelCase field names of meta.Overrides.
const SpecProperty = "treeNodeSpec"

// SpecDefaults returns a defaults function that applies base to every node
// and then the settings a node carries under SpecProperty.
func SpecDefaults(base *meta.Overrides) meta.DefaultsFunc {
	return func(n model.Node) *meta.Overrides {
		spec := NodeSpec(n)
		if spec == nil {
			return base
		}
		return meta.Merge(base, spec)
	}
}

// NodeSpec decodes the settings stored on n, or returns nil when there are
// none or they cannot be decoded.
func NodeSpec(n model.Node) *meta.Overrides {
	raw, ok := model.AsNode(n[SpecProperty])
	if !ok {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		log.Printf("warning: node %q: cannot encode %s: %v", n.ID(""), SpecProperty, err)
		return nil
	}
	var o meta.Overrides
	if err := json.Unmarshal(data, &o); err != nil {
		log.Printf("warning: node %q: invalid %s: %v", n.ID(""), SpecProperty, err)
		return nil
	}
	return &o
}
