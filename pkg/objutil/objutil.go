// Package objutil holds the small structural helpers shared by normalization
// and drag-and-drop.
package objutil

import (
	"reflect"

	"github.com/vanderheijden86/treeview/pkg/model"
)

// IsObject reports whether v is a key-value structure (a raw node or a plain
// string-keyed map).
func IsObject(v any) bool {
	switch m := v.(type) {
	case model.Node:
		return m != nil
	case map[string]any:
		return m != nil
	default:
		return false
	}
}

// DeepCopy returns a cheap structural copy of v.
//
// Maps and slices of the shapes found in raw tree data are copied
// recursively. Everything else, including funcs, pointers and structs, is
// returned as is, so callbacks stored on a node keep their identity in the
// copy. It is not an exhaustive clone and is not meant to be one.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case model.Node:
		if t == nil {
			return t
		}
		return CopyNode(t)
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = DeepCopy(val)
		}
		return out
	case []model.Node:
		if t == nil {
			return t
		}
		out := make([]model.Node, len(t))
		for i, n := range t {
			out[i] = CopyNode(n)
		}
		return out
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = DeepCopy(val)
		}
		return out
	case []string:
		if t == nil {
			return t
		}
		return append([]string(nil), t...)
	default:
		return v
	}
}

// CopyNode deep-copies a raw node with DeepCopy semantics.
func CopyNode(n model.Node) model.Node {
	if n == nil {
		return nil
	}
	out := make(model.Node, len(n))
	for k, val := range n {
		out[k] = DeepCopy(val)
	}
	return out
}

// WithoutFuncs deep-copies n like CopyNode but leaves out every func value,
// at any depth, so the copy can be serialized.
func WithoutFuncs(n model.Node) model.Node {
	if n == nil {
		return nil
	}
	out := make(model.Node, len(n))
	for k, val := range n {
		if isFunc(val) {
			continue
		}
		out[k] = withoutFuncs(val)
	}
	return out
}

func withoutFuncs(v any) any {
	switch t := v.(type) {
	case model.Node:
		return WithoutFuncs(t)
	case map[string]any:
		if t == nil {
			return t
		}
		return map[string]any(WithoutFuncs(model.Node(t)))
	case []model.Node:
		if t == nil {
			return t
		}
		out := make([]model.Node, len(t))
		for i, n := range t {
			out[i] = WithoutFuncs(n)
		}
		return out
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, 0, len(t))
		for _, val := range t {
			if isFunc(val) {
				continue
			}
			out = append(out, withoutFuncs(val))
		}
		return out
	default:
		return DeepCopy(v)
	}
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}
