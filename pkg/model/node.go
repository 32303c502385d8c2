package model

import (
	"fmt"
	"reflect"
)

// Default property names used to read a raw node when a meta model does not
// remap them.
const (
	DefaultIDProperty       = "id"
	DefaultLabelProperty    = "label"
	DefaultChildrenProperty = "children"
)

// Node is a caller-owned raw tree entry. Its shape is arbitrary; the id,
// label and children properties are resolved through the owning meta model.
//
// A Node is a map, so copies of a Node value alias the same entry. Identity
// between two Node values is map identity (see Same).
type Node map[string]any

// Same reports whether a and b refer to the same underlying map.
// Two nil nodes are the same; a nil and a non-nil node are not.
func Same(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

// Key returns an identity key for n that can be used in Go maps.
func Key(n Node) uintptr {
	if n == nil {
		return 0
	}
	return reflect.ValueOf(n).Pointer()
}

// String reads prop from n as a string. Numbers and other scalars are
// formatted; missing or nil values yield "".
func (n Node) String(prop string) string {
	if n == nil {
		return ""
	}
	v, ok := n[prop]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// ID returns the id of n using prop, or the default id property when prop is empty.
func (n Node) ID(prop string) string {
	if prop == "" {
		prop = DefaultIDProperty
	}
	return n.String(prop)
}

// Label returns the label of n using prop, or the default label property when prop is empty.
func (n Node) Label(prop string) string {
	if prop == "" {
		prop = DefaultLabelProperty
	}
	return n.String(prop)
}

// Children returns the children slice stored under prop. The second return
// value is false when the property is absent or is not a list.
//
// Lists decoded from JSON or YAML ([]any of maps) are converted to []Node and
// written back under prop so later reads and writes share one slice type. The
// element maps are not copied, so node identity survives the conversion.
func (n Node) Children(prop string) ([]Node, bool) {
	if n == nil {
		return nil, false
	}
	if prop == "" {
		prop = DefaultChildrenProperty
	}
	switch c := n[prop].(type) {
	case []Node:
		return c, true
	case []map[string]any:
		out := make([]Node, len(c))
		for i, m := range c {
			out[i] = Node(m)
		}
		n[prop] = out
		return out, true
	case []any:
		out := make([]Node, 0, len(c))
		for _, v := range c {
			if child, ok := AsNode(v); ok {
				out = append(out, child)
			}
		}
		n[prop] = out
		return out, true
	default:
		return nil, false
	}
}

// SetChildren stores children under prop.
func (n Node) SetChildren(prop string, children []Node) {
	if n == nil {
		return
	}
	if prop == "" {
		prop = DefaultChildrenProperty
	}
	n[prop] = children
}

// AsNode converts v to a Node when it is map-shaped.
func AsNode(v any) (Node, bool) {
	switch m := v.(type) {
	case Node:
		return m, m != nil
	case map[string]any:
		return Node(m), m != nil
	default:
		return nil, false
	}
}

// FromValue converts a decoded JSON or YAML document into a root node list.
// A single object becomes a one-element list. Non-object entries are skipped.
func FromValue(v any) ([]Node, error) {
	switch d := v.(type) {
	case nil:
		return nil, nil
	case []Node:
		return d, nil
	case []any:
		out := make([]Node, 0, len(d))
		for _, item := range d {
			if n, ok := AsNode(item); ok {
				out = append(out, n)
			}
		}
		return out, nil
	default:
		if n, ok := AsNode(v); ok {
			return []Node{n}, nil
		}
		return nil, fmt.Errorf("tree data must be a list of objects, got %T", v)
	}
}
