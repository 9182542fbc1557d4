// Package tree implements the serialized hierarchical payload format
// shared by tracked items, delta payloads and whole-document exports.
// A node is a type-tagged bag of scalar properties plus an ordered list
// of child nodes; the version-control engine never interprets property
// names, it only moves these trees around.
package tree

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash"
)

// Prop is a single scalar property. Value is one of
// string, int64, float64 or bool.
type Prop struct {
	Key   string
	Value any
}

type Node struct {
	Tag      string
	props    []Prop
	children []*Node
}

func New(tag string) *Node {
	return &Node{Tag: tag}
}

// Has reports whether the node carries the given type tag.
func (n *Node) Has(tag string) bool {
	return n != nil && n.Tag == tag
}

// SetProperty sets or replaces a scalar property. Integer and float
// values of any width are normalized to int64/float64; anything else
// is stored via its fmt.Sprint form.
func (n *Node) SetProperty(key string, value any) *Node {
	norm := normalize(value)
	for i := range n.props {
		if n.props[i].Key == key {
			n.props[i].Value = norm
			return n
		}
	}
	n.props = append(n.props, Prop{Key: key, Value: norm})
	return n
}

func normalize(value any) any {
	switch v := value.(type) {
	case string, int64, float64, bool:
		return v
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint32:
		return int64(v)
	case float32:
		return float64(v)
	default:
		return fmt.Sprint(v)
	}
}

func (n *Node) property(key string) (any, bool) {
	for i := range n.props {
		if n.props[i].Key == key {
			return n.props[i].Value, true
		}
	}
	return nil, false
}

func (n *Node) StringProp(key, orDefault string) string {
	if v, ok := n.property(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return orDefault
}

func (n *Node) IntProp(key string, orDefault int64) int64 {
	if v, ok := n.property(key); ok {
		switch t := v.(type) {
		case int64:
			return t
		case float64:
			return int64(t)
		}
	}
	return orDefault
}

func (n *Node) FloatProp(key string, orDefault float64) float64 {
	if v, ok := n.property(key); ok {
		switch t := v.(type) {
		case float64:
			return t
		case int64:
			return float64(t)
		}
	}
	return orDefault
}

func (n *Node) BoolProp(key string, orDefault bool) bool {
	if v, ok := n.property(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return orDefault
}

// Props returns the properties in insertion order.
func (n *Node) Props() []Prop {
	return n.props
}

func (n *Node) AppendChild(child *Node) *Node {
	n.children = append(n.children, child)
	return n
}

func (n *Node) NumChildren() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

func (n *Node) Child(i int) *Node {
	return n.children[i]
}

func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

// ChildrenWithTag returns the children carrying the given type tag,
// keeping their relative order.
func (n *Node) ChildrenWithTag(tag string) (kids []*Node) {
	for _, c := range n.children {
		if c.Tag == tag {
			kids = append(kids, c)
		}
	}
	return
}

// Copy returns an independent deep copy; the caller may outlive the
// entity the original was produced from.
func (n *Node) Copy() *Node {
	if n == nil {
		return nil
	}
	dup := &Node{Tag: n.Tag}
	dup.props = append(dup.props, n.props...)
	for _, c := range n.children {
		dup.children = append(dup.children, c.Copy())
	}
	return dup
}

// Equal is a deep structural comparison: same tag, same property set
// (order-insensitive) and equal children in the same order.
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Tag != other.Tag ||
		len(n.props) != len(other.props) ||
		len(n.children) != len(other.children) {
		return false
	}
	for _, p := range n.props {
		v, ok := other.property(p.Key)
		if !ok || v != p.Value {
			return false
		}
	}
	for i := range n.children {
		if !n.children[i].Equal(other.children[i]) {
			return false
		}
	}
	return true
}

// Hash is an xxhash of the canonical binary encoding; equal nodes hash
// equal, so it serves as a cheap inequality probe before Equal.
func (n *Node) Hash() uint64 {
	return xxhash.Sum64(n.MarshalTLV())
}

func (n *Node) sortedProps() []Prop {
	sorted := append([]Prop(nil), n.props...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	return sorted
}
