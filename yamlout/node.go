// Package yamlout holds the semantic tree the target builders produce and the
// styled YAML emitter that renders it. The tree is an explicit tagged union of
// scalar, ordered sequence, and insertion-ordered record, so the emitter never
// has to guess whether a value is list-like or map-like.
package yamlout

import "encoding/json"

// Kind tags the three node shapes.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindRecord
)

// Node is one value to be rendered. Construct nodes with Str/Int/Float/Num/
// Bool/Null/Seq/Rec; trees are single-use and must not be shared between
// serializations that mutate them (none do today).
type Node struct {
	kind   Kind
	scalar any // bool, nil, int64, float64, string, json.Number
	items  []*Node
	keys   []string
	fields map[string]*Node
}

// Kind reports the node's shape.
func (n *Node) Kind() Kind { return n.kind }

// Str builds a string scalar.
func Str(s string) *Node { return &Node{kind: KindScalar, scalar: s} }

// Int builds an integer scalar.
func Int(i int64) *Node { return &Node{kind: KindScalar, scalar: i} }

// Float builds a floating-point scalar.
func Float(f float64) *Node { return &Node{kind: KindScalar, scalar: f} }

// Num builds a scalar that renders exactly as the source document spelled the
// number, avoiding float round-tripping of values like 0.1.
func Num(n json.Number) *Node { return &Node{kind: KindScalar, scalar: n} }

// Bool builds a boolean scalar.
func Bool(b bool) *Node { return &Node{kind: KindScalar, scalar: b} }

// Null builds a null scalar.
func Null() *Node { return &Node{kind: KindScalar, scalar: nil} }

// Seq builds an ordered sequence.
func Seq(items ...*Node) *Node {
	return &Node{kind: KindSequence, items: items}
}

// Append adds an item to a sequence and returns the sequence.
func (n *Node) Append(items ...*Node) *Node {
	n.items = append(n.items, items...)
	return n
}

// Len returns the number of items or fields.
func (n *Node) Len() int {
	if n.kind == KindRecord {
		return len(n.keys)
	}
	return len(n.items)
}

// Rec builds an empty record. Field order is insertion order.
func Rec() *Node {
	return &Node{kind: KindRecord, fields: map[string]*Node{}}
}

// Set appends a field, preserving insertion order, and returns the record for
// chaining. Setting an existing key replaces the value in place.
func (n *Node) Set(key string, child *Node) *Node {
	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = child
	return n
}

// Get returns the field value, or nil when absent.
func (n *Node) Get(key string) *Node {
	if n.fields == nil {
		return nil
	}
	return n.fields[key]
}

// Keys returns the record's field names in insertion order.
func (n *Node) Keys() []string { return n.keys }

// Items returns a sequence's items in order.
func (n *Node) Items() []*Node { return n.items }

// Value returns a scalar's underlying value.
func (n *Node) Value() any { return n.scalar }
