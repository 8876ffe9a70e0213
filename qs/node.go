package qs

import (
	"fmt"
	"strconv"
)

// Kind identifies the variant held by a Node.
type Kind uint8

const (
	// Undefined marks a missing value, such as a hole in a sparse array.
	Undefined Kind = iota
	Null
	Bool
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Node is one value of a query tree: a scalar (string, null, bool), an
// array whose entries may be holes (nil), or an object with string keys
// kept in insertion order.
//
// Nodes returned by Parse are owned by the caller. The zero value and the
// nil pointer are both Undefined.
type Node struct {
	kind  Kind
	text  string
	flag  bool
	items []*Node
	keys  []string
	props map[string]*Node
}

// NewNull returns a null scalar.
func NewNull() *Node { return &Node{kind: Null} }

// NewBool returns a boolean scalar.
func NewBool(b bool) *Node { return &Node{kind: Bool, flag: b} }

// NewString returns a string scalar.
func NewString(s string) *Node { return &Node{kind: String, text: s} }

// NewArray returns an array holding items. Nil items are holes.
func NewArray(items ...*Node) *Node {
	out := &Node{kind: Array, items: make([]*Node, 0, len(items))}
	out.items = append(out.items, items...)
	return out
}

// NewObject returns an empty object.
func NewObject() *Node {
	return &Node{kind: Object, props: map[string]*Node{}}
}

// Kind reports the variant of n.
func (n *Node) Kind() Kind {
	if n == nil {
		return Undefined
	}
	return n.kind
}

// IsNull reports whether n is a null scalar.
func (n *Node) IsNull() bool { return n.Kind() == Null }

// Text returns the string form of a scalar: the string itself, "true" or
// "false" for booleans, and "" for everything else.
func (n *Node) Text() string {
	switch n.Kind() {
	case String:
		return n.text
	case Bool:
		if n.flag {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Bool returns the value of a boolean scalar.
func (n *Node) Bool() bool { return n.Kind() == Bool && n.flag }

// Len returns the number of slots of an array (holes included) or the
// number of keys of an object.
func (n *Node) Len() int {
	switch n.Kind() {
	case Array:
		return len(n.items)
	case Object:
		return len(n.keys)
	default:
		return 0
	}
}

// Index returns the array entry at i, or nil for a hole or an index out of range.
func (n *Node) Index(i int) *Node {
	if n.Kind() != Array || i < 0 || i >= len(n.items) {
		return nil
	}
	return n.items[i]
}

// Items returns a copy of the array entries.
func (n *Node) Items() []*Node {
	if n.Kind() != Array {
		return nil
	}
	out := make([]*Node, len(n.items))
	copy(out, n.items)
	return out
}

// Keys returns the object keys in insertion order.
func (n *Node) Keys() []string {
	if n.Kind() != Object {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Get returns the value stored under key in an object.
func (n *Node) Get(key string) (*Node, bool) {
	if n.Kind() != Object {
		return nil, false
	}
	v, ok := n.props[key]
	return v, ok
}

// Set stores v under key. A new key goes to the end of the key order, an
// existing key keeps its position.
func (n *Node) Set(key string, v *Node) {
	if n.Kind() != Object {
		panic("qs: Set called on " + n.Kind().String())
	}
	if _, ok := n.props[key]; !ok {
		n.keys = append(n.keys, key)
	}
	n.props[key] = v
}

// Append adds entries to the end of an array.
func (n *Node) Append(v ...*Node) {
	if n.Kind() != Array {
		panic("qs: Append called on " + n.Kind().String())
	}
	n.items = append(n.items, v...)
}

// SetIndex stores v at position i of an array, growing it with holes.
func (n *Node) SetIndex(i int, v *Node) {
	if n.Kind() != Array {
		panic("qs: SetIndex called on " + n.Kind().String())
	}
	if i < 0 {
		return
	}
	for len(n.items) <= i {
		n.items = append(n.items, nil)
	}
	n.items[i] = v
}

// Equal reports whether n and other hold the same tree. Object key order
// is not significant; holes only equal holes.
func (n *Node) Equal(other *Node) bool {
	if n.Kind() != other.Kind() {
		return false
	}
	switch n.Kind() {
	case Undefined, Null:
		return true
	case Bool:
		return n.flag == other.flag
	case String:
		return n.text == other.text
	case Array:
		if len(n.items) != len(other.items) {
			return false
		}
		for i := range n.items {
			if !n.items[i].Equal(other.items[i]) {
				return false
			}
		}
		return true
	case Object:
		if len(n.keys) != len(other.keys) {
			return false
		}
		for _, k := range n.keys {
			ov, ok := other.props[k]
			if !ok || !n.props[k].Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

func (n *Node) isContainer() bool {
	k := n.Kind()
	return k == Array || k == Object
}

// truthy follows the loose truthiness used by the merge rules: holes,
// nulls, false and the empty string are falsy.
func (n *Node) truthy() bool {
	switch n.Kind() {
	case Undefined, Null:
		return false
	case Bool:
		return n.flag
	case String:
		return n.text != ""
	default:
		return true
	}
}

// each visits the present entries of a container. Array indices are
// reported as decimal keys.
func (n *Node) each(fn func(key string, v *Node)) {
	switch n.Kind() {
	case Array:
		for i, v := range n.items {
			if v != nil {
				fn(strconv.Itoa(i), v)
			}
		}
	case Object:
		for _, k := range n.keys {
			fn(k, n.props[k])
		}
	}
}
