package qs

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	dotNotation = regexp.MustCompile(`\.([^.\[]+)`)
	bracketPair = regexp.MustCompile(`\[[^\[\]]*\]`)
)

// protoKey is never used as a structural key.
const protoKey = "__proto__"

// inheritedNames are the member names of the base object type in the
// environments that produce this query syntax. Keys using them are dropped
// unless AllowPrototypes or PlainObjects is set.
var inheritedNames = map[string]struct{}{
	"__proto__":            {},
	"__defineGetter__":     {},
	"__defineSetter__":     {},
	"__lookupGetter__":     {},
	"__lookupSetter__":     {},
	"constructor":          {},
	"hasOwnProperty":       {},
	"isPrototypeOf":        {},
	"propertyIsEnumerable": {},
	"toLocaleString":       {},
	"toString":             {},
	"valueOf":              {},
}

func (o *Options) reserved(name string) bool {
	if o.PlainObjects || o.AllowPrototypes {
		return false
	}
	_, ok := inheritedNames[name]
	return ok
}

// splitKey turns a flat key into its path segments: the parent name
// followed by bracket groups such as "[b]" or "[]". It returns ok=false
// when the key must be dropped.
func splitKey(givenKey string, o *Options) (segments []string, ok bool, err error) {
	if givenKey == "" {
		return nil, false, nil
	}

	key := givenKey
	if o.AllowDots {
		key = dotNotation.ReplaceAllString(key, "[${1}]")
	}

	var groups [][]int
	if o.Depth > 0 {
		n := o.Depth + 1
		if n <= 0 {
			n = -1
		}
		groups = bracketPair.FindAllStringIndex(key, n)
	}

	parent := key
	if len(groups) > 0 {
		parent = key[:groups[0][0]]
	}
	if parent != "" {
		if o.reserved(parent) {
			return nil, false, nil
		}
		segments = append(segments, parent)
	}

	for i := 0; i < len(groups) && i < o.Depth; i++ {
		group := key[groups[i][0]:groups[i][1]]
		if o.reserved(group[1 : len(group)-1]) {
			return nil, false, nil
		}
		segments = append(segments, group)
	}

	if len(groups) > o.Depth {
		if o.StrictDepth {
			return nil, false, depthExceeded(o.Depth)
		}
		segments = append(segments, "["+key[groups[o.Depth][0]:]+"]")
	}

	return segments, true, nil
}

// buildFragment folds the segments right to left around val, producing the
// tree for a single key.
func buildFragment(segments []string, val *Node, o *Options) *Node {
	leaf := val
	for i := len(segments) - 1; i >= 0; i-- {
		root := segments[i]

		if root == "[]" && o.ParseArrays {
			if o.AllowEmptyArrays && (isEmptyString(leaf) || (o.StrictNullHandling && leaf.IsNull())) {
				leaf = NewArray()
			} else {
				leaf = concat(leaf)
			}
			continue
		}

		name := root
		if len(root) >= 2 && root[0] == '[' && root[len(root)-1] == ']' {
			name = root[1 : len(root)-1]
		}
		if o.DecodeDotInKeys {
			name = strings.ReplaceAll(name, "%2E", ".")
		}

		obj := NewObject()
		switch {
		case !o.ParseArrays && name == "":
			obj.Set("0", leaf)
		case o.ParseArrays && root != name:
			if index, isIndex := arrayIndex(name, o.ArrayLimit); isIndex {
				obj = NewArray()
				obj.SetIndex(index, leaf)
				break
			}
			if name != protoKey {
				obj.Set(name, leaf)
			}
		case name != protoKey:
			obj.Set(name, leaf)
		}
		leaf = obj
	}
	return leaf
}

// arrayIndex reports whether s is a canonical non-negative decimal integer
// no larger than limit.
func arrayIndex(s string, limit int) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > limit || strconv.Itoa(n) != s {
		return 0, false
	}
	return n, true
}

func isEmptyString(n *Node) bool { return n.Kind() == String && n.text == "" }

// concat builds a new array from leaf, spreading an array leaf one level.
func concat(leaf *Node) *Node {
	if leaf.Kind() == Array {
		return NewArray(leaf.items...)
	}
	return NewArray(leaf)
}
