package qs

import "strings"

const (
	// utf8Sentinel is utf8=✓ percent-encoded as utf-8.
	utf8Sentinel = "utf8=%E2%9C%93"
	// isoSentinel is what browsers send for ✓ from an iso-8859-1 page: the
	// numeric entity &#10003; percent-encoded.
	isoSentinel = "utf8=%26%2310003%3B"
)

var bracketEscapes = strings.NewReplacer("%5B", "[", "%5b", "[", "%5D", "]", "%5d", "]")

// ExtractPairs splits query into its flat key/value pairs without building
// the nested tree. The result is an object keyed by the decoded key text in
// first-seen order; values are strings, nulls or arrays of them. The
// charset actually used (after the sentinel, if enabled) is returned too.
func ExtractPairs(query string, opts Options) (*Node, Charset, error) {
	if err := opts.validate(); err != nil {
		return nil, "", err
	}
	pairs, charset := parseValues(query, &opts)
	return pairs, charset, nil
}

func parseValues(query string, o *Options) (*Node, Charset) {
	pairs := NewObject()

	clean := query
	if o.IgnoreQueryPrefix {
		clean = strings.TrimPrefix(clean, "?")
	}
	clean = bracketEscapes.Replace(clean)

	limit := o.ParameterLimit
	if limit < 0 {
		limit = -1
	}
	parts := o.Delimiter.Split(clean, limit)

	charset := o.Charset
	skip := -1
	if o.CharsetSentinel {
	scan:
		for i, part := range parts {
			if !strings.HasPrefix(part, "utf8=") {
				continue
			}
			switch part {
			case utf8Sentinel:
				charset = UTF8
			case isoSentinel:
				charset = ISO8859_1
			}
			skip = i
			break scan
		}
	}

	for i, part := range parts {
		if i == skip {
			continue
		}

		key, val := splitPair(part, charset, o)

		if o.InterpretNumericEntities && charset == ISO8859_1 && val.truthy() {
			val = mapStrings(val, interpretNumericEntities)
		}

		// explicit a[]= with a comma list keeps the list as one element
		if strings.Contains(part, "[]=") && val.Kind() == Array {
			val = NewArray(val)
		}

		existing, ok := pairs.Get(key)
		switch {
		case ok && o.Duplicates == Combine:
			pairs.Set(key, combine(existing, val))
		case !ok || o.Duplicates == Last:
			pairs.Set(key, val)
		}
	}

	return pairs, charset
}

// splitPair cuts one part at the first "]=" (keeping the bracket in the
// key) or else at the first '=', and decodes both halves.
func splitPair(part string, charset Charset, o *Options) (string, *Node) {
	pos := strings.Index(part, "]=")
	if pos >= 0 {
		pos++
	} else {
		pos = strings.IndexByte(part, '=')
	}

	if pos < 0 {
		key := o.Decoder(part, DefaultDecoder, charset, RoleKey).Text()
		if o.StrictNullHandling {
			return key, NewNull()
		}
		return key, NewString("")
	}

	key := o.Decoder(part[:pos], DefaultDecoder, charset, RoleKey).Text()
	raw := part[pos+1:]
	if o.Comma && strings.IndexByte(raw, ',') >= 0 {
		pieces := strings.Split(raw, ",")
		val := NewArray()
		for _, p := range pieces {
			val.items = append(val.items, scalarOrNull(o.Decoder(p, DefaultDecoder, charset, RoleValue)))
		}
		return key, val
	}
	return key, scalarOrNull(o.Decoder(raw, DefaultDecoder, charset, RoleValue))
}

// scalarOrNull guards against a custom decoder returning nil.
func scalarOrNull(n *Node) *Node {
	if n == nil {
		return NewNull()
	}
	return n
}

// combine joins two values of a repeated key, flattening arrays by one
// level. An existing array is extended in place so that long runs of the
// same key stay linear.
func combine(existing, val *Node) *Node {
	out := existing
	if existing.Kind() != Array {
		out = NewArray(existing)
	}
	if val.Kind() == Array {
		out.items = append(out.items, val.items...)
	} else {
		out.items = append(out.items, val)
	}
	return out
}

// mapStrings applies fn to a string value or to each string of an array.
func mapStrings(n *Node, fn func(string) string) *Node {
	switch n.Kind() {
	case String:
		return NewString(fn(n.text))
	case Array:
		out := NewArray()
		for _, item := range n.items {
			out.items = append(out.items, mapStrings(item, fn))
		}
		return out
	default:
		return n
	}
}
