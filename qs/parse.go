// Package qs converts between URL query strings and nested trees using the
// bracket syntax understood by most web frameworks:
//
//	a[b][c]=d        {"a": {"b": {"c": "d"}}}
//	a[]=b&a[]=c      {"a": ["b", "c"]}
//	a[1]=c&a[0]=b    {"a": ["b", "c"]}
//	a.b=c            {"a": {"b": "c"}} with dot notation enabled
//
// Parsing is bounded by a parameter limit, a nesting depth and an array
// index limit, so hostile input cannot force unbounded work.
package qs

// Parse parses a query string. Options not given take their values from
// DefaultOptions.
//
// The result is always an object. The only errors are ErrInvalidOption for
// a bad option and ErrDepthExceeded when WithStrictDepth is set and a key
// nests too deep; malformed input otherwise yields a best-effort tree.
func Parse(query string, opts ...Option) (*Node, error) {
	raw := make(RawOptions, len(opts))
	for _, opt := range opts {
		opt(raw)
	}
	o, err := NormalizeOptions(raw)
	if err != nil {
		return nil, err
	}
	return parse(query, &o)
}

// ParseWithOptions is like Parse but takes a complete Options value, for
// example one returned by NormalizeOptions.
func ParseWithOptions(query string, opts Options) (*Node, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return parse(query, &opts)
}

func parse(query string, o *Options) (*Node, error) {
	result := NewObject()
	if query == "" {
		return result, nil
	}

	pairs, _ := parseValues(query, o)

	tree := result
	for _, key := range pairs.keys {
		segments, ok, err := splitKey(key, o)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		tree = merge(tree, buildFragment(segments, pairs.props[key], o), o)
	}

	if o.AllowSparse {
		return tree, nil
	}
	return Compact(tree), nil
}
