package qs

import (
	"sort"
	"strings"
)

// ArrayFormat selects how array entries are written by Stringify.
type ArrayFormat string

const (
	// ArrayIndices writes a[0]=x&a[1]=y.
	ArrayIndices ArrayFormat = "indices"
	// ArrayBrackets writes a[]=x&a[]=y.
	ArrayBrackets ArrayFormat = "brackets"
	// ArrayRepeat writes a=x&a=y.
	ArrayRepeat ArrayFormat = "repeat"
	// ArrayComma writes a=x,y.
	ArrayComma ArrayFormat = "comma"
)

func (f ArrayFormat) valid() bool {
	switch f {
	case ArrayIndices, ArrayBrackets, ArrayRepeat, ArrayComma:
		return true
	}
	return false
}

func (f ArrayFormat) prefix(prefix, key string) string {
	switch f {
	case ArrayBrackets:
		return prefix + "[]"
	case ArrayIndices:
		return prefix + "[" + key + "]"
	default:
		return prefix
	}
}

// StringifyOptions is a normalized stringify configuration.
type StringifyOptions struct {
	// AddQueryPrefix starts a non-empty result with '?'.
	AddQueryPrefix bool
	// AllowDots writes nested object keys as a.b instead of a[b].
	AllowDots bool
	// AllowEmptyArrays writes an empty array as a[].
	AllowEmptyArrays bool
	ArrayFormat      ArrayFormat
	Charset          Charset
	// CharsetSentinel starts the result with a utf8=✓ parameter naming Charset.
	CharsetSentinel bool
	// CommaRoundTrip writes one-element arrays as a[]=x under ArrayComma so
	// they parse back as arrays.
	CommaRoundTrip bool
	Delimiter      string
	// Encode disables percent-encoding entirely when false.
	Encode bool
	// EncodeDotInKeys writes '.' inside keys as %2E.
	EncodeDotInKeys bool
	// EncodeValuesOnly leaves keys unencoded.
	EncodeValuesOnly bool
	Encoder          Encoder
	Format           Format
	// SkipNulls omits null values.
	SkipNulls bool
	// Sort orders the keys of every object; nil keeps insertion order.
	Sort func(a, b string) bool
	// StrictNullHandling writes null values as a bare key without '='.
	StrictNullHandling bool
}

// DefaultStringifyOptions is used by Stringify for every option the caller
// leaves unset.
var DefaultStringifyOptions = StringifyOptions{
	ArrayFormat: ArrayIndices,
	Charset:     UTF8,
	Delimiter:   "&",
	Encode:      true,
	Encoder:     DefaultEncoder,
	Format:      RFC3986,
}

// The With functions below set stringify-only options. WithAllowDots,
// WithAllowEmptyArrays, WithCharset, WithCharsetSentinel, WithDelimiter and
// WithStrictNullHandling apply to Stringify as well.

func WithAddQueryPrefix(v bool) Option { return set("addQueryPrefix", v) }
func WithArrayFormat(f ArrayFormat) Option { return set("arrayFormat", f) }
func WithCommaRoundTrip(v bool) Option { return set("commaRoundTrip", v) }
func WithEncode(v bool) Option { return set("encode", v) }
func WithEncodeDotInKeys(v bool) Option { return set("encodeDotInKeys", v) }
func WithEncodeValuesOnly(v bool) Option { return set("encodeValuesOnly", v) }
func WithEncoder(e Encoder) Option { return set("encoder", e) }
func WithFormat(f Format) Option { return set("format", f) }
func WithSkipNulls(v bool) Option { return set("skipNulls", v) }
func WithSort(less func(a, b string) bool) Option { return set("sort", less) }

// NormalizeStringifyOptions validates raw and fills every missing entry from
// DefaultStringifyOptions. arrayFormat, charset and format must name a
// known value and encoder must be an Encoder; booleans of the wrong type fall
// back to their defaults. When encodeDotInKeys is true and allowDots is
// absent, allowDots is enabled.
func NormalizeStringifyOptions(raw RawOptions) (StringifyOptions, error) {
	opts := DefaultStringifyOptions
	lookup := make(map[string]any, len(raw))
	for k, v := range raw {
		lookup[strings.ToLower(k)] = v
	}
	get := func(name string) (any, bool) {
		v, ok := lookup[strings.ToLower(name)]
		return v, ok
	}
	boolOr := func(name string, def bool) bool {
		if v, ok := get(name); ok {
			if b, isBool := v.(bool); isBool {
				return b
			}
		}
		return def
	}

	if v, ok := get("encoder"); ok && v != nil {
		switch e := v.(type) {
		case Encoder:
			if e != nil {
				opts.Encoder = e
			}
		case func(string, Encoder, Charset, Role, Format) string:
			if e != nil {
				opts.Encoder = e
			}
		default:
			return StringifyOptions{}, invalidOption("encoder", v, "has to be a function")
		}
	}
	if v, ok := get("charset"); ok {
		c, err := charsetOption(v)
		if err != nil {
			return StringifyOptions{}, err
		}
		opts.Charset = c
	}
	if v, ok := get("arrayFormat"); ok {
		var f ArrayFormat
		switch s := v.(type) {
		case ArrayFormat:
			f = s
		case string:
			f = ArrayFormat(s)
		}
		if !f.valid() {
			return StringifyOptions{}, invalidOption("arrayFormat", v, "must be one of indices, brackets, repeat or comma")
		}
		opts.ArrayFormat = f
	}
	if v, ok := get("format"); ok {
		var f Format
		switch s := v.(type) {
		case Format:
			f = s
		case string:
			f = Format(strings.ToUpper(s))
		}
		if !f.valid() {
			return StringifyOptions{}, invalidOption("format", v, "must be either RFC1738 or RFC3986")
		}
		opts.Format = f
	}
	if v, ok := get("sort"); ok && v != nil {
		less, isFunc := v.(func(a, b string) bool)
		if !isFunc {
			return StringifyOptions{}, invalidOption("sort", v, "has to be a function")
		}
		opts.Sort = less
	}
	if v, ok := get("delimiter"); ok {
		switch d := v.(type) {
		case string:
			opts.Delimiter = d
		case StringDelimiter:
			opts.Delimiter = string(d)
		}
	}

	opts.EncodeDotInKeys = boolOr("encodeDotInKeys", opts.EncodeDotInKeys)
	if _, ok := get("allowDots"); ok {
		opts.AllowDots = boolOr("allowDots", opts.AllowDots)
	} else if opts.EncodeDotInKeys {
		opts.AllowDots = true
	}
	opts.AddQueryPrefix = boolOr("addQueryPrefix", opts.AddQueryPrefix)
	opts.AllowEmptyArrays = boolOr("allowEmptyArrays", opts.AllowEmptyArrays)
	opts.CharsetSentinel = boolOr("charsetSentinel", opts.CharsetSentinel)
	opts.CommaRoundTrip = boolOr("commaRoundTrip", opts.CommaRoundTrip)
	opts.Encode = boolOr("encode", opts.Encode)
	opts.EncodeValuesOnly = boolOr("encodeValuesOnly", opts.EncodeValuesOnly)
	opts.SkipNulls = boolOr("skipNulls", opts.SkipNulls)
	opts.StrictNullHandling = boolOr("strictNullHandling", opts.StrictNullHandling)

	if err := opts.validate(); err != nil {
		return StringifyOptions{}, err
	}
	return opts, nil
}

func (o *StringifyOptions) validate() error {
	if !o.Charset.valid() {
		return invalidOption("charset", o.Charset, "must be either utf-8 or iso-8859-1")
	}
	if !o.ArrayFormat.valid() {
		return invalidOption("arrayFormat", o.ArrayFormat, "must be one of indices, brackets, repeat or comma")
	}
	if !o.Format.valid() {
		return invalidOption("format", o.Format, "must be either RFC1738 or RFC3986")
	}
	if o.Encoder == nil {
		o.Encoder = DefaultEncoder
	}
	return nil
}

// Stringify writes root as a query string. Only objects and arrays produce
// output; holes are skipped and nulls are written as key= (or a bare key
// with strict null handling).
//
// A tree t produced by Parse with default options satisfies
// Parse(Stringify(t)) == t, unless it holds boolean flags from a scalar
// merged into an object or keys that contain brackets themselves.
func Stringify(root *Node, opts ...Option) (string, error) {
	raw := make(RawOptions, len(opts))
	for _, opt := range opts {
		opt(raw)
	}
	o, err := NormalizeStringifyOptions(raw)
	if err != nil {
		return "", err
	}
	return stringify(root, &o), nil
}

// StringifyWithOptions is like Stringify but takes a complete
// StringifyOptions value.
func StringifyWithOptions(root *Node, opts StringifyOptions) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	return stringify(root, &opts), nil
}

type stringifier struct {
	o       *StringifyOptions
	encoder Encoder
	parts   []string
}

func stringify(root *Node, o *StringifyOptions) string {
	if !root.isContainer() {
		return ""
	}
	s := &stringifier{o: o}
	if o.Encode {
		s.encoder = o.Encoder
	}
	for _, key := range o.sortedKeys(root) {
		value := root.child(key)
		if o.SkipNulls && value.IsNull() {
			continue
		}
		s.walk(value, key, s.encoder)
	}

	joined := strings.Join(s.parts, o.Delimiter)
	if joined == "" {
		return ""
	}
	var prefix string
	if o.AddQueryPrefix {
		prefix = "?"
	}
	if o.CharsetSentinel {
		if o.Charset == ISO8859_1 {
			prefix += isoSentinel + "&"
		} else {
			prefix += utf8Sentinel + "&"
		}
	}
	return prefix + joined
}

func (s *stringifier) walk(n *Node, prefix string, encoder Encoder) {
	o := s.o
	switch n.Kind() {
	case Undefined:
		return
	case Null:
		if o.StrictNullHandling {
			if encoder != nil && !o.EncodeValuesOnly {
				prefix = encoder(prefix, DefaultEncoder, o.Charset, RoleKey, o.Format)
			}
			s.parts = append(s.parts, prefix)
			return
		}
		s.scalar(prefix, "", encoder)
		return
	case String, Bool:
		s.scalar(prefix, n.Text(), encoder)
		return
	}

	isArray := n.Kind() == Array
	if isArray && o.ArrayFormat == ArrayComma {
		s.commaList(n, prefix, encoder)
		return
	}

	encodedPrefix := prefix
	if o.EncodeDotInKeys {
		encodedPrefix = strings.ReplaceAll(prefix, ".", "%2E")
	}
	if isArray && o.AllowEmptyArrays && len(n.items) == 0 {
		s.parts = append(s.parts, encodedPrefix+"[]")
		return
	}

	for _, key := range o.sortedKeys(n) {
		value := n.child(key)
		if o.SkipNulls && value.IsNull() {
			continue
		}
		encodedKey := key
		if o.AllowDots && o.EncodeDotInKeys {
			encodedKey = strings.ReplaceAll(key, ".", "%2E")
		}
		var keyPrefix string
		switch {
		case isArray:
			keyPrefix = o.ArrayFormat.prefix(encodedPrefix, encodedKey)
		case o.AllowDots:
			keyPrefix = encodedPrefix + "." + encodedKey
		default:
			keyPrefix = encodedPrefix + "[" + encodedKey + "]"
		}
		s.walk(value, keyPrefix, encoder)
	}
}

// commaList writes an array as a single comma-joined value. With
// EncodeValuesOnly every entry is encoded before joining so the commas stay
// literal.
func (s *stringifier) commaList(n *Node, prefix string, encoder Encoder) {
	o := s.o
	if len(n.items) == 0 {
		return
	}
	if o.EncodeDotInKeys {
		prefix = strings.ReplaceAll(prefix, ".", "%2E")
	}
	if o.CommaRoundTrip && len(n.items) == 1 {
		prefix += "[]"
	}

	texts := make([]string, len(n.items))
	for i, item := range n.items {
		texts[i] = item.Text()
		if encoder != nil && o.EncodeValuesOnly {
			texts[i] = encoder(texts[i], DefaultEncoder, o.Charset, RoleValue, o.Format)
		}
	}
	joined := strings.Join(texts, ",")
	if o.EncodeValuesOnly {
		encoder = nil
	}
	if joined == "" {
		s.walk(NewNull(), prefix, encoder)
		return
	}
	s.walk(NewString(joined), prefix, encoder)
}

func (s *stringifier) scalar(prefix, value string, encoder Encoder) {
	o := s.o
	key := prefix
	if encoder != nil {
		if !o.EncodeValuesOnly {
			key = encoder(prefix, DefaultEncoder, o.Charset, RoleKey, o.Format)
		}
		value = encoder(value, DefaultEncoder, o.Charset, RoleValue, o.Format)
	}
	s.parts = append(s.parts, o.Format.apply(key)+"="+o.Format.apply(value))
}

func (o *StringifyOptions) sortedKeys(n *Node) []string {
	var keys []string
	n.each(func(key string, _ *Node) { keys = append(keys, key) })
	if o.Sort != nil {
		sort.SliceStable(keys, func(i, j int) bool { return o.Sort(keys[i], keys[j]) })
	}
	return keys
}

// child returns the entry stored under key, reading array indices from
// their decimal form.
func (n *Node) child(key string) *Node {
	if n.Kind() == Array {
		i, ok := arrayIndex(key, len(n.items)-1)
		if !ok {
			return nil
		}
		return n.items[i]
	}
	v, _ := n.Get(key)
	return v
}
