package qs

import (
	"math"
	"regexp"
	"strings"

	"github.com/spf13/cast"
)

// Duplicates selects what happens when a key occurs more than once.
type Duplicates string

const (
	// Combine collects every value of a repeated key into an array.
	Combine Duplicates = "combine"
	// First keeps the first value and ignores the rest.
	First Duplicates = "first"
	// Last keeps the last value.
	Last Duplicates = "last"
)

func (d Duplicates) valid() bool { return d == Combine || d == First || d == Last }

// Unlimited disables the parameter limit.
const Unlimited = -1

// Options is a normalized parse configuration. Build one with
// NormalizeOptions or start from a copy of DefaultOptions; a zero Options
// reads no parameters at all.
type Options struct {
	// AllowDots enables dot notation: a.b=c is read as a[b]=c.
	AllowDots bool
	// AllowEmptyArrays turns a[] without a value into an empty array.
	AllowEmptyArrays bool
	// AllowPrototypes keeps keys named after inherited object members.
	AllowPrototypes bool
	// AllowSparse keeps holes in arrays instead of compacting them.
	AllowSparse bool
	// ArrayLimit is the highest index a[N] may use and still build an array.
	// Arrays are dense while they are built, so a single a[N] allocates N+1
	// slots; raising the limit raises the memory one key can claim.
	ArrayLimit int
	Charset    Charset
	// CharsetSentinel honours a utf8=✓ parameter that names the charset.
	CharsetSentinel bool
	// Comma splits values on ',' into arrays.
	Comma bool
	// DecodeDotInKeys turns %2E in key segments into '.'.
	DecodeDotInKeys bool
	Decoder         Decoder
	Delimiter       Delimiter
	// Depth is the number of bracket groups expanded per key. Zero keeps
	// every key verbatim.
	Depth      int
	Duplicates Duplicates
	// IgnoreQueryPrefix strips one leading '?'.
	IgnoreQueryPrefix bool
	// InterpretNumericEntities turns &#NNN; into characters when decoding iso-8859-1.
	InterpretNumericEntities bool
	// ParameterLimit caps the number of parts read; Unlimited disables it.
	ParameterLimit int
	// ParseArrays enables array building from [] and [N].
	ParseArrays bool
	// PlainObjects disables the inherited member name check.
	PlainObjects bool
	// StrictDepth makes nesting beyond Depth an error.
	StrictDepth bool
	// StrictNullHandling reads a key without '=' as null instead of "".
	StrictNullHandling bool
}

// DefaultOptions is used by Parse for every option the caller leaves unset.
var DefaultOptions = Options{
	AllowDots:                false,
	AllowEmptyArrays:         false,
	AllowPrototypes:          false,
	AllowSparse:              false,
	ArrayLimit:               20,
	Charset:                  UTF8,
	CharsetSentinel:          false,
	Comma:                    false,
	DecodeDotInKeys:          false,
	Decoder:                  DefaultDecoder,
	Delimiter:                StringDelimiter("&"),
	Depth:                    5,
	Duplicates:               Combine,
	IgnoreQueryPrefix:        false,
	InterpretNumericEntities: false,
	ParameterLimit:           1000,
	ParseArrays:              true,
	PlainObjects:             false,
	StrictDepth:              false,
	StrictNullHandling:       false,
}

// RawOptions is a sparse, loosely typed configuration record, as read from
// a config file or assembled from Option values. Keys use the camelCase
// option names (allowDots, arrayLimit, ...) and match case-insensitively.
type RawOptions map[string]any

// Option sets one entry of a RawOptions.
type Option func(RawOptions)

func set(name string, v any) Option {
	return func(r RawOptions) { r[name] = v }
}

// The With functions below set the option of the same name.

func WithAllowDots(v bool) Option { return set("allowDots", v) }
func WithAllowEmptyArrays(v bool) Option { return set("allowEmptyArrays", v) }
func WithAllowPrototypes(v bool) Option { return set("allowPrototypes", v) }
func WithAllowSparse(v bool) Option { return set("allowSparse", v) }
func WithArrayLimit(n int) Option { return set("arrayLimit", n) }
func WithCharset(c Charset) Option { return set("charset", c) }
func WithCharsetSentinel(v bool) Option { return set("charsetSentinel", v) }
func WithComma(v bool) Option { return set("comma", v) }
func WithDecodeDotInKeys(v bool) Option { return set("decodeDotInKeys", v) }
func WithDecoder(d Decoder) Option { return set("decoder", d) }
func WithDelimiter(d Delimiter) Option { return set("delimiter", d) }
func WithDepth(n int) Option { return set("depth", n) }
func WithDuplicates(d Duplicates) Option { return set("duplicates", d) }
func WithIgnoreQueryPrefix(v bool) Option { return set("ignoreQueryPrefix", v) }
func WithInterpretNumericEntities(v bool) Option { return set("interpretNumericEntities", v) }
func WithParameterLimit(n int) Option { return set("parameterLimit", n) }
func WithParseArrays(v bool) Option { return set("parseArrays", v) }
func WithPlainObjects(v bool) Option { return set("plainObjects", v) }
func WithStrictDepth(v bool) Option { return set("strictDepth", v) }
func WithStrictNullHandling(v bool) Option { return set("strictNullHandling", v) }

// NormalizeOptions validates raw and fills every missing entry from
// DefaultOptions. raw is not modified.
//
// allowEmptyArrays, decodeDotInKeys, allowSparse and strictDepth must be
// booleans when present; decoder must be a Decoder; charset and duplicates
// must name a known value. Other entries of the wrong type fall back to
// their defaults. depth accepts false as 0. When decodeDotInKeys is true and
// allowDots is absent, allowDots is enabled.
func NormalizeOptions(raw RawOptions) (Options, error) {
	opts := DefaultOptions
	if len(raw) == 0 {
		if err := opts.validate(); err != nil {
			return Options{}, err
		}
		return opts, nil
	}

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

	for _, name := range []string{"allowEmptyArrays", "decodeDotInKeys", "allowSparse", "strictDepth"} {
		if v, ok := get(name); ok {
			if _, isBool := v.(bool); !isBool {
				return Options{}, invalidOption(name, v, "can only be true or false, when provided")
			}
		}
	}

	if v, ok := get("decoder"); ok && v != nil {
		switch d := v.(type) {
		case Decoder:
			if d != nil {
				opts.Decoder = d
			}
		case func(string, Decoder, Charset, Role) *Node:
			if d != nil {
				opts.Decoder = d
			}
		default:
			return Options{}, invalidOption("decoder", v, "has to be a function")
		}
	}

	if v, ok := get("charset"); ok {
		c, err := charsetOption(v)
		if err != nil {
			return Options{}, err
		}
		opts.Charset = c
	}

	if v, ok := get("duplicates"); ok {
		var d Duplicates
		switch s := v.(type) {
		case Duplicates:
			d = s
		case string:
			d = Duplicates(s)
		}
		if !d.valid() {
			return Options{}, invalidOption("duplicates", v, "must be either combine, first, or last")
		}
		opts.Duplicates = d
	}

	opts.DecodeDotInKeys = boolOr("decodeDotInKeys", opts.DecodeDotInKeys)
	if v, ok := get("allowDots"); ok {
		if b, isBool := v.(bool); isBool {
			opts.AllowDots = b
		}
	} else if opts.DecodeDotInKeys {
		opts.AllowDots = true
	}

	opts.AllowEmptyArrays = boolOr("allowEmptyArrays", opts.AllowEmptyArrays)
	opts.AllowPrototypes = boolOr("allowPrototypes", opts.AllowPrototypes)
	opts.AllowSparse = boolOr("allowSparse", opts.AllowSparse)
	opts.CharsetSentinel = boolOr("charsetSentinel", opts.CharsetSentinel)
	opts.Comma = boolOr("comma", opts.Comma)
	opts.InterpretNumericEntities = boolOr("interpretNumericEntities", opts.InterpretNumericEntities)
	opts.PlainObjects = boolOr("plainObjects", opts.PlainObjects)
	opts.StrictDepth = boolOr("strictDepth", opts.StrictDepth)
	opts.StrictNullHandling = boolOr("strictNullHandling", opts.StrictNullHandling)

	if v, ok := get("ignoreQueryPrefix"); ok {
		opts.IgnoreQueryPrefix = v == true
	}
	if v, ok := get("parseArrays"); ok {
		opts.ParseArrays = v != false
	}

	if v, ok := get("arrayLimit"); ok {
		if n, isInt := intOption(v); isInt {
			opts.ArrayLimit = n
		}
	}

	if v, ok := get("depth"); ok {
		if v == false {
			opts.Depth = 0
		} else if n, isInt := intOption(v); isInt {
			opts.Depth = max(n, 0)
		}
	}

	if v, ok := get("parameterLimit"); ok {
		if n, isInt := limitOption(v); isInt {
			opts.ParameterLimit = n
		}
	}

	if v, ok := get("delimiter"); ok {
		switch d := v.(type) {
		case Delimiter:
			if d != nil {
				opts.Delimiter = d
			}
		case *regexp.Regexp:
			if d != nil {
				opts.Delimiter = NewPatternDelimiter(d)
			}
		case string:
			if d != "" {
				opts.Delimiter = StringDelimiter(d)
			}
		}
	}

	if err := opts.validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// validate checks the enumerated fields of an already built Options and
// fills in a missing decoder or delimiter.
func (o *Options) validate() error {
	if !o.Charset.valid() {
		return invalidOption("charset", o.Charset, "must be either utf-8 or iso-8859-1")
	}
	if !o.Duplicates.valid() {
		return invalidOption("duplicates", o.Duplicates, "must be either combine, first, or last")
	}
	if o.Depth < 0 {
		o.Depth = 0
	}
	if o.Decoder == nil {
		o.Decoder = DefaultDecoder
	}
	if o.Delimiter == nil {
		o.Delimiter = StringDelimiter("&")
	}
	return nil
}

func charsetOption(v any) (Charset, error) {
	var c Charset
	switch s := v.(type) {
	case Charset:
		c = s
	case string:
		c = Charset(s)
	}
	if !c.valid() {
		return "", invalidOption("charset", v, "must be either utf-8 or iso-8859-1")
	}
	return c, nil
}

// intOption accepts any numeric kind or numeric string but not booleans.
func intOption(v any) (int, bool) {
	if _, isBool := v.(bool); isBool || v == nil {
		return 0, false
	}
	if f, isFloat := v.(float64); isFloat && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return 0, false
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func limitOption(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsInf(t, 1) {
			return Unlimited, true
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "infinity", "inf", "unlimited":
			return Unlimited, true
		}
	}
	n, ok := intOption(v)
	if !ok {
		return 0, false
	}
	if n < 0 {
		n = Unlimited
	}
	return n, true
}
