package qs

import (
	"regexp"
	"strings"
)

// Delimiter splits raw query text into key=value parts. Split returns at
// most limit parts; further parts are dropped, not joined onto the last
// one. A negative limit means no cap.
type Delimiter interface {
	Split(s string, limit int) []string
}

// StringDelimiter splits on a literal separator such as "&" or ";".
type StringDelimiter string

func (d StringDelimiter) Split(s string, limit int) []string {
	sep := string(d)
	if sep == "" {
		sep = "&"
	}
	var parts []string
	for limit < 0 || len(parts) < limit {
		i := strings.Index(s, sep)
		if i < 0 {
			parts = append(parts, s)
			break
		}
		parts = append(parts, s[:i])
		s = s[i+len(sep):]
	}
	return parts
}

// PatternDelimiter splits on every match of a regular expression, for
// example `[;,] *`.
type PatternDelimiter struct {
	re *regexp.Regexp
}

// NewPatternDelimiter wraps re as a Delimiter.
func NewPatternDelimiter(re *regexp.Regexp) PatternDelimiter {
	return PatternDelimiter{re: re}
}

func (d PatternDelimiter) Split(s string, limit int) []string {
	if d.re == nil {
		return StringDelimiter("&").Split(s, limit)
	}
	var parts []string
	start := 0
	for _, m := range d.re.FindAllStringIndex(s, -1) {
		if limit >= 0 && len(parts) >= limit {
			return parts
		}
		if m[1] == m[0] {
			continue
		}
		parts = append(parts, s[start:m[0]])
		start = m[1]
	}
	if limit < 0 || len(parts) < limit {
		parts = append(parts, s[start:])
	}
	return parts
}

func (d PatternDelimiter) String() string {
	if d.re == nil {
		return ""
	}
	return d.re.String()
}

// AnyOf splits on any of the given runes, like PHP's arg_separator.input
// with "&;".
func AnyOf(seps ...rune) Delimiter {
	set := make(map[rune]struct{}, len(seps))
	for _, r := range seps {
		set[r] = struct{}{}
	}
	return runeSet(set)
}

type runeSet map[rune]struct{}

func (d runeSet) Split(s string, limit int) []string {
	if len(d) == 0 {
		return StringDelimiter("&").Split(s, limit)
	}
	var parts []string
	start := 0
	for i, r := range s {
		if limit >= 0 && len(parts) >= limit {
			return parts
		}
		if _, isSep := d[r]; isSep {
			parts = append(parts, s[start:i])
			start = i + len(string(r))
		}
	}
	if limit < 0 || len(parts) < limit {
		parts = append(parts, s[start:])
	}
	return parts
}
