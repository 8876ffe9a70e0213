package qs

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// Format selects how spaces are written by Stringify.
type Format string

const (
	// RFC3986 writes spaces as %20.
	RFC3986 Format = "RFC3986"
	// RFC1738 writes spaces as '+', as HTML forms do.
	RFC1738 Format = "RFC1738"
)

func (f Format) valid() bool { return f == RFC3986 || f == RFC1738 }

func (f Format) apply(s string) string {
	if f == RFC1738 {
		return strings.ReplaceAll(s, "%20", "+")
	}
	return s
}

// Encoder turns a key or value into its percent-encoded form. fallback is
// DefaultEncoder.
type Encoder func(text string, fallback Encoder, charset Charset, role Role, format Format) string

const upperhex = "0123456789ABCDEF"

// DefaultEncoder percent-encodes text. In utf-8 every byte outside the RFC
// 3986 unreserved set is escaped ('(' and ')' are kept for RFC1738). In
// iso-8859-1 characters below U+0100 are escaped as single bytes and all
// others are written as numeric entities (&#NNNN;), percent-encoded.
func DefaultEncoder(text string, _ Encoder, charset Charset, _ Role, format Format) string {
	if text == "" {
		return text
	}
	if charset == ISO8859_1 {
		return latin1Escape(text)
	}

	var sb strings.Builder
	sb.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if unreserved(c) || (format == RFC1738 && (c == '(' || c == ')')) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&15])
	}
	return sb.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '-' || c == '.' || c == '_' || c == '~'
}

func latin1Escape(text string) string {
	var sb strings.Builder
	for _, r := range text {
		if b, ok := charmap.ISO8859_1.EncodeRune(r); ok {
			if latin1Safe(b) {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('%')
				sb.WriteByte(upperhex[b>>4])
				sb.WriteByte(upperhex[b&15])
			}
			continue
		}
		for _, unit := range utf16.Encode([]rune{r}) {
			sb.WriteString("%26%23")
			sb.WriteString(strconv.Itoa(int(unit)))
			sb.WriteString("%3B")
		}
	}
	return sb.String()
}

// latin1Safe is the set left alone by the legacy escape() function.
func latin1Safe(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
		return true
	}
	return strings.IndexByte("@*_+-./", b) >= 0
}
