package qs

import (
	"regexp"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Charset names the character set percent-escapes are interpreted in.
type Charset string

const (
	// UTF8 is the default charset.
	UTF8 Charset = "utf-8"
	// ISO8859_1 reads each %XX escape as one Latin-1 character.
	ISO8859_1 Charset = "iso-8859-1"
)

func (c Charset) valid() bool { return c == UTF8 || c == ISO8859_1 }

// Role tells a Decoder or Encoder whether it is handling a key or a value.
type Role string

const (
	// RoleKey marks the text before '='.
	RoleKey Role = "key"
	// RoleValue marks the text after '='.
	RoleValue Role = "value"
)

// Decoder turns one encoded key or value into a scalar node. fallback is
// DefaultDecoder so custom decoders can delegate to it. Returning a null
// node for a value yields a null in the result; for a key it drops the pair.
type Decoder func(text string, fallback Decoder, charset Charset, role Role) *Node

// DefaultDecoder decodes application/x-www-form-urlencoded text: '+' is a
// space and %XX escapes are interpreted in charset. In utf-8 a malformed
// escape or a result that is not valid UTF-8 leaves the whole text as is.
func DefaultDecoder(text string, _ Decoder, charset Charset, _ Role) *Node {
	return NewString(decodeText(text, charset))
}

func decodeText(s string, charset Charset) string {
	s = strings.ReplaceAll(s, "+", " ")
	if strings.IndexByte(s, '%') < 0 {
		return s
	}
	if charset == ISO8859_1 {
		return latin1Unescape(s)
	}
	out, ok := percentDecode(s)
	if !ok || !utf8.ValidString(out) {
		return s
	}
	return out
}

// percentDecode decodes every %XX escape and reports false on the first
// malformed one.
func percentDecode(s string) (string, bool) {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			b = append(b, c)
			continue
		}
		if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			return s, false
		}
		b = append(b, unhex(s[i+1])<<4|unhex(s[i+2]))
		i += 2
	}
	return string(b), true
}

// latin1Unescape replaces each valid %XX escape with the iso-8859-1
// character for byte XX; invalid escapes are kept literally.
func latin1Unescape(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			sb.WriteRune(charmap.ISO8859_1.DecodeByte(unhex(s[i+1])<<4 | unhex(s[i+2])))
			i += 2
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

var numericEntity = regexp.MustCompile(`&#(\d+);`)

// interpretNumericEntities replaces decimal character references such as
// &#9786; with the character they name. References are UTF-16 code units,
// so adjacent surrogate halves combine into one character.
func interpretNumericEntities(s string) string {
	matches := numericEntity.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var sb strings.Builder
	var units []uint16
	last := 0
	flush := func() {
		if len(units) > 0 {
			sb.WriteString(string(utf16.Decode(units)))
			units = units[:0]
		}
	}
	for _, m := range matches {
		if m[0] != last {
			flush()
			sb.WriteString(s[last:m[0]])
		}
		var unit uint16
		for _, d := range s[m[2]:m[3]] {
			unit = unit*10 + uint16(d-'0')
		}
		units = append(units, unit)
		last = m[1]
	}
	flush()
	sb.WriteString(s[last:])
	return sb.String()
}
