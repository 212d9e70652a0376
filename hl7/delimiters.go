package hl7

import "strings"

// SegmentTerminator ends every segment, the last one included.
const SegmentTerminator = '\r'

// Delimiters are the separator characters declared in MSH-1 and MSH-2.
type Delimiters struct {
	Field        byte
	Component    byte
	Repeat       byte
	Escape       byte
	Subcomponent byte
}

// Standard is the HL7 v2.5 recommended set: | ^ ~ \ &
var Standard = Delimiters{
	Field:        '|',
	Component:    '^',
	Repeat:       '~',
	Escape:       '\\',
	Subcomponent: '&',
}

// EncodingCharacters renders MSH-2.
func (d Delimiters) EncodingCharacters() string {
	return string([]byte{d.Component, d.Repeat, d.Escape, d.Subcomponent})
}

// IsDelimiter reports whether b is one of d or the segment terminator.
func (d Delimiters) IsDelimiter(b byte) bool {
	switch b {
	case d.Field, d.Component, d.Repeat, d.Escape, d.Subcomponent, SegmentTerminator:
		return true
	}
	return false
}

// EscapeValue replaces delimiter characters in a field value with HL7 escape
// sequences (\F\ \S\ \R\ \E\ \T\).
func (d Delimiters) EscapeValue(s string) string {
	if strings.IndexFunc(s, func(r rune) bool { return r < 0x80 && d.IsDelimiter(byte(r)) }) < 0 {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		var code byte
		switch s[i] {
		case d.Field:
			code = 'F'
		case d.Component:
			code = 'S'
		case d.Repeat:
			code = 'R'
		case d.Escape:
			code = 'E'
		case d.Subcomponent:
			code = 'T'
		default:
			sb.WriteByte(s[i])
			continue
		}
		sb.WriteByte(d.Escape)
		sb.WriteByte(code)
		sb.WriteByte(d.Escape)
	}
	return sb.String()
}
