package mllp

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMissingHeader = errors.New("mllp: message does not start with MSH")
	ErrShortHeader   = errors.New("mllp: MSH segment too short")
)

// Message is a received HL7 message, unframed and split into segments.
// Only the header is interpreted.
type Message struct {
	raw      []byte
	fieldSep byte
	encoding string
	segments [][]string
}

// ParseMessage reads the delimiters declared in MSH and splits every segment
// into fields. Fields are not unescaped.
func ParseMessage(b []byte) (*Message, error) {
	b = bytes.TrimLeft(b, "\r\n")
	if !bytes.HasPrefix(b, []byte("MSH")) {
		return nil, ErrMissingHeader
	}
	if len(b) < 8 {
		return nil, ErrShortHeader
	}
	msg := &Message{
		raw:      b,
		fieldSep: b[3],
		encoding: string(b[4:8]),
	}
	sep := string(msg.fieldSep)
	for _, seg := range bytes.Split(b, []byte{CarriageReturn}) {
		seg = bytes.TrimLeft(seg, "\n")
		if len(seg) == 0 {
			continue
		}
		msg.segments = append(msg.segments, strings.Split(string(seg), sep))
	}
	return msg, nil
}

func (m *Message) Bytes() []byte {
	return m.raw
}

func (m *Message) FieldSeparator() byte {
	return m.fieldSep
}

// EncodingCharacters returns MSH-2.
func (m *Message) EncodingCharacters() string {
	return m.encoding
}

// Segment returns the fields of the first segment with the given name,
// field 0 being the name itself.
func (m *Message) Segment(name string) []string {
	for _, seg := range m.segments {
		if seg[0] == name {
			return seg
		}
	}
	return nil
}

// SegmentNames lists segment names in order.
func (m *Message) SegmentNames() []string {
	names := make([]string, 0, len(m.segments))
	for _, seg := range m.segments {
		names = append(names, seg[0])
	}
	return names
}

// HeaderField returns MSH-n using HL7 numbering, where MSH-1 is the field
// separator itself.
func (m *Message) HeaderField(n int) string {
	if n == 1 {
		return string(m.fieldSep)
	}
	msh := m.segments[0]
	if n < 1 || n-1 >= len(msh) {
		return ""
	}
	return msh[n-1]
}

// Type returns the message code and trigger event of MSH-9, e.g. "MDM^T02".
func (m *Message) Type() string {
	comp := string(m.encoding[0])
	parts := strings.Split(m.HeaderField(9), comp)
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return strings.Join(parts, comp)
}

// ControlID returns MSH-10.
func (m *Message) ControlID() string {
	return m.HeaderField(10)
}

func (m *Message) String() string {
	return fmt.Sprintf("Type=%s ControlID=%s Segments=%d Len=%d",
		m.Type(), m.ControlID(), len(m.segments), len(m.raw))
}
