// Package hl7 builds HL7 v2.5 MDM^T02 messages that carry a document as
// Base64 encapsulated data, and reads the acknowledgments that come back.
package hl7

import (
	"bytes"
	"encoding/base64"
	"strings"
	"time"

	"github.com/myeof/gomllp"
)

// MaxPayloadSize is the largest document Build accepts, in bytes.
const MaxPayloadSize = 10 * 1024 * 1024

const (
	Version      = "2.5"
	CharacterSet = "ASCII"

	timestampLayout = "20060102150405"
)

// Defaults applied by Build to empty Header fields.
const (
	DefaultSendingApplication   = "SendingApp"
	DefaultReceivingApplication = "ReceivingApp"
	DefaultProcessingID         = "P"
	DefaultDocumentType         = "CN"
)

// Header is the metadata of one message.
type Header struct {
	SendingApplication   string
	SendingFacility      string
	ReceivingApplication string
	ReceivingFacility    string
	Timestamp            time.Time
	ControlID            string

	// ProcessingID is MSH-11: P, D or T.
	ProcessingID string

	// DocumentType is TXA-2; DocumentNumber is TXA-12 and FileName TXA-16.
	DocumentType   string
	DocumentNumber string
	FileName       string

	// ContentType overrides MIME detection of the payload, e.g. "application/pdf".
	ContentType string
}

// Message is a built, framed MDM^T02 message.
type Message struct {
	framed     []byte
	controlID  string
	payloadLen int
}

// Bytes returns the framed wire form: SB, segments, EB CR.
func (m *Message) Bytes() []byte {
	return m.framed
}

// Segments returns the message without MLLP framing.
func (m *Message) Segments() []byte {
	return m.framed[1 : len(m.framed)-2]
}

func (m *Message) ControlID() string {
	return m.controlID
}

// PayloadLen is the size of the embedded document before encoding.
func (m *Message) PayloadLen() int {
	return m.payloadLen
}

// Build assembles MSH, TXA and OBX segments around payload. It has no side
// effects; any failure is a *BuildError.
func Build(payload []byte, h Header) (*Message, error) {
	if len(payload) > MaxPayloadSize {
		return nil, &BuildError{Kind: KindPayloadTooLarge, Size: int64(len(payload)), Limit: MaxPayloadSize}
	}
	h = withDefaults(h)
	if h.ControlID == "" {
		return nil, &BuildError{Kind: KindMissingField, Field: "MSH-10 control ID"}
	}
	if h.Timestamp.IsZero() {
		return nil, &BuildError{Kind: KindMissingField, Field: "MSH-7 timestamp"}
	}

	d := Standard
	f, err := h.fields(d)
	if err != nil {
		return nil, err
	}
	f.content = describeContent(payload, h.ContentType, d)

	encoded := base64.StdEncoding.EncodeToString(payload)
	if err := assertNoDelimiters(d, "OBX-5", encoded); err != nil {
		return nil, err
	}

	comp := string(d.Component)
	ts := h.Timestamp.Format(timestampLayout)

	var buf bytes.Buffer
	buf.Grow(len(encoded) + 512)
	writeSegment(&buf, d,
		"MSH", d.EncodingCharacters(),
		f.sendingApp, f.sendingFacility, f.receivingApp, f.receivingFacility,
		ts, "",
		strings.Join([]string{"MDM", "T02", "MDM_T02"}, comp),
		f.controlID, f.processingID, Version,
		"", "", "", "", "", CharacterSet,
	)
	writeSegment(&buf, d,
		"TXA", "1", f.documentType, "AP", ts,
		"", "", "", "", "", "", "",
		f.documentNumber, "", "", "",
		f.fileName, "DO", "", "AV",
	)
	writeSegment(&buf, d,
		"OBX", "1", "ED", f.content, "", encoded,
		"", "", "", "", "", "F",
	)

	return &Message{
		framed:     mllp.Wrap(buf.Bytes()),
		controlID:  h.ControlID,
		payloadLen: len(payload),
	}, nil
}

func withDefaults(h Header) Header {
	if h.SendingApplication == "" {
		h.SendingApplication = DefaultSendingApplication
	}
	if h.ReceivingApplication == "" {
		h.ReceivingApplication = DefaultReceivingApplication
	}
	if h.ProcessingID == "" {
		h.ProcessingID = DefaultProcessingID
	}
	if h.DocumentType == "" {
		h.DocumentType = DefaultDocumentType
	}
	return h
}

// headerFields are the validated, escaped field values of a Header.
type headerFields struct {
	sendingApp        string
	sendingFacility   string
	receivingApp      string
	receivingFacility string
	controlID         string
	processingID      string
	documentType      string
	documentNumber    string
	fileName          string
	content           string
}

func (h Header) fields(d Delimiters) (headerFields, error) {
	var f headerFields
	values := []struct {
		name string
		in   string
		out  *string
	}{
		{"MSH-3 sending application", h.SendingApplication, &f.sendingApp},
		{"MSH-4 sending facility", h.SendingFacility, &f.sendingFacility},
		{"MSH-5 receiving application", h.ReceivingApplication, &f.receivingApp},
		{"MSH-6 receiving facility", h.ReceivingFacility, &f.receivingFacility},
		{"MSH-10 control ID", h.ControlID, &f.controlID},
		{"MSH-11 processing ID", h.ProcessingID, &f.processingID},
		{"TXA-2 document type", h.DocumentType, &f.documentType},
		{"TXA-12 document number", h.DocumentNumber, &f.documentNumber},
		{"TXA-16 file name", h.FileName, &f.fileName},
		{"content type", h.ContentType, new(string)},
	}
	for _, v := range values {
		if err := checkASCII(v.name, v.in); err != nil {
			return f, err
		}
		*v.out = d.EscapeValue(v.in)
	}
	return f, nil
}

// checkASCII rejects bytes outside printable ASCII.
func checkASCII(field, s string) error {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 0x20 || c > 0x7E {
			return &BuildError{Kind: KindInvalidCharacterEncoding, Field: field, Offset: i, Byte: c}
		}
	}
	return nil
}

func assertNoDelimiters(d Delimiters, field, s string) error {
	for i := 0; i < len(s); i++ {
		if d.IsDelimiter(s[i]) {
			return &BuildError{Kind: KindDelimiterCollision, Field: field, Offset: i, Byte: s[i]}
		}
	}
	return nil
}

func writeSegment(buf *bytes.Buffer, d Delimiters, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(d.Field)
		}
		buf.WriteString(f)
	}
	buf.WriteByte(SegmentTerminator)
}
