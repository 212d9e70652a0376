package hl7

import (
	"bytes"
	"strings"
	"time"

	"github.com/myeof/gomllp"
	"github.com/pkg/errors"
)

// AckCode is MSA-1.
type AckCode string

const (
	AckAccept       AckCode = "AA"
	AckError        AckCode = "AE"
	AckReject       AckCode = "AR"
	AckCommitAccept AckCode = "CA"
	AckCommitError  AckCode = "CE"
	AckCommitReject AckCode = "CR"
)

var ErrNoMSA = errors.New("hl7: acknowledgment has no MSA segment")

// Ack is the part of an acknowledgment a sender usually cares about.
type Ack struct {
	Code AckCode
	// ControlID is MSA-2, the control ID of the acknowledged message.
	ControlID string
	Text      string
	// MessageControlID is MSH-10 of the acknowledgment itself.
	MessageControlID string
}

func (a *Ack) Accepted() bool {
	return a.Code == AckAccept || a.Code == AckCommitAccept
}

// ParseACK reads an acknowledgment, framed or not.
func ParseACK(resp []byte) (*Ack, error) {
	msg, err := mllp.ParseMessage(mllp.Unwrap(resp))
	if err != nil {
		return nil, errors.Wrap(err, "parse acknowledgment")
	}
	msa := msg.Segment("MSA")
	if msa == nil {
		return nil, ErrNoMSA
	}
	field := func(i int) string {
		if i < len(msa) {
			return msa[i]
		}
		return ""
	}
	return &Ack{
		Code:             AckCode(field(1)),
		ControlID:        field(2),
		Text:             field(3),
		MessageControlID: msg.ControlID(),
	}, nil
}

// NewACK answers req with code. Sender and receiver are swapped, delimiters
// are those declared by req. The result is unframed.
func NewACK(req *mllp.Message, code AckCode, controlID string, now time.Time) []byte {
	sep := string(req.FieldSeparator())
	comp := string(req.EncodingCharacters()[0])

	trigger := ""
	if parts := strings.Split(req.HeaderField(9), comp); len(parts) > 1 {
		trigger = parts[1]
	}
	version := req.HeaderField(12)
	if version == "" {
		version = Version
	}

	msh := []string{
		"MSH", req.EncodingCharacters(),
		req.HeaderField(5), req.HeaderField(6), req.HeaderField(3), req.HeaderField(4),
		now.Format(timestampLayout), "",
		strings.Join([]string{"ACK", trigger, "ACK"}, comp),
		controlID, req.HeaderField(11), version,
	}
	msa := []string{"MSA", string(code), req.ControlID()}

	var buf bytes.Buffer
	buf.WriteString(strings.Join(msh, sep))
	buf.WriteByte(SegmentTerminator)
	buf.WriteString(strings.Join(msa, sep))
	buf.WriteByte(SegmentTerminator)
	return buf.Bytes()
}
