package mllp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	msg, err := ParseMessage(Unwrap(testMessage))
	require.NoError(t, err)

	assert.Equal(t, byte('|'), msg.FieldSeparator())
	assert.Equal(t, "^~\\&", msg.EncodingCharacters())
	assert.Equal(t, "|", msg.HeaderField(1))
	assert.Equal(t, "^~\\&", msg.HeaderField(2))
	assert.Equal(t, "SendingApp", msg.HeaderField(3))
	assert.Equal(t, "MDM^T02", msg.Type())
	assert.Equal(t, "MSG123", msg.ControlID())
	assert.Equal(t, "ASCII", msg.HeaderField(18))
	assert.Equal(t, "", msg.HeaderField(40))
	assert.Equal(t, []string{"MSH", "OBX"}, msg.SegmentNames())
	assert.Equal(t, "JVBERi0xLjQgdGVzdA==", msg.Segment("OBX")[5])
	assert.Nil(t, msg.Segment("PID"))
}

func TestParseMessage_CustomSeparator(t *testing.T) {
	msg, err := ParseMessage([]byte("MSH#$~\\&#A#B#C#D#2024##ADT$A01#42#P#2.5\r"))
	require.NoError(t, err)
	assert.Equal(t, "ADT$A01", msg.Type())
	assert.Equal(t, "42", msg.ControlID())
}

func TestParseMessage_Errors(t *testing.T) {
	_, err := ParseMessage([]byte("PID|1"))
	assert.ErrorIs(t, err, ErrMissingHeader)

	_, err = ParseMessage([]byte("MSH|^~"))
	assert.ErrorIs(t, err, ErrShortHeader)
}
