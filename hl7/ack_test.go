package hl7

import (
	"testing"
	"time"

	"github.com/myeof/gomllp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewACK_SwapsParties(t *testing.T) {
	msg, err := Build([]byte("doc"), testHeader("MSG123"))
	require.NoError(t, err)
	req, err := mllp.ParseMessage(msg.Segments())
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 12, 30, 5, 0, time.UTC)
	ack := NewACK(req, AckAccept, "ACK0001", now)

	parsed, err := mllp.ParseMessage(ack)
	require.NoError(t, err)
	assert.Equal(t, "ReceivingApp", parsed.HeaderField(3))
	assert.Equal(t, "ReceivingFac", parsed.HeaderField(4))
	assert.Equal(t, "SendingApp", parsed.HeaderField(5))
	assert.Equal(t, "SendingFac", parsed.HeaderField(6))
	assert.Equal(t, "20240101123005", parsed.HeaderField(7))
	assert.Equal(t, "ACK^T02^ACK", parsed.HeaderField(9))
	assert.Equal(t, "ACK0001", parsed.ControlID())
	assert.Equal(t, "2.5", parsed.HeaderField(12))
	assert.Equal(t, []string{"MSA", "AA", "MSG123"}, parsed.Segment("MSA"))
}

func TestParseACK(t *testing.T) {
	resp := mllp.Wrap([]byte("MSH|^~\\&|LIS|HOSP|SendingApp|SendingFac|20240101123005||ACK^T02^ACK|A1|P|2.5\rMSA|AE|MSG123|bad document\r"))

	ack, err := ParseACK(resp)
	require.NoError(t, err)
	assert.Equal(t, AckError, ack.Code)
	assert.Equal(t, "MSG123", ack.ControlID)
	assert.Equal(t, "bad document", ack.Text)
	assert.Equal(t, "A1", ack.MessageControlID)
	assert.False(t, ack.Accepted())
}

func TestParseACK_Unframed(t *testing.T) {
	ack, err := ParseACK([]byte("MSH|^~\\&|A|B|C|D|20240101||ACK|1|P|2.5\rMSA|CA|X\r"))
	require.NoError(t, err)
	assert.True(t, ack.Accepted())
	assert.Empty(t, ack.Text)
}

func TestParseACK_Errors(t *testing.T) {
	_, err := ParseACK([]byte("ACK"))
	assert.True(t, errors.Is(err, mllp.ErrMissingHeader))

	_, err = ParseACK([]byte("MSH|^~\\&|A|B|C|D|20240101||ACK|1|P|2.5\r"))
	assert.True(t, errors.Is(err, ErrNoMSA))
}
