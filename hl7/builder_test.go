package hl7

import (
	"bytes"
	"encoding/base64"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/myeof/gomllp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC)

func testHeader(controlID string) Header {
	return Header{
		SendingApplication:   "SendingApp",
		SendingFacility:      "SendingFac",
		ReceivingApplication: "ReceivingApp",
		ReceivingFacility:    "ReceivingFac",
		Timestamp:            testTime,
		ControlID:            controlID,
	}
}

func segments(t *testing.T, m *Message) [][]string {
	t.Helper()
	var out [][]string
	for _, seg := range strings.Split(string(m.Segments()), "\r") {
		if seg == "" {
			continue
		}
		out = append(out, strings.Split(seg, "|"))
	}
	return out
}

func TestBuild_Hello(t *testing.T) {
	msg, err := Build([]byte("hello"), testHeader("MSG123"))
	require.NoError(t, err)

	b := msg.Bytes()
	assert.Equal(t, byte(0x0B), b[0])
	assert.True(t, bytes.HasSuffix(b, []byte{0x1C, 0x0D}))
	// every segment, the last included, is terminated
	assert.True(t, bytes.HasSuffix(msg.Segments(), []byte{'\r'}))

	segs := segments(t, msg)
	require.Len(t, segs, 3)
	assert.Equal(t, "MSH", segs[0][0])
	assert.Equal(t, "TXA", segs[1][0])
	assert.Equal(t, "OBX", segs[2][0])

	obx := segs[2]
	assert.Equal(t, "ED", obx[2])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("hello")), obx[5])
	assert.Equal(t, "F", obx[11])
}

func TestBuild_HeaderFields(t *testing.T) {
	msg, err := Build([]byte("%PDF-1.4 test"), testHeader("MSG123"))
	require.NoError(t, err)

	parsed, err := mllp.ParseMessage(msg.Segments())
	require.NoError(t, err)
	assert.Equal(t, "^~\\&", parsed.HeaderField(2))
	assert.Equal(t, "SendingApp", parsed.HeaderField(3))
	assert.Equal(t, "SendingFac", parsed.HeaderField(4))
	assert.Equal(t, "ReceivingApp", parsed.HeaderField(5))
	assert.Equal(t, "ReceivingFac", parsed.HeaderField(6))
	assert.Equal(t, "20240101123000", parsed.HeaderField(7))
	assert.Equal(t, "MDM^T02^MDM_T02", parsed.HeaderField(9))
	assert.Equal(t, "MDM^T02", parsed.Type())
	assert.Equal(t, "MSG123", parsed.ControlID())
	assert.Equal(t, "P", parsed.HeaderField(11))
	assert.Equal(t, "2.5", parsed.HeaderField(12))
	assert.Equal(t, "ASCII", parsed.HeaderField(18))

	txa := parsed.Segment("TXA")
	require.NotNil(t, txa)
	assert.Equal(t, "CN", txa[2])
	assert.Equal(t, "DO", txa[17])

	obx := parsed.Segment("OBX")
	require.NotNil(t, obx)
	assert.Equal(t, "PDF^Application^PDF^Base64", obx[3])
}

func TestBuild_Defaults(t *testing.T) {
	msg, err := Build([]byte("x"), Header{Timestamp: testTime, ControlID: "1"})
	require.NoError(t, err)

	parsed, err := mllp.ParseMessage(msg.Segments())
	require.NoError(t, err)
	assert.Equal(t, DefaultSendingApplication, parsed.HeaderField(3))
	assert.Equal(t, DefaultReceivingApplication, parsed.HeaderField(5))
	assert.Equal(t, DefaultProcessingID, parsed.HeaderField(11))
}

func TestBuild_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	sizes := []int{0, 1, 2, 3, 57, 4096, 65537, 1 << 20}
	for _, n := range sizes {
		payload := make([]byte, n)
		rng.Read(payload)

		msg, err := Build(payload, testHeader("RT"))
		require.NoError(t, err)

		obx := segments(t, msg)[2]
		decoded, err := base64.StdEncoding.DecodeString(obx[5])
		require.NoError(t, err)
		assert.Equal(t, payload, decoded, "size %d", n)
		assert.Equal(t, n, msg.PayloadLen())
	}
}

func TestBuild_PayloadLimit(t *testing.T) {
	_, err := Build(make([]byte, MaxPayloadSize), testHeader("MAX"))
	require.NoError(t, err)

	_, err = Build(make([]byte, MaxPayloadSize+1), testHeader("MAX"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPayloadTooLarge))

	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, int64(MaxPayloadSize+1), be.Size)
	assert.Equal(t, int64(10_485_760), be.Limit)
	assert.Contains(t, be.Error(), "10485761")
}

func TestBuild_ControlIDOnlyDifference(t *testing.T) {
	a, err := Build([]byte("same"), testHeader("A0001"))
	require.NoError(t, err)
	b, err := Build([]byte("same"), testHeader("B0002"))
	require.NoError(t, err)

	sa, sb := segments(t, a), segments(t, b)
	require.Equal(t, len(sa), len(sb))
	for i := range sa {
		require.Equal(t, len(sa[i]), len(sb[i]))
		for j := range sa[i] {
			if i == 0 && j == 9 {
				assert.NotEqual(t, sa[i][j], sb[i][j])
				continue
			}
			assert.Equal(t, sa[i][j], sb[i][j], "segment %d field %d", i, j)
		}
	}
}

func TestBuild_InvalidCharacters(t *testing.T) {
	tests := []struct {
		name   string
		modify func(h *Header)
		field  string
	}{
		{"non-ascii app", func(h *Header) { h.SendingApplication = "Sénder" }, "MSH-3 sending application"},
		{"carriage return", func(h *Header) { h.ReceivingFacility = "Fac\rOBX" }, "MSH-6 receiving facility"},
		{"control id tab", func(h *Header) { h.ControlID = "A\tB" }, "MSH-10 control ID"},
		{"file name", func(h *Header) { h.FileName = "résumé.pdf" }, "TXA-16 file name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHeader("X")
			tt.modify(&h)
			_, err := Build([]byte("doc"), h)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCharacterEncoding))

			var be *BuildError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.field, be.Field)
		})
	}
}

func TestBuild_MissingFields(t *testing.T) {
	h := testHeader("")
	_, err := Build([]byte("doc"), h)
	assert.True(t, errors.Is(err, ErrMissingField))

	h = testHeader("ID")
	h.Timestamp = time.Time{}
	_, err = Build([]byte("doc"), h)
	assert.True(t, errors.Is(err, ErrMissingField))
}

func TestBuild_EscapesDelimitersInMetadata(t *testing.T) {
	h := testHeader("ID1")
	h.SendingApplication = "Lab|Main^A"
	msg, err := Build([]byte("doc"), h)
	require.NoError(t, err)

	parsed, err := mllp.ParseMessage(msg.Segments())
	require.NoError(t, err)
	assert.Equal(t, `Lab\F\Main\S\A`, parsed.HeaderField(3))
	assert.Equal(t, "ID1", parsed.ControlID())
}

func TestBuild_ContentTypeOverride(t *testing.T) {
	h := testHeader("ID2")
	h.ContentType = "application/pdf"
	msg, err := Build([]byte("not really a pdf"), h)
	require.NoError(t, err)
	assert.Equal(t, "PDF^Application^PDF^Base64", segments(t, msg)[2][3])
}

func TestBuild_TextPayloadDescriptor(t *testing.T) {
	msg, err := Build([]byte("hello"), testHeader("ID3"))
	require.NoError(t, err)
	assert.Equal(t, "TXT^Text^PLAIN^Base64", segments(t, msg)[2][3])
}
