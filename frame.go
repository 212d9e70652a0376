package mllp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// MLLP control bytes
const (
	StartBlock     byte = 0x0B
	EndBlock       byte = 0x1C
	CarriageReturn byte = 0x0D
)

// MaxFrameSize bounds a single frame read by the listener and a response read
// by the client.
const MaxFrameSize = 16 * 1024 * 1024

var (
	endSequence = []byte{EndBlock, CarriageReturn}

	ErrFrameTooLong   = errors.New("mllp: frame too long")
	ErrFrameTruncated = errors.New("mllp: frame missing end block")
)

// Wrap frames HL7 segments for the wire: SB + segments + EB CR.
func Wrap(segments []byte) []byte {
	framed := make([]byte, 0, len(segments)+3)
	framed = append(framed, StartBlock)
	framed = append(framed, segments...)
	return append(framed, endSequence...)
}

// Unwrap strips the start block and the end sequence when present.
func Unwrap(frame []byte) []byte {
	frame = bytes.TrimPrefix(frame, []byte{StartBlock})
	if i := bytes.Index(frame, endSequence); i >= 0 {
		return frame[:i]
	}
	return bytes.TrimSuffix(frame, []byte{EndBlock})
}

// IsComplete reports whether the accumulated bytes contain the end sequence.
func IsComplete(b []byte) bool {
	return bytes.Contains(b, endSequence)
}

// completedBy checks only the tail touched by the last read of n bytes.
func completedBy(b []byte, n int) bool {
	from := len(b) - n - 1
	if from < 0 {
		from = 0
	}
	return bytes.Contains(b[from:], endSequence)
}

// ReadFrame reads the next SB ... EB CR frame and returns its content.
// Bytes before the start block are discarded.
func ReadFrame(r *bufio.Reader, max int) ([]byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == StartBlock {
			break
		}
	}
	var frame []byte
	for {
		chunk, err := r.ReadSlice(EndBlock)
		frame = append(frame, chunk...)
		if max > 0 && len(frame) > max {
			return nil, ErrFrameTooLong
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrFrameTruncated
			}
			return nil, err
		}
		next, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrFrameTruncated
			}
			return nil, err
		}
		if next == CarriageReturn {
			return frame[:len(frame)-1], nil
		}
		// stray EB inside the frame
		if next == EndBlock {
			_ = r.UnreadByte()
			continue
		}
		frame = append(frame, next)
	}
}
