package hl7

import "fmt"

// ErrorKind classifies a failed build.
type ErrorKind uint8

const (
	KindPayloadTooLarge ErrorKind = iota + 1
	KindInvalidCharacterEncoding
	KindMissingField
	KindDelimiterCollision
)

func (k ErrorKind) String() string {
	switch k {
	case KindPayloadTooLarge:
		return "payload too large"
	case KindInvalidCharacterEncoding:
		return "invalid character encoding"
	case KindMissingField:
		return "missing field"
	case KindDelimiterCollision:
		return "delimiter collision"
	}
	return fmt.Sprintf("ErrorKind(%d)", uint8(k))
}

// Sentinels for errors.Is against a *BuildError.
var (
	ErrPayloadTooLarge          = &BuildError{Kind: KindPayloadTooLarge}
	ErrInvalidCharacterEncoding = &BuildError{Kind: KindInvalidCharacterEncoding}
	ErrMissingField             = &BuildError{Kind: KindMissingField}
	ErrDelimiterCollision       = &BuildError{Kind: KindDelimiterCollision}
)

// BuildError is returned by Build. Nothing is sent when a build fails.
type BuildError struct {
	Kind ErrorKind

	// Size and Limit are set for KindPayloadTooLarge.
	Size  int64
	Limit int64

	// Field, Offset and Byte locate the offending character.
	Field  string
	Offset int
	Byte   byte
}

func (e *BuildError) Error() string {
	switch e.Kind {
	case KindPayloadTooLarge:
		return fmt.Sprintf("hl7: payload too large: %d bytes exceeds limit of %d", e.Size, e.Limit)
	case KindInvalidCharacterEncoding:
		return fmt.Sprintf("hl7: invalid character 0x%02X in %s at offset %d", e.Byte, e.Field, e.Offset)
	case KindMissingField:
		return fmt.Sprintf("hl7: %s is required", e.Field)
	case KindDelimiterCollision:
		return fmt.Sprintf("hl7: delimiter %q in %s at offset %d", e.Byte, e.Field, e.Offset)
	}
	return "hl7: " + e.Kind.String()
}

func (e *BuildError) Is(target error) bool {
	t, ok := target.(*BuildError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
