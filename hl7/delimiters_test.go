package hl7

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDelimiters_EncodingCharacters(t *testing.T) {
	assert.Equal(t, `^~\&`, Standard.EncodingCharacters())
}

func TestDelimiters_EscapeValue(t *testing.T) {
	tests := map[string]string{
		"plain":   "plain",
		"a|b":     `a\F\b`,
		"a^b":     `a\S\b`,
		"a~b":     `a\R\b`,
		`a\b`:     `a\E\b`,
		"a&b":     `a\T\b`,
		"|^~\\&|": `\F\\S\\R\\E\\T\\F\`,
	}
	for in, want := range tests {
		assert.Equal(t, want, Standard.EscapeValue(in), in)
	}
}

func TestDelimiters_Base64AlphabetIsSafe(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="
	for i := 0; i < len(alphabet); i++ {
		assert.False(t, Standard.IsDelimiter(alphabet[i]), string(alphabet[i]))
	}
	assert.True(t, Standard.IsDelimiter('\r'))
}

func TestAssertNoDelimiters(t *testing.T) {
	assert.NoError(t, assertNoDelimiters(Standard, "OBX-5", "aGVsbG8="))

	err := assertNoDelimiters(Standard, "OBX-5", "aGV|sbG8=")
	var be *BuildError
	assert.ErrorAs(t, err, &be)
	assert.Equal(t, KindDelimiterCollision, be.Kind)
	assert.Equal(t, 3, be.Offset)
}
