package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskType_Valid(t *testing.T) {
	t.Parallel()
	valid := []MaskType{"", MaskRedact, MaskHash, MaskPartial, MaskNull}
	for _, mt := range valid {
		assert.True(t, mt.Valid(), "expected %q to be valid", mt)
	}

	invalid := []MaskType{"encrypt", "REDACT", "mask", "sha256"}
	for _, mt := range invalid {
		assert.False(t, mt.Valid(), "expected %q to be invalid", mt)
	}
}

func TestParseMaskType(t *testing.T) {
	t.Parallel()
	m, err := ParseMaskType(" Redact ")
	require.NoError(t, err)
	assert.Equal(t, MaskRedact, m)

	m, err = ParseMaskType("")
	require.NoError(t, err)
	assert.Equal(t, MaskType(""), m)

	_, err = ParseMaskType("encrypt")
	assert.Error(t, err)
}

func TestApplyMask_Redact(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Text("***"), ApplyMask(Text("secret@email.com"), MaskRedact))
	assert.Equal(t, Text("***"), ApplyMask(Bytes("raw"), MaskRedact))
	assert.Equal(t, Text("***"), ApplyMask(Text(""), MaskRedact))
}

func TestApplyMask_NonTextPassesThrough(t *testing.T) {
	t.Parallel()
	for _, mt := range []MaskType{MaskRedact, MaskHash, MaskPartial, MaskNull} {
		assert.Equal(t, Int(12345), ApplyMask(Int(12345), mt))
		assert.Equal(t, Float(3.14), ApplyMask(Float(3.14), mt))
		assert.Equal(t, Bool(true), ApplyMask(Bool(true), mt))
		assert.Equal(t, Null{}, ApplyMask(Null{}, mt))
	}
}

func TestApplyMask_Hash(t *testing.T) {
	t.Parallel()
	result := ApplyMask(Text("secret@email.com"), MaskHash)
	s, ok := result.(Text)
	require.True(t, ok)
	assert.Len(t, string(s), 64, "hash should be 64 hex chars (full SHA256)")

	// Deterministic: same input -> same hash.
	assert.Equal(t, result, ApplyMask(Text("secret@email.com"), MaskHash))

	// Different input -> different hash.
	assert.NotEqual(t, result, ApplyMask(Text("other@email.com"), MaskHash))

	// Bytes and Text with the same content hash identically.
	assert.Equal(t, result, ApplyMask(Bytes("secret@email.com"), MaskHash))
}

func TestApplyMask_Partial(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Text("******7890"), ApplyMask(Text("1234567890"), MaskPartial))
	assert.Equal(t, Text("***ab"), ApplyMask(Text("ab"), MaskPartial))
	assert.Equal(t, Text("***abcd"), ApplyMask(Text("abcd"), MaskPartial))
	assert.Equal(t, Text("*cret"), ApplyMask(Text("ecret"), MaskPartial))
	assert.Equal(t, Text("***"), ApplyMask(Text(""), MaskPartial))
}

func TestApplyMask_Partial_Unicode(t *testing.T) {
	t.Parallel()
	// "café résumé" is 11 runes; last 4 = "sumé"
	s, ok := ApplyMask(Text("café résumé"), MaskPartial).(Text)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(string(s), "sumé"), "should end with last 4 runes")
	runes := []rune(string(s))
	assert.Len(t, runes, 11, "rune count should match original")
	for i := 0; i < 7; i++ {
		assert.Equal(t, '*', runes[i])
	}
}

func TestApplyMask_Null(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Null{}, ApplyMask(Text("secret"), MaskNull))
}

func TestApplyMask_UnknownType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Text("value"), ApplyMask(Text("value"), MaskType("unknown")))
	assert.Equal(t, Text("value"), ApplyMask(Text("value"), ""))
}

func TestMaskValues(t *testing.T) {
	t.Parallel()
	in := Values{Int(1), Text("alice@example.com"), Null{}}

	out := MaskValues(in, MaskRedact)
	assert.Equal(t, Values{Int(1), Text("***"), Null{}}, out)
	assert.Equal(t, Text("alice@example.com"), in[1], "input must not be modified")

	assert.Equal(t, in, MaskValues(in, ""))
	assert.Nil(t, MaskValues(nil, MaskRedact))
}
