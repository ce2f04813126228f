package domain

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// MaskType represents a strategy for hiding bound values in query logs.
type MaskType string

const (
	MaskRedact  MaskType = "redact"
	MaskHash    MaskType = "hash"
	MaskPartial MaskType = "partial"
	MaskNull    MaskType = "null"
)

// Valid returns true if the MaskType is a recognised masking strategy
// (including the zero value "", which means "no mask").
func (m MaskType) Valid() bool {
	switch m {
	case MaskRedact, MaskHash, MaskPartial, MaskNull, "":
		return true
	}
	return false
}

// ParseMaskType parses a mask name, case-insensitively.
func ParseMaskType(s string) (MaskType, error) {
	m := MaskType(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("invalid mask %q (allowed: redact, hash, partial, null)", s)
	}
	return m, nil
}

// ApplyMask transforms a value according to the mask type.
// Only Text and Bytes carry user data worth hiding; other variants pass through.
// NULL stays NULL so the shape of the statement is still readable.
func ApplyMask(v Value, maskType MaskType) Value {
	var raw string
	switch x := v.(type) {
	case Text:
		raw = string(x)
	case Bytes:
		raw = string(x)
	default:
		return v
	}

	switch maskType {
	case MaskRedact:
		return Text("***")
	case MaskHash:
		h := sha256.Sum256([]byte(raw))
		return Text(fmt.Sprintf("%x", h)) // full 256-bit, 64 hex chars
	case MaskPartial:
		return Text(maskPartial(raw))
	case MaskNull:
		return Null{}
	default:
		return v
	}
}

// maskPartial reveals only the last 4 characters, replacing the rest with
// asterisks. Works correctly with multi-byte (unicode) strings.
func maskPartial(s string) string {
	runes := []rune(s)
	if len(runes) <= 4 {
		return "***" + s
	}
	masked := make([]rune, len(runes))
	for i := range masked {
		if i < len(runes)-4 {
			masked[i] = '*'
		} else {
			masked[i] = runes[i]
		}
	}
	return string(masked)
}

// MaskValues returns a masked copy of vs. The input is never modified.
func MaskValues(vs Values, maskType MaskType) Values {
	if maskType == "" || len(vs) == 0 {
		return vs
	}
	out := make(Values, len(vs))
	for i, v := range vs {
		out[i] = ApplyMask(v, maskType)
	}
	return out
}
