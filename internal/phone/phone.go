// internal/phone/phone.go
//
// Phone-number values and normalization.
//
// Context
// -------
// A listing has four phone slots (main, toll-free, after-hours, fax).
// Each slot holds either a plain dial string or a structured value that
// carries the number plus a caller-facing type label.  Structured values
// persist as JSON in the same column, so the two variants round-trip
// through one string field.
//
// Every slot is paired with a *_normalized column that is re-derived on
// every save (never independently settable) so duplicate detection can
// compare numbers regardless of formatting.  Fax is exempt; its
// normalized slot is always cleared.
//
// Normalization rules
// -------------------
// 1. Strip every non-digit character.
// 2. Strip a single leading “0” or “1” if present.
//
// Deterministic, no side effects; empty input yields empty output.

package phone

import (
	"encoding/json"
	"strings"
)

// Value is the tagged variant held by a phone slot: a plain dial string,
// or a structured number with a type label.  The zero Value is the empty
// plain string.
type Value struct {
	raw        string
	structured bool
	number     string
	label      string
}

// Plain wraps a bare dial string.
func Plain(s string) Value {
	return Value{raw: s}
}

// Structured wraps a number with a caller-facing type label, e.g.
// ("937-555-0101", "after-hours").
func Structured(number, label string) Value {
	return Value{structured: true, number: number, label: label}
}

// Parse reconstructs a Value from its stored column form.  A column that
// holds JSON (older rows were written by code that serialized structured
// values inline) decodes back to the structured variant; anything else is
// plain.
func Parse(stored string) Value {
	trimmed := strings.TrimSpace(stored)
	if strings.HasPrefix(trimmed, "{") {
		var obj struct {
			Number string `json:"number"`
			Type   string `json:"type"`
		}
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil && obj.Number != "" {
			return Structured(obj.Number, obj.Type)
		}
	}
	return Plain(stored)
}

// IsZero reports whether the slot is empty.
func (v Value) IsZero() bool {
	if v.structured {
		return v.number == ""
	}
	return v.raw == ""
}

// Number returns the dial string regardless of variant.
func (v Value) Number() string {
	if v.structured {
		return v.number
	}
	return v.raw
}

// Label returns the type label of a structured value, or "" for plain.
func (v Value) Label() string { return v.label }

// Storable returns the column form: the plain string unchanged, or the
// JSON encode of a structured value.
func (v Value) Storable() string {
	if !v.structured {
		return v.raw
	}
	b, err := json.Marshal(struct {
		Number string `json:"number"`
		Type   string `json:"type,omitempty"`
	}{v.number, v.label})
	if err != nil {
		// Marshal of two strings cannot fail; fall back to the number.
		return v.number
	}
	return string(b)
}

// Normalize extracts the comparable digit string from a Value.
func Normalize(v Value) string {
	return NormalizeString(v.Number())
}

// NormalizeString strips non-digits, then one leading 0 or 1.
func NormalizeString(number string) string {
	var b strings.Builder
	b.Grow(len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 0 && (digits[0] == '0' || digits[0] == '1') {
		digits = digits[1:]
	}
	return digits
}
