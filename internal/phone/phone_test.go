// internal/phone/phone_test.go
//
// Unit-tests for phone normalization and the Value variants.
//
// Run: go test ./internal/phone -v

package phone

import "testing"

func TestNormalizeString(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"(555) 123-4567", "5551234567"}, // no country code: digits unchanged
		{"1-555-123-4567", "5551234567"}, // leading 1 dropped
		{"0555 123 4567", "5551234567"},  // leading 0 dropped
		{"011-555-1234", "115551234"},    // only ONE leading digit dropped
		{"ext. 204", "204"},
		{"", ""},
		{"no digits at all", ""},
	}

	for _, c := range cases {
		if got := NormalizeString(c.in); got != c.want {
			t.Errorf("NormalizeString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeVariants(t *testing.T) {
	if got := Normalize(Plain("1-937-555-0101")); got != "9375550101" {
		t.Errorf("plain: got %q", got)
	}
	if got := Normalize(Structured("(937) 555-0101", "after-hours")); got != "9375550101" {
		t.Errorf("structured: got %q", got)
	}
	if got := Normalize(Value{}); got != "" {
		t.Errorf("zero value: got %q", got)
	}
}

func TestStorableRoundTrip(t *testing.T) {
	// Plain values persist untouched.
	p := Plain("937-555-0101")
	if p.Storable() != "937-555-0101" {
		t.Fatalf("plain storable = %q", p.Storable())
	}

	// Structured values persist as JSON and parse back.
	s := Structured("937-555-0101", "after-hours")
	stored := s.Storable()
	back := Parse(stored)
	if back.Number() != "937-555-0101" || back.Label() != "after-hours" {
		t.Fatalf("round trip lost data: %q → %+v", stored, back)
	}

	// Non-JSON stored strings come back plain.
	if v := Parse("555-0101"); v.Label() != "" || v.Number() != "555-0101" {
		t.Fatalf("plain parse mangled: %+v", v)
	}
}
