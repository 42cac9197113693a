// internal/address/states_test.go
//
// Unit-tests for abbreviation expansion and the geocode dedupe key.
//
// Run: go test ./internal/address -v

package address

import "testing"

func TestStateName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"OH", "Ohio"},
		{"oh", "Ohio"},
		{" on ", "Ontario"},
		{"BC", "British Columbia"},
		{"ZZ", "ZZ"},   // unknown codes pass through
		{"Ohio", "Ohio"}, // already expanded
		{"", ""},
	}

	for _, c := range cases {
		if got := StateName(c.in); got != c.want {
			t.Errorf("StateName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestPartsKey(t *testing.T) {
	a := Parts{Line1: "1 Main St", City: "Dayton", StateProv: "OH", PostalCode: "45402"}
	b := Parts{Line1: "1 Main St", City: "Dayton", StateProv: "OH", PostalCode: "45402"}
	c := Parts{Line1: "2 Main St", City: "Dayton", StateProv: "OH", PostalCode: "45402"}

	if a.Key() != b.Key() {
		t.Errorf("identical parts must share a key: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() == c.Key() {
		t.Errorf("distinct parts must not share a key: %q", a.Key())
	}
}
