// internal/address/address.go
//
// Postal-address value types shared by the listing core and the geocoding
// client.
//
// Context
// -------
// Listings carry their address as individual columns (street, city,
// state/province, postal code).  The geocoder and the permalink allocator
// both consume those columns, so this package gives them one inert struct
// to pass around.  It contains no database handles and is safe to log or
// JSON-encode.

package address

import "strings"

// Parts carries the address columns a geocoder needs, in the order the
// upstream provider expects them.
type Parts struct {
	Line1      string
	Line2      string
	City       string
	StateProv  string
	PostalCode string
}

// Key returns a canonical join of the parts, used as a dedupe key when
// collapsing concurrent geocode requests for the same address.
func (p Parts) Key() string {
	return strings.Join([]string{p.Line1, p.Line2, p.City, p.StateProv, p.PostalCode}, "|")
}
