// internal/geo/geo.go
//
// Geocoding contract consumed by the listing lifecycle.
//
// Context
// -------
// The lifecycle never talks to a geocoding HTTP API directly; it consumes
// a Result (coordinates + accuracy + source) from whatever Geocoder the
// caller wires in.  Accuracy is a comparable quality score — higher is
// better — and the merge rule in the listing core only adopts results
// whose accuracy is at least the stored one.
//
// Notes
// -----
// • A nil *Result with a nil error means the provider had no match; the
//   caller leaves the record untouched.
// • Single wraps any Geocoder with a singleflight group so concurrent
//   saves of the same address resolve with one upstream call.

package geo

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/yanizio/waypost/internal/address"
)

// Result is one geocoding answer.
type Result struct {
	Lat      float64
	Lon      float64
	Accuracy int
	Source   string
}

// Geocoder resolves address parts to a Result.
type Geocoder interface {
	Geocode(ctx context.Context, parts address.Parts) (*Result, error)
}

// Func adapts an ordinary function to the Geocoder interface.
type Func func(ctx context.Context, parts address.Parts) (*Result, error)

// Geocode implements Geocoder.
func (f Func) Geocode(ctx context.Context, parts address.Parts) (*Result, error) {
	return f(ctx, parts)
}

// Single deduplicates concurrent Geocode calls for the same address.
// Duplicate callers block on the in-flight request and share its result.
type Single struct {
	next  Geocoder
	group singleflight.Group
}

// NewSingle wraps next with request collapsing.
func NewSingle(next Geocoder) *Single {
	return &Single{next: next}
}

// Geocode implements Geocoder.  The dedupe key is the canonical join of
// the address parts.
func (s *Single) Geocode(ctx context.Context, parts address.Parts) (*Result, error) {
	v, err, _ := s.group.Do(parts.Key(), func() (any, error) {
		return s.next.Geocode(ctx, parts)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	res, _ := v.(*Result)
	return res, nil
}
