// internal/listing/geocode.go
//
// Accuracy-gated geocode merging.
//
// Context
// -------
// Geocode accuracy is monotonically non-decreasing across saves: a result
// only overwrites the stored coordinates when its accuracy is at least
// the stored value, and a tie takes the newer coordinates.  The save
// pipeline calls this lazily — only when the record has no accuracy yet —
// so an already-geocoded listing is never re-resolved automatically.
// Callers that fix an address can invoke Geocode directly to force a
// fresh merge.

package listing

import (
	"context"

	"github.com/yanizio/waypost/internal/metrics"
)

// Geocode asks the configured provider for the listing's address and
// adopts the result when it passes the accuracy gate.  A provider miss or
// failure leaves the record untouched; the error is returned for logging
// but the save pipeline treats it as non-fatal.
func (m *Manager) Geocode(ctx context.Context, l *Listing) error {
	metrics.GeocodeRequestsTotal.Inc()

	res, err := m.geocoder.Geocode(ctx, l.AddressParts())
	if err != nil {
		return err
	}
	if res == nil || res.Accuracy < l.MapAccuracy {
		return nil
	}

	l.MapAccuracy = res.Accuracy
	l.Latitude = res.Lat
	l.Longitude = res.Lon
	l.GeocodeSource = res.Source
	metrics.GeocodeAdoptedTotal.Inc()
	return nil
}
