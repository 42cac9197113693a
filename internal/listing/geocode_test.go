// internal/listing/geocode_test.go

package listing

import (
	"context"
	"testing"

	"github.com/yanizio/waypost/internal/address"
	"github.com/yanizio/waypost/internal/geo"
)

func TestGeocodeAccuracyGate(t *testing.T) {
	cases := []struct {
		name      string
		stored    int
		result    *geo.Result
		wantAdopt bool
	}{
		{"better result wins", 4, &geo.Result{Lat: 1, Lon: 2, Accuracy: 8, Source: "g"}, true},
		{"tie wins", 8, &geo.Result{Lat: 1, Lon: 2, Accuracy: 8, Source: "g"}, true},
		{"worse result ignored", 8, &geo.Result{Lat: 1, Lon: 2, Accuracy: 4, Source: "g"}, false},
		{"nil result ignored", 4, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness()
			h.geocode = func(ctx context.Context, parts address.Parts) (*geo.Result, error) {
				return tc.result, nil
			}

			l := daytonListing()
			l.MapAccuracy = tc.stored
			l.Latitude = 99
			l.Longitude = 99

			if err := h.mgr.Geocode(context.Background(), l); err != nil {
				t.Fatalf("Geocode: %v", err)
			}

			if tc.wantAdopt {
				if l.Latitude != 1 || l.Longitude != 2 || l.MapAccuracy != 8 {
					t.Errorf("result not adopted: %+v", l)
				}
				if l.GeocodeSource != "g" {
					t.Errorf("source = %q", l.GeocodeSource)
				}
			} else {
				if l.Latitude != 99 || l.MapAccuracy != tc.stored {
					t.Errorf("record changed: lat=%v accuracy=%d", l.Latitude, l.MapAccuracy)
				}
			}
		})
	}
}

func TestGeocodeReceivesFullAddress(t *testing.T) {
	h := newHarness()
	var got address.Parts
	h.geocode = func(ctx context.Context, parts address.Parts) (*geo.Result, error) {
		got = parts
		return nil, nil
	}

	l := daytonListing()
	l.Address = "100 Main St"
	l.PostalCode = "45402"
	if err := h.mgr.Geocode(context.Background(), l); err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if got.Line1 != "100 Main St" || got.City != "Dayton" || got.StateProv != "OH" || got.PostalCode != "45402" {
		t.Errorf("address parts = %+v", got)
	}
}
