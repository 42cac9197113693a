// internal/geo/http.go
//
// HTTP client for the geocoding sidecar.
//
// The lifecycle core treats geocoding as an external collaborator; this
// client is the one concrete implementation cmd/web wires in.  It calls
// an internal resolver endpoint that fronts whichever commercial provider
// is in use, so provider quirks (quotas, response shapes, retries) never
// leak into this codebase.
//
// Request:  GET <base>?line1=…&line2=…&city=…&state=…&postal=…
// Response: 200 {"lat":…,"lon":…,"accuracy":…} or 204 for no match.

package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/yanizio/waypost/internal/address"
)

// HTTPClient implements Geocoder against the internal resolver endpoint.
type HTTPClient struct {
	base   string
	apiKey string
	source string // tag recorded into geocode_source on adopted results
	client *http.Client
}

// NewHTTPClient builds a client for the resolver at base.  The source tag
// labels adopted results so a later, better provider can supersede them.
func NewHTTPClient(base, apiKey, source string) *HTTPClient {
	return &HTTPClient{
		base:   base,
		apiKey: apiKey,
		source: source,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Geocode implements Geocoder.
func (c *HTTPClient) Geocode(ctx context.Context, parts address.Parts) (*Result, error) {
	q := url.Values{}
	q.Set("line1", parts.Line1)
	q.Set("line2", parts.Line2)
	q.Set("city", parts.City)
	q.Set("state", parts.StateProv)
	q.Set("postal", parts.PostalCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo: resolver request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Decoded below.
	case http.StatusNoContent:
		return nil, nil
	default:
		return nil, fmt.Errorf("geo: resolver status %d", resp.StatusCode)
	}

	var body struct {
		Lat      float64 `json:"lat"`
		Lon      float64 `json:"lon"`
		Accuracy int     `json:"accuracy"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("geo: resolver decode: %w", err)
	}
	return &Result{Lat: body.Lat, Lon: body.Lon, Accuracy: body.Accuracy, Source: c.source}, nil
}
