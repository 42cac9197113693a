// internal/listing/store.go
//
// Record-store contract for listings.
//
// Context
// -------
// The lifecycle manager talks to persistence through this interface so
// the pipeline can be exercised against fakes in tests and against MySQL
// in production (sql.go).  The store is the single source of truth for
// permalink uniqueness; Save surfacing ErrDuplicate is the signal to
// re-run permalink resolution, not a fatal error.
//
// Associations (services, payment methods, brands) are modeled as
// explicit set operations on join tables — the core does no relationship
// traversal of its own.

package listing

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups that miss.  Route resolution maps it
// to a not-found response.
var ErrNotFound = errors.New("listing: not found")

// ErrDuplicate is returned by Save when a uniqueness constraint (the
// permalink index) rejects the write.  The lifecycle re-resolves the
// permalink and retries.
var ErrDuplicate = errors.New("listing: duplicate key")

// Store is the persistence contract for listing rows and their join
// tables.
type Store interface {
	// ByID fetches one listing by primary key; ErrNotFound on miss.
	ByID(ctx context.Context, ckey int64) (*Listing, error)

	// ByPermalink fetches one listing by its canonical path;
	// ErrNotFound on miss.
	ByPermalink(ctx context.Context, permalink string) (*Listing, error)

	// PermalinkExists reports whether a DIFFERENT listing already owns
	// the exact permalink.  excluding is the caller's own ckey (zero for
	// unsaved records).
	PermalinkExists(ctx context.Context, permalink string, excluding int64) (bool, error)

	// Save inserts (assigning CKey) or updates the row.  A uniqueness
	// rejection is surfaced as ErrDuplicate.
	Save(ctx context.Context, l *Listing) error

	// Delete removes the listing row.  Dependent rows and blobs are the
	// lifecycle's business, not the store's.
	Delete(ctx context.Context, ckey int64) error

	// ServiceIDs returns the IDs of services the listing provides.
	ServiceIDs(ctx context.Context, ckey int64) ([]int64, error)

	// PaymentMethodIDs returns the accepted payment-method IDs.
	PaymentMethodIDs(ctx context.Context, ckey int64) ([]int64, error)

	// BrandPairs returns every (equipment brand, service) association.
	BrandPairs(ctx context.Context, ckey int64) ([]BrandPair, error)

	// SetServices replaces the provides_service rows for a listing.
	// Unknown service IDs are dropped, not errors.
	SetServices(ctx context.Context, ckey int64, serviceIDs []int64) error

	// SetServiceBrands replaces the brand rows for one of the listing's
	// services.  Unknown brand IDs are dropped.
	SetServiceBrands(ctx context.Context, ckey, serviceID int64, brandIDs []int64) error

	// AddPaymentMethod attaches one accepted payment method.
	AddPaymentMethod(ctx context.Context, ckey, methodID int64) error

	// DeletePreferenceLinks purges p4_preferred rows (delete pipeline).
	DeletePreferenceLinks(ctx context.Context, ckey int64) error

	// DeleteNotes purges private-note rows (delete pipeline).
	DeleteNotes(ctx context.Context, ckey int64) error
}

// Resolve finds a listing by route identifier: first as "/"+identifier
// against permalinks, then as a numeric ckey.  ErrNotFound on both
// misses.  This mirrors how public provider URLs are bound to records.
func Resolve(ctx context.Context, s Store, identifier string) (*Listing, error) {
	if l, err := s.ByPermalink(ctx, "/"+identifier); err == nil {
		return l, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	ckey, ok := parseCKey(identifier)
	if !ok {
		return nil, ErrNotFound
	}
	return s.ByID(ctx, ckey)
}

func parseCKey(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int64(r-'0')
	}
	return n, true
}
