// internal/listing/lifecycle.go
//
// Listing lifecycle orchestration.
//
// Context
// -------
// Every mutation of a provider listing flows through the Manager, which
// runs the save pipeline as one explicit, ordered unit of work:
//
//	1. normalize the phone slots (fax keeps no normalized form)
//	2. regenerate an invalid permalink; clear merged redirects to the
//	   current permalink either way
//	3. coerce a missing or ancient expiration to one year out
//	4. structured phones flatten to their storable form at persist
//	5. geocode, only when the record has no accuracy yet (non-fatal)
//	6. drop transient association caches
//	7. persist, retrying once more per uniqueness violation
//	8. append the audit record (fatal on failure)
//	9. flag restricted preferred services for staff review
//
// Steps 1-6 mutate in-memory state and must precede the persist; the
// audit append must follow it so the snapshot reflects committed state.
//
// Workflow
// --------
// Construct one Manager at boot and share it; it holds no per-request
// state.  Handlers load a listing, mutate it, and call Save or Delete.
//
// Notes
// -----
//   - A uniqueness violation on persist means another listing raced us to
//     the permalink.  Each retry re-runs allocation, which sees the taken
//     path and picks the next suffix.
//   - Blob deletions are best-effort everywhere.  Audit appends are not.
//   - Oxford commas, two spaces after periods.

package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/waypost/internal/account"
	"github.com/yanizio/waypost/internal/blob"
	"github.com/yanizio/waypost/internal/geo"
	"github.com/yanizio/waypost/internal/meta"
	"github.com/yanizio/waypost/internal/metrics"
	"github.com/yanizio/waypost/internal/phone"
)

// persistAttempts bounds the uniqueness-violation retry loop.
const persistAttempts = 3

// mergedPermalinkKey is the meta key holding redirect targets left behind
// by listing merges.
const mergedPermalinkKey = "merged_permalink"

// needsAttentionKey and needsAttentionNote flag listings whose preferred
// service may only be assigned by staff.
const (
	needsAttentionKey  = "needs_attention"
	needsAttentionNote = "Preferred service is restricted and needs staff review."
)

// Manager orchestrates listing mutations across the store and its
// collaborators.
type Manager struct {
	store    Store
	meta     meta.Store
	blobs    blob.Store
	geocoder geo.Geocoder
	audit    AuditStore
	payments PaymentStore
	prices   PriceTable
	accounts account.Lookup
	log      *zap.SugaredLogger

	// restricted holds preferred-service IDs that only staff may assign.
	restricted map[int64]bool

	now func() time.Time
}

// ManagerDeps collects the collaborators a Manager needs.
type ManagerDeps struct {
	Store    Store
	Meta     meta.Store
	Blobs    blob.Store
	Geocoder geo.Geocoder
	Audit    AuditStore
	Payments PaymentStore
	Prices   PriceTable
	Accounts account.Lookup
	Log      *zap.SugaredLogger

	// RestrictedPreferredServices lists preferred-service IDs that
	// trigger a needs-attention flag when saved.
	RestrictedPreferredServices []int64
}

// NewManager wires a Manager.  All collaborators except Log are required;
// a nil Log falls back to the global sugared logger.
func NewManager(d ManagerDeps) *Manager {
	log := d.Log
	if log == nil {
		log = zap.S()
	}
	restricted := make(map[int64]bool, len(d.RestrictedPreferredServices))
	for _, id := range d.RestrictedPreferredServices {
		restricted[id] = true
	}
	return &Manager{
		store:      d.Store,
		meta:       d.Meta,
		blobs:      d.Blobs,
		geocoder:   d.Geocoder,
		audit:      d.Audit,
		payments:   d.Payments,
		prices:     d.Prices,
		accounts:   d.Accounts,
		log:        log,
		restricted: restricted,
		now:        timeNow,
	}
}

// Save runs the full pipeline for an insert or update.  On return the
// listing reflects persisted state, including a backfilled ckey for
// inserts.
func (m *Manager) Save(ctx context.Context, l *Listing) error {
	m.normalizePhones(l)

	if !IsPermalink(l.Permalink) {
		if err := m.assignPermalink(ctx, l); err != nil {
			return err
		}
	} else if err := m.clearMergedRedirects(ctx, l.Permalink); err != nil {
		// Even an unchanged permalink sheds stale redirects pointing at
		// it, so a merge-then-restore never shadows the live path.
		return err
	}

	if l.Expires.IsZero() || l.Expires.Year() < 2000 {
		l.Expires = m.now().AddDate(1, 0, 0)
	}

	// Structured phone values flatten to JSON through their Valuer when
	// the row is written; nothing to do here.

	if l.MapAccuracy == 0 {
		if err := m.Geocode(ctx, l); err != nil {
			m.log.Warnw("geocode failed, keeping stored coordinates",
				"ckey", l.CKey, "error", err)
		}
	}

	l.dropCaches()

	isNew := l.CKey == 0
	if err := m.persist(ctx, l); err != nil {
		return err
	}

	action := ActionUpdate
	if isNew {
		action = ActionAdd
	}
	if err := m.appendAudit(ctx, l, action); err != nil {
		return err
	}
	metrics.ListingSavesTotal.WithLabelValues(action).Inc()

	if m.restricted[l.PreferredService] {
		if err := m.meta.Add(ctx, l.CKey, needsAttentionKey, needsAttentionNote); err != nil {
			return fmt.Errorf("lifecycle: flag restricted preferred service: %w", err)
		}
	}

	m.log.Infow("listing saved",
		"ckey", l.CKey, "action", action, "permalink", l.Permalink)
	return nil
}

// Delete removes a listing: audit first, then the row, then media and
// dependent rows.  Rating rows are left untouched.
func (m *Manager) Delete(ctx context.Context, l *Listing) error {
	if err := m.appendAudit(ctx, l, ActionDelete); err != nil {
		return err
	}

	if err := m.store.Delete(ctx, l.CKey); err != nil {
		return fmt.Errorf("lifecycle: delete listing %d: %w", l.CKey, err)
	}
	metrics.ListingDeletesTotal.Inc()

	m.purgeMedia(l)

	if err := m.store.DeletePreferenceLinks(ctx, l.CKey); err != nil {
		return fmt.Errorf("lifecycle: purge preference links: %w", err)
	}
	if err := m.store.DeleteNotes(ctx, l.CKey); err != nil {
		return fmt.Errorf("lifecycle: purge notes: %w", err)
	}
	if err := m.meta.DeleteAll(ctx, l.CKey); err != nil {
		return fmt.Errorf("lifecycle: purge metadata: %w", err)
	}

	m.log.Infow("listing deleted", "ckey", l.CKey, "permalink", l.Permalink)
	return nil
}

// normalizePhones refreshes the derived digit columns.  Fax never gets
// one.
func (m *Manager) normalizePhones(l *Listing) {
	l.PhoneNormalized = phone.Normalize(l.Phone)
	l.TollfreeNormalized = phone.Normalize(l.Tollfree)
	l.CellphoneNormalized = phone.Normalize(l.Cellphone)
	l.FaxNormalized = ""
}

// assignPermalink allocates a fresh permalink and clears any merged
// redirects that point at it.
func (m *Manager) assignPermalink(ctx context.Context, l *Listing) error {
	p, err := m.generatePermalink(ctx, l)
	if err != nil {
		return err
	}
	if err := m.clearMergedRedirects(ctx, p); err != nil {
		return err
	}
	l.Permalink = p
	return nil
}

// clearMergedRedirects deletes every merged_permalink meta row, on any
// listing, whose value is the given path.
func (m *Manager) clearMergedRedirects(ctx context.Context, permalink string) error {
	if err := m.meta.DeleteValueEverywhere(ctx, mergedPermalinkKey, permalink); err != nil {
		return fmt.Errorf("permalink: merged cleanup: %w", err)
	}
	return nil
}

// persist writes the row, re-resolving the permalink and retrying when
// the store reports a uniqueness violation.
func (m *Manager) persist(ctx context.Context, l *Listing) error {
	var err error
	for attempt := 1; attempt <= persistAttempts; attempt++ {
		err = m.store.Save(ctx, l)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicate) {
			return fmt.Errorf("lifecycle: persist listing: %w", err)
		}

		m.log.Warnw("permalink collided at persist, reallocating",
			"ckey", l.CKey, "permalink", l.Permalink, "attempt", attempt)
		if aerr := m.assignPermalink(ctx, l); aerr != nil {
			return aerr
		}
	}
	return fmt.Errorf("lifecycle: persist listing after %d attempts: %w", persistAttempts, err)
}

// appendAudit snapshots committed state and appends it.  Failure fails
// the whole mutation.
func (m *Manager) appendAudit(ctx context.Context, l *Listing, action string) error {
	snap, err := m.buildSnapshot(ctx, l, action)
	if err != nil {
		metrics.AuditAppendErrorsTotal.Inc()
		return err
	}
	if _, err := m.audit.Append(ctx, snap); err != nil {
		metrics.AuditAppendErrorsTotal.Inc()
		return fmt.Errorf("audit: append %s for %d: %w", action, l.CKey, err)
	}
	metrics.AuditAppendsTotal.Inc()
	return nil
}

//
// Association operations
//

// SetServicesAndBrands replaces the listing's service set with the map's
// keys and each service's brand set with its values, then drops the
// transient caches.
func (m *Manager) SetServicesAndBrands(ctx context.Context, l *Listing, assoc map[int64][]int64) error {
	serviceIDs := make([]int64, 0, len(assoc))
	for id := range assoc {
		serviceIDs = append(serviceIDs, id)
	}
	if err := m.store.SetServices(ctx, l.CKey, serviceIDs); err != nil {
		return fmt.Errorf("associations: set services: %w", err)
	}
	for serviceID, brandIDs := range assoc {
		if err := m.store.SetServiceBrands(ctx, l.CKey, serviceID, brandIDs); err != nil {
			return fmt.Errorf("associations: set brands for service %d: %w", serviceID, err)
		}
	}
	l.dropCaches()
	return nil
}

// AddService adds one service to the listing's set, a no-op when already
// present.
func (m *Manager) AddService(ctx context.Context, l *Listing, serviceID int64) error {
	ids, err := m.Services(ctx, l)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == serviceID {
			return nil
		}
	}
	if err := m.store.SetServices(ctx, l.CKey, append(ids, serviceID)); err != nil {
		return fmt.Errorf("associations: add service %d: %w", serviceID, err)
	}
	l.dropCaches()
	return nil
}

// SetPreferredService changes the listing's preferred service and runs
// the save pipeline, which flags restricted choices for review.
func (m *Manager) SetPreferredService(ctx context.Context, l *Listing, serviceID int64) error {
	l.PreferredService = serviceID
	return m.Save(ctx, l)
}

// AddPaymentMethod associates one payment method with the listing.
func (m *Manager) AddPaymentMethod(ctx context.Context, l *Listing, methodID int64) error {
	if err := m.store.AddPaymentMethod(ctx, l.CKey, methodID); err != nil {
		return fmt.Errorf("associations: add payment method %d: %w", methodID, err)
	}
	return nil
}

// Services returns the listing's service IDs, cached on the instance
// until the next mutation.
func (m *Manager) Services(ctx context.Context, l *Listing) ([]int64, error) {
	if l.cachedServices != nil {
		return l.cachedServices, nil
	}
	ids, err := m.store.ServiceIDs(ctx, l.CKey)
	if err != nil {
		return nil, fmt.Errorf("associations: service ids: %w", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	l.cachedServices = ids
	return ids, nil
}

// Brands returns the listing's brand/service pairs, cached on the
// instance until the next mutation.
func (m *Manager) Brands(ctx context.Context, l *Listing) ([]BrandPair, error) {
	if l.cachedBrands != nil {
		return l.cachedBrands, nil
	}
	pairs, err := m.store.BrandPairs(ctx, l.CKey)
	if err != nil {
		return nil, fmt.Errorf("associations: brand pairs: %w", err)
	}
	if pairs == nil {
		pairs = []BrandPair{}
	}
	l.cachedBrands = pairs
	return pairs, nil
}

// AcceptsPayment reports whether the listing accepts the payment method.
func (m *Manager) AcceptsPayment(ctx context.Context, l *Listing, methodID int64) (bool, error) {
	ids, err := m.store.PaymentMethodIDs(ctx, l.CKey)
	if err != nil {
		return false, fmt.Errorf("associations: payment methods: %w", err)
	}
	for _, id := range ids {
		if id == methodID {
			return true, nil
		}
	}
	return false, nil
}
