// internal/listing/fakes_test.go
//
// In-memory collaborators shared by the lifecycle tests.  Each fake
// implements just enough of its contract to observe pipeline behavior
// without a database or filesystem.

package listing

import (
	"bytes"
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/waypost/internal/address"
	"github.com/yanizio/waypost/internal/geo"
)

// testClock is the frozen now() used across the suite.
var testClock = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

//
// Store
//

type fakeStore struct {
	rows   map[int64]*Listing
	nextID int64

	// permalinks taken by OTHER listings, for collision tests.
	taken map[string]int64

	// duplicateFailures makes Save report ErrDuplicate this many times
	// before succeeding, simulating a race lost at the unique index.
	duplicateFailures int

	saveCalls int

	services map[int64][]int64
	methods  map[int64][]int64
	brands   map[int64][]BrandPair

	deletedCKeys    []int64
	deletedPrefs    []int64
	deletedNotes    []int64
	addedMethods    map[int64][]int64
	setServiceCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:         map[int64]*Listing{},
		nextID:       100,
		taken:        map[string]int64{},
		services:     map[int64][]int64{},
		methods:      map[int64][]int64{},
		brands:       map[int64][]BrandPair{},
		addedMethods: map[int64][]int64{},
	}
}

func (s *fakeStore) ByID(ctx context.Context, ckey int64) (*Listing, error) {
	l, ok := s.rows[ckey]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *fakeStore) ByPermalink(ctx context.Context, permalink string) (*Listing, error) {
	for _, l := range s.rows {
		if l.Permalink == permalink {
			cp := *l
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) PermalinkExists(ctx context.Context, permalink string, excluding int64) (bool, error) {
	if owner, ok := s.taken[permalink]; ok && owner != excluding {
		return true, nil
	}
	for _, l := range s.rows {
		if l.Permalink == permalink && l.CKey != excluding {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) Save(ctx context.Context, l *Listing) error {
	s.saveCalls++
	if s.duplicateFailures > 0 {
		s.duplicateFailures--
		return ErrDuplicate
	}
	if l.CKey == 0 {
		s.nextID++
		l.CKey = s.nextID
	}
	cp := *l
	s.rows[l.CKey] = &cp
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, ckey int64) error {
	delete(s.rows, ckey)
	s.deletedCKeys = append(s.deletedCKeys, ckey)
	return nil
}

func (s *fakeStore) ServiceIDs(ctx context.Context, ckey int64) ([]int64, error) {
	return s.services[ckey], nil
}

func (s *fakeStore) PaymentMethodIDs(ctx context.Context, ckey int64) ([]int64, error) {
	return s.methods[ckey], nil
}

func (s *fakeStore) BrandPairs(ctx context.Context, ckey int64) ([]BrandPair, error) {
	return s.brands[ckey], nil
}

func (s *fakeStore) SetServices(ctx context.Context, ckey int64, serviceIDs []int64) error {
	s.setServiceCalls++
	s.services[ckey] = serviceIDs
	return nil
}

func (s *fakeStore) SetServiceBrands(ctx context.Context, ckey, serviceID int64, brandIDs []int64) error {
	kept := s.brands[ckey][:0]
	for _, p := range s.brands[ckey] {
		if p.ServiceID != serviceID {
			kept = append(kept, p)
		}
	}
	for _, b := range brandIDs {
		kept = append(kept, BrandPair{BrandID: b, ServiceID: serviceID})
	}
	s.brands[ckey] = kept
	return nil
}

func (s *fakeStore) AddPaymentMethod(ctx context.Context, ckey, methodID int64) error {
	s.addedMethods[ckey] = append(s.addedMethods[ckey], methodID)
	s.methods[ckey] = append(s.methods[ckey], methodID)
	return nil
}

func (s *fakeStore) DeletePreferenceLinks(ctx context.Context, ckey int64) error {
	s.deletedPrefs = append(s.deletedPrefs, ckey)
	return nil
}

func (s *fakeStore) DeleteNotes(ctx context.Context, ckey int64) error {
	s.deletedNotes = append(s.deletedNotes, ckey)
	return nil
}

//
// Meta
//

type metaRow struct {
	ckey       int64
	key, value string
}

type fakeMeta struct {
	rows []metaRow
}

func (f *fakeMeta) All(ctx context.Context, ckey int64) (map[string]string, error) {
	out := map[string]string{}
	for _, r := range f.rows {
		if r.ckey == ckey {
			out[r.key] = r.value
		}
	}
	return out, nil
}

func (f *fakeMeta) Add(ctx context.Context, ckey int64, key, value string) error {
	f.rows = append(f.rows, metaRow{ckey, key, value})
	return nil
}

func (f *fakeMeta) Delete(ctx context.Context, ckey int64, key, value string) error {
	kept := f.rows[:0]
	for _, r := range f.rows {
		if r.ckey == ckey && r.key == key && (value == "" || r.value == value) {
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return nil
}

func (f *fakeMeta) DeleteValueEverywhere(ctx context.Context, key, value string) error {
	kept := f.rows[:0]
	for _, r := range f.rows {
		if r.key == key && r.value == value {
			continue
		}
		kept = append(kept, r)
	}
	f.rows = kept
	return nil
}

func (f *fakeMeta) DeleteAll(ctx context.Context, ckey int64) error {
	kept := f.rows[:0]
	for _, r := range f.rows {
		if r.ckey != ckey {
			kept = append(kept, r)
		}
	}
	f.rows = kept
	return nil
}

func (f *fakeMeta) has(ckey int64, key string) bool {
	for _, r := range f.rows {
		if r.ckey == ckey && r.key == key {
			return true
		}
	}
	return false
}

//
// Blobs
//

type fakeBlobs struct {
	stored  map[string][]byte
	deleted []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{stored: map[string][]byte{}}
}

func (b *fakeBlobs) PutIfAbsent(path string, r io.Reader) (bool, error) {
	if _, taken := b.stored[path]; taken {
		return false, nil
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return false, err
	}
	b.stored[path] = buf.Bytes()
	return true, nil
}

func (b *fakeBlobs) Delete(path string) error {
	delete(b.stored, path)
	b.deleted = append(b.deleted, path)
	return nil
}

//
// Audit, payments, prices, accounts
//

type fakeAudit struct {
	appended []*Snapshot
	nextID   int64

	// appendErr makes Append fail, for the append-is-fatal tests.
	appendErr error
}

func (a *fakeAudit) Append(ctx context.Context, snap *Snapshot) (int64, error) {
	if a.appendErr != nil {
		return 0, a.appendErr
	}
	a.nextID++
	a.appended = append(a.appended, snap)
	return a.nextID, nil
}

func (a *fakeAudit) last() *Snapshot {
	if len(a.appended) == 0 {
		return nil
	}
	return a.appended[len(a.appended)-1]
}

type fakePayments struct {
	inserted  []*Payment
	latest    *Payment
	purged    []int64
	purgeDays int
	nextID    int64
}

func (p *fakePayments) DeleteUnpaidWithin(ctx context.Context, ckey int64, days int) error {
	p.purged = append(p.purged, ckey)
	p.purgeDays = days
	return nil
}

func (p *fakePayments) Insert(ctx context.Context, pay *Payment) (int64, error) {
	p.nextID++
	pay.ID = p.nextID
	p.inserted = append(p.inserted, pay)
	return pay.ID, nil
}

func (p *fakePayments) LatestCompleted(ctx context.Context, ckey int64) (*Payment, error) {
	if p.latest == nil {
		return nil, ErrNotFound
	}
	return p.latest, nil
}

type fakePrices struct {
	byRank map[float64]float64
}

func (t *fakePrices) PriceForRank(ctx context.Context, rank float64) (float64, error) {
	return t.byRank[rank], nil
}

type fakeAccounts struct {
	orgs map[int64]string
}

func (a *fakeAccounts) OrganizationFor(ctx context.Context, customerID int64) (string, error) {
	return a.orgs[customerID], nil
}

//
// Harness
//

type harness struct {
	mgr      *Manager
	store    *fakeStore
	meta     *fakeMeta
	blobs    *fakeBlobs
	audit    *fakeAudit
	payments *fakePayments
	prices   *fakePrices
	accounts *fakeAccounts

	// geocode is consulted by the wired geocoder; nil means "no result".
	geocode func(ctx context.Context, parts address.Parts) (*geo.Result, error)
}

func newHarness() *harness {
	h := &harness{
		store:    newFakeStore(),
		meta:     &fakeMeta{},
		blobs:    newFakeBlobs(),
		audit:    &fakeAudit{},
		payments: &fakePayments{},
		prices:   &fakePrices{byRank: map[float64]float64{2: 275, 3.5: 500}},
		accounts: &fakeAccounts{orgs: map[int64]string{}},
	}
	h.mgr = NewManager(ManagerDeps{
		Store: h.store,
		Meta:  h.meta,
		Blobs: h.blobs,
		Geocoder: geo.Func(func(ctx context.Context, parts address.Parts) (*geo.Result, error) {
			if h.geocode == nil {
				return nil, nil
			}
			return h.geocode(ctx, parts)
		}),
		Audit:    h.audit,
		Payments: h.payments,
		Prices:   h.prices,
		Accounts: h.accounts,
		Log:      zap.NewNop().Sugar(),
	})
	h.mgr.now = func() time.Time { return testClock }
	return h
}
