// internal/listing/payment.go
//
// Payment registration and renewal bookkeeping.
//
// Context
// -------
// A listing's paid tier is its rank.  Each register-or-renew cycle
// writes a row to `p4_payment` with a JSON price breakdown; completion
// is recorded by a settlement process outside this package, which stamps
// PMT_Completed.  Registering a fresh payment first clears unpaid
// registrations from the last thirty days so an abandoned checkout does
// not pile up duplicate pending rows.
//
// Rank prices live in `rank_price` and change rarely, so the SQL price
// table keeps rows behind a small LRU.

package listing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/waypost/internal/cache"
)

// Payment plans.
const (
	PlanRecurring = "recurring"
	PlanSingle    = "single"
)

// paymentType tags provider rows in the shared payment table.
const paymentType = "provider"

// unpaidWindowDays is how far back RegisterCustomPayment clears pending
// registrations before inserting a new one.
const unpaidWindowDays = 30

// renewalWindowDays bounds how old a completed payment may be and still
// qualify the listing for automatic renewal.
const renewalWindowDays = 365

// Payment is one row of p4_payment.
type Payment struct {
	ID          int64      `db:"idPMT"`
	CKey        int64      `db:"PMT_FK"`
	Type        string     `db:"PMT_Type"`
	Rank        float64    `db:"PMT_Rank"`
	Price       string     `db:"PMT_Price"`
	Description string     `db:"PMT_Description"`
	Notes       string     `db:"PMT_Notes"`
	Payplan     string     `db:"PMT_Payplan"`
	Registered  time.Time  `db:"PMT_Registered"`
	Completed   *time.Time `db:"PMT_Completed"`
}

// PriceBreakdown is the JSON body of PMT_Price.  Discounted is the
// amount actually charged; it equals Price when no discount applies,
// never zero for a paid rank.
type PriceBreakdown struct {
	Price      float64 `json:"price"`
	Discounted float64 `json:"disc"`
}

// PaymentStore persists and queries provider payments.
type PaymentStore interface {
	// DeleteUnpaidWithin removes provider payments for the listing that
	// were registered within the last `days` days and never completed.
	DeleteUnpaidWithin(ctx context.Context, ckey int64, days int) error

	// Insert writes a payment and returns its id.
	Insert(ctx context.Context, p *Payment) (int64, error)

	// LatestCompleted returns the most recently completed provider
	// payment for the listing, or ErrNotFound when none exists.
	LatestCompleted(ctx context.Context, ckey int64) (*Payment, error)
}

// PriceTable answers the current price for a rank.
type PriceTable interface {
	PriceForRank(ctx context.Context, rank float64) (float64, error)
}

// RegisterPayment registers a payment for the listing's current rank at
// the table price, undiscounted (charge equals list price).  Returns the
// new payment id.
func (m *Manager) RegisterPayment(ctx context.Context, l *Listing, payplan string) (int64, error) {
	price, err := m.prices.PriceForRank(ctx, l.Rank)
	if err != nil {
		return 0, fmt.Errorf("payment: price for rank %.1f: %w", l.Rank, err)
	}
	return m.RegisterCustomPayment(ctx, l, l.Rank,
		PriceBreakdown{Price: price, Discounted: price}, payplan, "")
}

// RegisterCustomPayment clears recent unpaid registrations for the
// listing, then inserts a new pending payment at the given rank with the
// given breakdown.  The rank may differ from the listing's current one,
// e.g. when registering an upgrade.  Returns the new payment id, or 0
// with an error.
func (m *Manager) RegisterCustomPayment(ctx context.Context, l *Listing, rank float64, price PriceBreakdown, payplan, notes string) (int64, error) {
	if err := m.payments.DeleteUnpaidWithin(ctx, l.CKey, unpaidWindowDays); err != nil {
		return 0, fmt.Errorf("payment: clear unpaid: %w", err)
	}

	body, err := json.Marshal(price)
	if err != nil {
		return 0, fmt.Errorf("payment: encode price: %w", err)
	}

	p := &Payment{
		CKey:        l.CKey,
		Type:        paymentType,
		Rank:        rank,
		Price:       string(body),
		Description: fmt.Sprintf("Waypost provider listing, rank %.1f", rank),
		Notes:       notes,
		Payplan:     payplan,
		Registered:  m.now(),
	}
	id, err := m.payments.Insert(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("payment: insert: %w", err)
	}
	m.log.Infow("payment registered",
		"ckey", l.CKey, "payment_id", id, "rank", rank, "payplan", payplan)
	return id, nil
}

// ShouldRenewAutomatically reports whether the listing qualifies for
// unattended renewal: a paid rank, and a completed recurring payment
// within the last year.
func (m *Manager) ShouldRenewAutomatically(ctx context.Context, l *Listing) (bool, error) {
	if l.Rank <= 0 {
		return false, nil
	}
	p, err := m.payments.LatestCompleted(ctx, l.CKey)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("payment: latest completed: %w", err)
	}
	if p.Payplan != PlanRecurring {
		return false, nil
	}
	cutoff := m.now().AddDate(0, 0, -renewalWindowDays)
	return p.Completed != nil && p.Completed.After(cutoff), nil
}

// AddAndSaveYearAtRank moves the listing to the given rank and extends
// its expiration a year past whichever is later, today or the current
// expiration, then saves.
func (m *Manager) AddAndSaveYearAtRank(ctx context.Context, l *Listing, rank float64) error {
	l.Rank = rank
	base := m.now()
	if l.Expires.After(base) {
		base = l.Expires
	}
	l.Expires = base.AddDate(1, 0, 0)
	l.AddAuditComment("Set expiry & rank")
	return m.Save(ctx, l)
}

//
// SQL implementations
//

// SQLPaymentStore is the MySQL-backed PaymentStore.
type SQLPaymentStore struct {
	db *sqlx.DB
}

// NewSQLPaymentStore wraps an open pool.
func NewSQLPaymentStore(db *sqlx.DB) *SQLPaymentStore { return &SQLPaymentStore{db: db} }

const paymentCols = `idPMT, PMT_FK, PMT_Type, PMT_Rank, PMT_Price,
        PMT_Description, PMT_Notes, PMT_Payplan, PMT_Registered, PMT_Completed`

// DeleteUnpaidWithin implements PaymentStore.
func (s *SQLPaymentStore) DeleteUnpaidWithin(ctx context.Context, ckey int64, days int) error {
	const q = `DELETE FROM p4_payment
                WHERE PMT_FK = ?
                  AND PMT_Type = ?
                  AND PMT_Completed IS NULL
                  AND PMT_Registered > DATE_SUB(NOW(), INTERVAL ? DAY)`
	_, err := s.db.ExecContext(ctx, q, ckey, paymentType, days)
	return err
}

// Insert implements PaymentStore.
func (s *SQLPaymentStore) Insert(ctx context.Context, p *Payment) (int64, error) {
	const q = `INSERT INTO p4_payment
                (PMT_FK, PMT_Type, PMT_Rank, PMT_Price, PMT_Description,
                 PMT_Notes, PMT_Payplan, PMT_Registered, PMT_Completed)
                VALUES (:PMT_FK, :PMT_Type, :PMT_Rank, :PMT_Price, :PMT_Description,
                        :PMT_Notes, :PMT_Payplan, :PMT_Registered, :PMT_Completed)`
	res, err := s.db.NamedExecContext(ctx, q, p)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	p.ID = id
	return id, nil
}

// LatestCompleted implements PaymentStore.
func (s *SQLPaymentStore) LatestCompleted(ctx context.Context, ckey int64) (*Payment, error) {
	q := `SELECT ` + paymentCols + ` FROM p4_payment
                WHERE PMT_FK = ? AND PMT_Type = ? AND PMT_Completed IS NOT NULL
                ORDER BY PMT_Completed DESC LIMIT 1`
	var p Payment
	err := s.db.GetContext(ctx, &p, q, ckey, paymentType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SQLPriceTable reads rank prices from `rank_price`, caching rows.
type SQLPriceTable struct {
	db  *sqlx.DB
	lru *cache.LRU
}

// NewSQLPriceTable wraps an open pool.
func NewSQLPriceTable(db *sqlx.DB) *SQLPriceTable {
	return &SQLPriceTable{db: db, lru: cache.New(64)}
}

// PriceForRank implements PriceTable.  Unknown ranks are an error; rank
// zero is always free.
func (t *SQLPriceTable) PriceForRank(ctx context.Context, rank float64) (float64, error) {
	if rank == 0 {
		return 0, nil
	}
	if v, ok := t.lru.Get(rank); ok {
		return v.(float64), nil
	}
	const q = `SELECT price FROM rank_price WHERE ` + "`rank`" + ` = ?`
	var price float64
	err := t.db.GetContext(ctx, &price, q, rank)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("payment: no price for rank %.1f", rank)
	}
	if err != nil {
		return 0, err
	}
	t.lru.Add(rank, price)
	return price, nil
}

// Forget drops a cached rank price, for use after a price change.
func (t *SQLPriceTable) Forget(rank float64) { t.lru.Remove(rank) }
