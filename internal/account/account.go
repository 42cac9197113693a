// internal/account/account.go
//
// Provider-account lookups.
//
// Context
// -------
// Every listing belongs to a provider account (`fkcustomerid`).  The
// lifecycle core touches accounts in exactly one place: when a listing has
// no store name, the permalink allocator and the image namer fall back to
// the owning account's organization name.  This package keeps that lookup
// thin — one row model, one query helper — in the shape the rest of the
// repository uses for SQL access.
//
// Schema reference
//
//	CREATE TABLE provider_account (
//	    customerid   BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    organization VARCHAR(256) NOT NULL DEFAULT '',
//	    email        VARCHAR(256) NOT NULL DEFAULT '',
//	    phone        VARCHAR(64)  NOT NULL DEFAULT '',
//	    fax          VARCHAR(64)  NOT NULL DEFAULT '',
//	    created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
//	    updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
//	);

package account

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Record mirrors one row in the `provider_account` table.
type Record struct {
	CustomerID   int64     `db:"customerid"`
	Organization string    `db:"organization"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	Fax          string    `db:"fax"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Lookup is the narrow contract the listing core depends on.
type Lookup interface {
	// OrganizationFor returns the organization name of an account, or ""
	// when the account does not exist.
	OrganizationFor(ctx context.Context, customerID int64) (string, error)
}

// SQL implements Lookup against MySQL.
type SQL struct {
	db *sqlx.DB
}

// NewSQL wraps an open pool.
func NewSQL(db *sqlx.DB) *SQL { return &SQL{db: db} }

// ByCustomerID fetches a single account row.  The caller supplies a
// context so the lookup respects request deadlines.
func (s *SQL) ByCustomerID(ctx context.Context, customerID int64) (*Record, error) {
	const q = `
        SELECT customerid, organization, email, phone, fax,
               created_at, updated_at
        FROM   provider_account
        WHERE  customerid = ?
        LIMIT  1`
	var rec Record
	if err := s.db.GetContext(ctx, &rec, q, customerID); err != nil {
		return nil, err
	}
	return &rec, nil
}

// OrganizationFor implements Lookup.  A missing account is not an error;
// the permalink fallback simply degrades to an empty segment.
func (s *SQL) OrganizationFor(ctx context.Context, customerID int64) (string, error) {
	const q = `SELECT organization FROM provider_account WHERE customerid = ? LIMIT 1`
	var org string
	err := s.db.GetContext(ctx, &org, q, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return org, nil
}
