// internal/listing/sql.go
//
// MySQL implementation of the listing Store.
//
// Workflow
// --------
//   - Row reads use GetContext/SelectContext with `db:"col"` tags on the
//     Listing model; the column list below must stay in sync with
//     model.go.
//   - Save switches on CKey: zero inserts and backfills the new key,
//     non-zero updates in place.  MySQL error 1062 (duplicate entry) maps
//     to ErrDuplicate so the lifecycle can re-run permalink resolution.
//   - Association setters are delete-then-insert against the join tables,
//     filtered to IDs that exist so a bad request cannot plant orphans.
//
// Notes
// -----
//   - The DSN must carry parseTime=true for the `expires` DATE scan.
//   - Oxford commas, two spaces after periods.

package listing

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// listingCols is every persisted column, in schema order, minus ckey.
const listingCols = `fkcustomerid, storename, storenumber, ad_title, description,
        email, website2, status,
        address, address2, city, county, stateprov, country, postalcode,
        highway, highway_exit,
        phone, phone_normalized, tollfree, tollfree_normalized,
        cellphone, cellphone_normalized, fax, fax_normalized,
        permalink, ` + "`rank`" + `, expires,
        latitude, longitude, map_accuracy, geocode_source,
        image1, image2, image3, sbanner_file,
        is24hour, has_shop, provides_mobile_service, permit_duplicatephone,
        show_free_in_all_services, preferred_service, payment_policy,
        slink_facebook, slink_twitter, slink_instagram`

// SQLStore implements Store against MySQL.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open pool.
func NewSQLStore(db *sqlx.DB) *SQLStore { return &SQLStore{db: db} }

// ByID implements Store.
func (s *SQLStore) ByID(ctx context.Context, ckey int64) (*Listing, error) {
	const q = `SELECT ckey, ` + listingCols + ` FROM listing WHERE ckey = ? LIMIT 1`
	var l Listing
	if err := s.db.GetContext(ctx, &l, q, ckey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// ByPermalink implements Store.
func (s *SQLStore) ByPermalink(ctx context.Context, permalink string) (*Listing, error) {
	const q = `SELECT ckey, ` + listingCols + ` FROM listing WHERE permalink = ? LIMIT 1`
	var l Listing
	if err := s.db.GetContext(ctx, &l, q, permalink); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// PermalinkExists implements Store.
func (s *SQLStore) PermalinkExists(ctx context.Context, permalink string, excluding int64) (bool, error) {
	const q = `SELECT 1 FROM listing WHERE permalink = ? AND ckey != ? LIMIT 1`
	var one int
	err := s.db.GetContext(ctx, &one, q, permalink, excluding)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Save implements Store.
func (s *SQLStore) Save(ctx context.Context, l *Listing) error {
	if l.CKey == 0 {
		return s.insert(ctx, l)
	}
	return s.update(ctx, l)
}

func (s *SQLStore) insert(ctx context.Context, l *Listing) error {
	q := `INSERT INTO listing (` + listingCols + `) VALUES (` + namedList(listingCols) + `)`
	res, err := s.db.NamedExecContext(ctx, q, l)
	if err != nil {
		return mapDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.CKey = id
	return nil
}

func (s *SQLStore) update(ctx context.Context, l *Listing) error {
	q := `UPDATE listing SET ` + assignList(listingCols) + ` WHERE ckey = :ckey`
	_, err := s.db.NamedExecContext(ctx, q, l)
	return mapDuplicate(err)
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, ckey int64) error {
	const q = `DELETE FROM listing WHERE ckey = ?`
	res, err := s.db.ExecContext(ctx, q, ckey)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ServiceIDs implements Store.
func (s *SQLStore) ServiceIDs(ctx context.Context, ckey int64) ([]int64, error) {
	const q = `SELECT idSVC FROM provides_service WHERE ckey = ? ORDER BY idSVC`
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, q, ckey); err != nil {
		return nil, err
	}
	return ids, nil
}

// PaymentMethodIDs implements Store.
func (s *SQLStore) PaymentMethodIDs(ctx context.Context, ckey int64) ([]int64, error) {
	const q = `SELECT idPM FROM p4_accepts_method WHERE ckey = ? ORDER BY idPM`
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, q, ckey); err != nil {
		return nil, err
	}
	return ids, nil
}

// BrandPairs implements Store.
func (s *SQLStore) BrandPairs(ctx context.Context, ckey int64) ([]BrandPair, error) {
	const q = `SELECT sb.idEB AS idEB, sb.idSVC AS idSVC
                 FROM service_brand sb
                 JOIN provides_service ps ON ps.idSVC = sb.idSVC AND ps.ckey = sb.ckey
                WHERE sb.ckey = ?
                ORDER BY sb.idSVC, sb.idEB`
	rows := make([]struct {
		BrandID   int64 `db:"idEB"`
		ServiceID int64 `db:"idSVC"`
	}, 0, 8)
	if err := s.db.SelectContext(ctx, &rows, q, ckey); err != nil {
		return nil, err
	}
	pairs := make([]BrandPair, len(rows))
	for i, r := range rows {
		pairs[i] = BrandPair{BrandID: r.BrandID, ServiceID: r.ServiceID}
	}
	return pairs, nil
}

// SetServices implements Store.
func (s *SQLStore) SetServices(ctx context.Context, ckey int64, serviceIDs []int64) error {
	valid, err := s.filterExisting(ctx, `SELECT idSVC FROM service WHERE idSVC IN (?)`, serviceIDs)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM provides_service WHERE ckey = ?`, ckey); err != nil {
		return err
	}
	for _, id := range valid {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO provides_service (ckey, idSVC) VALUES (?, ?)`, ckey, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetServiceBrands implements Store.
func (s *SQLStore) SetServiceBrands(ctx context.Context, ckey, serviceID int64, brandIDs []int64) error {
	valid, err := s.filterExisting(ctx, `SELECT idEB FROM equipment_brand WHERE idEB IN (?)`, brandIDs)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM service_brand WHERE ckey = ? AND idSVC = ?`, ckey, serviceID); err != nil {
		return err
	}
	for _, id := range valid {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO service_brand (ckey, idSVC, idEB) VALUES (?, ?, ?)`,
			ckey, serviceID, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AddPaymentMethod implements Store.
func (s *SQLStore) AddPaymentMethod(ctx context.Context, ckey, methodID int64) error {
	const q = `INSERT IGNORE INTO p4_accepts_method (ckey, idPM) VALUES (?, ?)`
	_, err := s.db.ExecContext(ctx, q, ckey, methodID)
	return err
}

// DeletePreferenceLinks implements Store.
func (s *SQLStore) DeletePreferenceLinks(ctx context.Context, ckey int64) error {
	const q = `DELETE FROM p4_preferred WHERE listing_ckey = ?`
	_, err := s.db.ExecContext(ctx, q, ckey)
	return err
}

// DeleteNotes implements Store.
func (s *SQLStore) DeleteNotes(ctx context.Context, ckey int64) error {
	const q = `DELETE FROM p4_note WHERE listing_id = ?`
	_, err := s.db.ExecContext(ctx, q, ckey)
	return err
}

// filterExisting runs an IN query and returns only the IDs that exist.
// An empty input short-circuits to nil without touching the database.
func (s *SQLStore) filterExisting(ctx context.Context, q string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	expanded, args, err := sqlx.In(q, ids)
	if err != nil {
		return nil, err
	}
	var valid []int64
	if err := s.db.SelectContext(ctx, &valid, s.db.Rebind(expanded), args...); err != nil {
		return nil, err
	}
	return valid, nil
}

// mapDuplicate converts MySQL duplicate-entry rejections to ErrDuplicate.
func mapDuplicate(err error) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return ErrDuplicate
	}
	return err
}

// namedList turns the column list into `:col, :col, …` for INSERT.
func namedList(cols string) string {
	names := splitCols(cols)
	for i, c := range names {
		names[i] = ":" + c
	}
	return strings.Join(names, ", ")
}

// assignList turns the column list into `col = :col, …` for UPDATE.
func assignList(cols string) string {
	names := splitCols(cols)
	out := make([]string, len(names))
	for i, c := range names {
		if c == "rank" {
			out[i] = "`rank` = :rank"
			continue
		}
		out[i] = c + " = :" + c
	}
	return strings.Join(out, ", ")
}

func splitCols(cols string) []string {
	parts := strings.Split(cols, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.Trim(strings.TrimSpace(p), "`")
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
