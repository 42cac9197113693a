// internal/meta/sql.go
//
// sqlx-backed implementation of the metadata Store.
//
// Workflow
// --------
//  1. Callers supply a *sqlx.DB connected to the directory database.
//  2. Each method executes exactly one parameterised statement.
//  3. Errors are returned verbatim so the caller can wrap or log them
//     using the project logger.
//
// Notes
// -----
//   - Column list matches the schema in meta.go; update both together.
//   - Oxford commas, two spaces after periods, no m-dash.

package meta

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQL implements Store against the `listing_meta` table.
type SQL struct {
	db *sqlx.DB
}

// NewSQL wraps an open pool.
func NewSQL(db *sqlx.DB) *SQL { return &SQL{db: db} }

// All implements Store.
func (s *SQL) All(ctx context.Context, ckey int64) (map[string]string, error) {
	const q = `
	    SELECT  meta_key, meta_value
	    FROM    listing_meta
	    WHERE   ckey = ?
	    ORDER BY id`

	rows := make([]struct {
		Key   string `db:"meta_key"`
		Value string `db:"meta_value"`
	}, 0, 8)

	if err := s.db.SelectContext(ctx, &rows, q, ckey); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// Add implements Store.
func (s *SQL) Add(ctx context.Context, ckey int64, key, value string) error {
	const q = `
	    INSERT INTO listing_meta (ckey, meta_key, meta_value)
	    VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, ckey, key, value)
	return err
}

// Delete implements Store.
func (s *SQL) Delete(ctx context.Context, ckey int64, key, value string) error {
	if value == "" {
		const q = `DELETE FROM listing_meta WHERE ckey = ? AND meta_key = ?`
		_, err := s.db.ExecContext(ctx, q, ckey, key)
		return err
	}
	const q = `DELETE FROM listing_meta WHERE ckey = ? AND meta_key = ? AND meta_value = ?`
	_, err := s.db.ExecContext(ctx, q, ckey, key, value)
	return err
}

// DeleteValueEverywhere implements Store.
func (s *SQL) DeleteValueEverywhere(ctx context.Context, key, value string) error {
	const q = `DELETE FROM listing_meta WHERE meta_key = ? AND meta_value = ?`
	_, err := s.db.ExecContext(ctx, q, key, value)
	return err
}

// DeleteAll implements Store.
func (s *SQL) DeleteAll(ctx context.Context, ckey int64) error {
	const q = `DELETE FROM listing_meta WHERE ckey = ?`
	_, err := s.db.ExecContext(ctx, q, ckey)
	return err
}
