// internal/meta/meta.go
//
// Listing key/value metadata store.
//
// Context
// -------
// Every listing can carry arbitrary string annotations in the
// `listing_meta` table: redirect bookkeeping ("merged_permalink"), admin
// flags ("needs_attention"), and anything future features bolt on without
// a schema change.  The lifecycle pipeline consumes this store for the
// merged-permalink cleanup and the needs-attention flag, and snapshots the
// whole map into every audit record.
//
// Schema reference
//
//	CREATE TABLE listing_meta (
//	    id         BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
//	    ckey       BIGINT UNSIGNED NOT NULL,
//	    meta_key   VARCHAR(128)    NOT NULL,
//	    meta_value TEXT            NOT NULL,
//	    KEY idx_ckey_key (ckey, meta_key),
//	    KEY idx_key_value (meta_key, meta_value(191))
//	);
//
// Notes
// -----
//   - Keys are case-sensitive.  Duplicate (ckey, key) rows are allowed;
//     All folds them last-wins in insertion order.
//   - Oxford commas, two spaces after periods.

package meta

import "context"

// Store is the metadata contract the listing core depends on.
type Store interface {
	// All returns every key/value pair for one listing as a map.
	All(ctx context.Context, ckey int64) (map[string]string, error)

	// Add inserts one key/value row for a listing.
	Add(ctx context.Context, ckey int64, key, value string) error

	// Delete removes rows for a listing matching key, and value when
	// value is non-empty.
	Delete(ctx context.Context, ckey int64, key, value string) error

	// DeleteValueEverywhere removes rows matching key AND value across
	// ALL listings.  The permalink allocator uses it so a previously
	// merged permalink cannot shadow a freshly allocated one.
	DeleteValueEverywhere(ctx context.Context, key, value string) error

	// DeleteAll purges every row for a listing (delete pipeline).
	DeleteAll(ctx context.Context, ckey int64) error
}
