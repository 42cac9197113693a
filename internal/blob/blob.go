// internal/blob/blob.go
//
// Blob-storage contract for listing media.
//
// Context
// -------
// Listing images and search banners live outside the database.  The
// lifecycle core needs exactly two operations: an existence-checking
// write, and a best-effort delete.  PutIfAbsent reporting false is the
// collision signal that drives the image namer's suffix-retry loop.
//
// Notes
// -----
// • Deletes of superseded blobs are fire-and-forget; callers log a warn
//   on failure and continue.  A failed delete never fails a mutation.
// • Paths are forward-slash relative keys, e.g.
//   "listing-images/acme-repair-dayton-oh-store-logo-1a2b3c4d.jpg".

package blob

import "io"

// Store is the minimal surface the listing core needs.
type Store interface {
	// PutIfAbsent writes the blob only when path is unoccupied.  It
	// returns (false, nil) when the name is already taken, (true, nil)
	// on a successful write, and a non-nil error for real I/O failures.
	// A collision must be reported without consuming the reader, so the
	// caller can retry the same content under a suffixed name.
	PutIfAbsent(path string, r io.Reader) (bool, error)

	// Delete removes a blob.  Missing blobs are not an error.
	Delete(path string) error
}
