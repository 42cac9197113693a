// internal/blob/disk.go
//
// Local-filesystem blob store.
//
// Context
// -------
// Production serves media from a plain directory behind the web tier, so
// the disk store is the canonical implementation.  O_EXCL gives us the
// atomic existence check PutIfAbsent promises: two concurrent writers
// racing the same name see exactly one succeed, and the loser walks the
// suffix loop.
//
// Notes
// -----
// • Keys are cleaned and confined to the root; ".." escapes are rejected.
// • Parent directories are created on demand (keys carry one level of
//   prefix, e.g. "listing-images/…").

package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Disk stores blobs under a root directory.
type Disk struct {
	root string
}

// NewDisk returns a Disk rooted at dir, creating it if needed.
func NewDisk(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root: %w", err)
	}
	return &Disk{root: dir}, nil
}

// PutIfAbsent implements Store.
func (d *Disk) PutIfAbsent(key string, r io.Reader) (bool, error) {
	full, err := d.resolve(key)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return false, fmt.Errorf("blob: mkdir for %q: %w", key, err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil // name collision, caller retries with a suffix
	}
	if err != nil {
		return false, fmt.Errorf("blob: open %q: %w", key, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full) // do not leave a truncated blob claiming the name
		return false, fmt.Errorf("blob: write %q: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("blob: close %q: %w", key, err)
	}
	return true, nil
}

// Delete implements Store.  Deleting a missing blob is a no-op.
func (d *Disk) Delete(key string) error {
	full, err := d.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("blob: delete %q: %w", key, err)
	}
	return nil
}

// resolve maps a forward-slash key to an absolute path inside root.
func (d *Disk) resolve(key string) (string, error) {
	clean := path.Clean("/" + key) // collapses any ".." inside the key
	if clean == "/" || strings.Contains(clean, "..") {
		return "", fmt.Errorf("blob: invalid key %q", key)
	}
	return filepath.Join(d.root, filepath.FromSlash(clean)), nil
}
