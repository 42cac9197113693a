// internal/listing/images.go
//
// Collision-avoidant image naming and storage.
//
// Context
// -------
// A listing carries up to three images.  Each upload gets a
// content-describing filename:
//
//	<store+city,state slug>-<root>-<hash8>.<ext>
//
// where <root> depends on the slot and on whether the provider is
// mobile-only (slot 2 is "storefront" or "service-vehicle", slot 3 is
// "workshop" or "in-action", slot 1 is always "store-logo").  The hash
// folds the original filename with the current nanosecond clock; it
// exists purely to bust client-side caches when a new file replaces an
// old one, so a low collision probability is acceptable — actual
// uniqueness comes from the write loop below.
//
// Writes go through blob.Store.PutIfAbsent.  A name collision appends
// "-1" on the first retry and increments the trailing counter on each
// later retry, exactly mirroring the permalink algorithm.  After a
// successful write the superseded blob for that slot is deleted
// best-effort.
//
// SetImages updates the slots in memory only; the caller must still run
// the save pipeline to persist the new filenames.

package listing

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/yanizio/waypost/internal/metrics"
	"github.com/yanizio/waypost/internal/slug"
)

// imageDir is the blob prefix for listing images; bannerDir holds search
// banners, purged alongside images on delete.
const (
	imageDir  = "listing-images"
	bannerDir = "searchbanners"
)

// Upload is one image file handed to SetImages.
type Upload struct {
	OriginalName string    // client-side filename, folded into the hash
	Ext          string    // extension without the dot, e.g. "jpg"
	Content      io.Reader // file bytes
}

// fileNameBase derives the content-describing root for one slot.
func (m *Manager) fileNameBase(ctx context.Context, l *Listing, slot int, originalName string) (string, error) {
	sum := sha1.Sum([]byte(originalName + strconv.FormatInt(m.now().UnixNano(), 10)))
	hash8 := hex.EncodeToString(sum[:])[:8]

	var root string
	switch {
	case slot == 2 && l.IsMobileOnly():
		root = "service-vehicle"
	case slot == 2:
		root = "storefront"
	case slot == 3 && l.IsMobileOnly():
		root = "in-action"
	case slot == 3:
		root = "workshop"
	default:
		root = "store-logo"
	}

	name := l.StoreName
	if name == "" {
		org, err := m.accounts.OrganizationFor(ctx, l.CustomerID)
		if err != nil {
			return "", fmt.Errorf("images: organization fallback: %w", err)
		}
		name = org
	}
	name += " " + l.City + ", " + l.StateProv
	if len(name) > 80 {
		name = name[:80]
	}

	return slug.Make(name) + "-" + root + "-" + hash8, nil
}

// SetImages writes each supplied upload under a collision-free name and
// points the matching slot at it.  Superseded blobs are deleted
// best-effort.  The number of slots actually replaced is returned; the
// caller must still Save the listing to persist the filenames.
func (m *Manager) SetImages(ctx context.Context, l *Listing, uploads map[int]Upload) (int, error) {
	saved := 0
	for _, slot := range []int{1, 2, 3} {
		up, ok := uploads[slot]
		if !ok {
			continue
		}

		base, err := m.fileNameBase(ctx, l, slot, up.OriginalName)
		if err != nil {
			return saved, err
		}

		full, err := m.writeWithSuffixes(base, up.Ext, up.Content)
		if err != nil {
			return saved, err
		}

		old := *imageSlot(l, slot)
		*imageSlot(l, slot) = full
		if old != "" && old != full {
			if err := m.blobs.Delete(imageDir + "/" + old); err != nil {
				m.log.Warnw("superseded image delete failed", "blob", old, "err", err)
			}
		}
		saved++
	}
	return saved, nil
}

// writeWithSuffixes loops PutIfAbsent until a free name is found,
// applying the shared suffix algorithm to the base name (never the
// extension).
func (m *Manager) writeWithSuffixes(base, ext string, content io.Reader) (string, error) {
	name := base
	n := 0
	for {
		full := name + "." + ext
		ok, err := m.blobs.PutIfAbsent(imageDir+"/"+full, content)
		if err != nil {
			return "", fmt.Errorf("images: write %q: %w", full, err)
		}
		if ok {
			metrics.ImageWritesTotal.Inc()
			return full, nil
		}

		metrics.ImageNameCollisionsTotal.Inc()
		if n == 0 {
			name += "-1"
			n = 1
		} else {
			name = bumpSuffix(name)
		}
	}
}

// imageSlot maps a slot number to its field.
func imageSlot(l *Listing, slot int) *string {
	switch slot {
	case 2:
		return &l.Image2
	case 3:
		return &l.Image3
	default:
		return &l.Image1
	}
}

// purgeMedia removes every blob for a deleted listing.  Failures are
// logged and swallowed; losing an orphaned blob is cheaper than failing
// the delete pipeline.
func (m *Manager) purgeMedia(l *Listing) {
	for _, img := range []string{l.Image1, l.Image2, l.Image3} {
		if img == "" {
			continue
		}
		if err := m.blobs.Delete(imageDir + "/" + img); err != nil {
			m.log.Warnw("image purge failed", "blob", img, "err", err)
		}
	}
	if l.BannerFile != "" {
		if err := m.blobs.Delete(bannerDir + "/" + l.BannerFile); err != nil {
			m.log.Warnw("banner purge failed", "blob", l.BannerFile, "err", err)
		}
	}
}

// timeNow is the default clock; tests override Manager.now.
func timeNow() time.Time { return time.Now() }
