// internal/listing/permalink.go
//
// Canonical-permalink validation, generation, and collision resolution.
//
// Context
// -------
// Every listing owns a globally unique path shaped
//
//	/<city-state-slug>/provider/<store-slug>[-<n>]
//
// The save pipeline regenerates the permalink whenever the stored value
// fails the shape check (including the empty string).  Collisions resolve
// by a counter suffix: the first clash appends "-1", each later clash
// increments the trailing hyphen segment.  The loop converges because the
// counter strictly increases and the uniqueness check excludes the
// listing's own ckey.
//
// Before a fresh permalink is persisted, every stored "merged_permalink"
// meta entry holding the same value is deleted — anywhere in the system —
// so a previously redirected path cannot shadow its new owner.
//
// Notes
// -----
//   - All-empty city, state, and store name degrade to empty slugs, not
//     errors; "//provider/" is ugly but legal and is covered by tests.
//   - The 350-character cap truncates the raw path without re-slugging.

package listing

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yanizio/waypost/internal/address"
	"github.com/yanizio/waypost/internal/metrics"
	"github.com/yanizio/waypost/internal/slug"
)

// permalinkMaxLen is the hard cap on a stored permalink.
const permalinkMaxLen = 350

var permalinkShape = regexp.MustCompile(`^/([^/]+)/provider/([^/]+)$`)

// IsPermalink reports whether str matches the canonical two-segment
// shape.  Empty strings fail.
func IsPermalink(str string) bool {
	return str != "" && permalinkShape.MatchString(str)
}

// generatePermalink builds and uniquifies the canonical path for l,
// falling back to the owning account's organization name when the store
// name is empty.
func (m *Manager) generatePermalink(ctx context.Context, l *Listing) (string, error) {
	state := strings.ToLower(address.StateName(l.StateProv))
	cityState := slug.Make(l.City + "-" + state)

	name := l.StoreName
	if name == "" {
		org, err := m.accounts.OrganizationFor(ctx, l.CustomerID)
		if err != nil {
			return "", fmt.Errorf("permalink: organization fallback: %w", err)
		}
		name = org
	}

	permalink := "/" + cityState + "/provider/" + slug.Make(name)
	if len(permalink) > permalinkMaxLen {
		permalink = permalink[:permalinkMaxLen]
	}

	n := 0
	for {
		taken, err := m.store.PermalinkExists(ctx, permalink, l.CKey)
		if err != nil {
			return "", fmt.Errorf("permalink: uniqueness check: %w", err)
		}
		if !taken {
			return permalink, nil
		}

		metrics.PermalinkCollisionsTotal.Inc()
		if n == 0 {
			permalink += "-1"
			n = 1
		} else {
			permalink = bumpSuffix(permalink)
		}
	}
}

// bumpSuffix increments the trailing hyphen-delimited counter of s.  The
// caller guarantees a numeric tail because the first collision always
// appends "-1".
func bumpSuffix(s string) string {
	i := strings.LastIndexByte(s, '-')
	if i < 0 {
		return s + "-1"
	}
	n, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return s + "-1"
	}
	return s[:i+1] + strconv.Itoa(n+1)
}
