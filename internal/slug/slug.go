// internal/slug/slug.go
//
// URL slug helper for permalinks and image filenames.
//
// • Make(text) ─ converts arbitrary text into a URL-safe slug restricted
//   to ASCII a-z, 0-9 and “-” (the directory is English-only).
//
// Rules (Make)
// ------------
// 1. Lower-case everything.
// 2. Convert any run of non-[a-z0-9] characters to one “-”.  That strips
//    spaces, punctuation, emoji, and non-ASCII.
// 3. Collapse consecutive “-” to a single “-”.
// 4. Trim leading / trailing “-”.
//
// Notes
// -----
// • No Unicode transliteration; accented input degrades to hyphens.
// • An all-punctuation input yields the empty string.  Permalink and
//   image-name builders accept the empty segment rather than erroring, so
//   there is no placeholder fallback here.
// • Length limits are the caller's concern: the permalink allocator caps
//   the whole path at 350 characters, the image namer trims its input to
//   80 characters before slugging.

package slug

import "strings"

// Make converts text → lower-kebab ASCII.
func Make(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastWasDash := false
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			// any non-ASCII or punctuation becomes a single dash
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
