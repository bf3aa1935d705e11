// Package slug turns a username into the public routing key used in share
// links such as /u/{slug}.
package slug

import (
	"strings"
	"unicode"
)

// MaxLength is the longest slug Derive will produce.
const MaxLength = 30

// Derive lowercases username, drops whitespace and every rune outside
// [a-z0-9], then truncates to MaxLength.
//
// The output only contains ASCII letters and digits, so Derive is
// idempotent: Derive(Derive(x)) == Derive(x). Uniqueness is not checked
// here; the users table carries a UNIQUE constraint on slug.
func Derive(username string) string {
	var b strings.Builder
	b.Grow(min(len(username), MaxLength))

	for _, r := range strings.ToLower(username) {
		if unicode.IsSpace(r) {
			continue
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == MaxLength {
				break
			}
		}
	}

	return b.String()
}
