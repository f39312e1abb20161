// Package slug derives URL path segments from display names.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength caps generated slugs; longer names are cut at a word boundary
const MaxLength = 200

// Make returns a lowercase ASCII slug: accents are folded, "&" becomes "and",
// and every run of other characters collapses to a single hyphen.
func Make(s string) string {
	folded := fold(s)
	folded = strings.ReplaceAll(folded, "&", " and ")

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		// apostrophes join words: "O'Brien" -> "obrien"
		if r == '\'' || r == '’' {
			continue
		}
		pendingDash = true
	}

	out := b.String()
	if len(out) > MaxLength {
		out = out[:MaxLength]
		if i := strings.LastIndexByte(out, '-'); i > 0 {
			out = out[:i]
		}
	}
	return out
}

// WithSuffix appends a numeric suffix used to disambiguate colliding slugs
func WithSuffix(base string, n int) string {
	if n <= 1 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// Unique returns the first of base, base-2, base-3 ... for which taken reports false
func Unique(base string, taken func(string) (bool, error)) (string, error) {
	for n := 1; ; n++ {
		candidate := WithSuffix(base, n)
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
}

func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
