// Package slug turns display titles into URL-safe identifiers.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ has no canonical decomposition, so NFD alone would drop it.
var foldVietnamese = strings.NewReplacer("đ", "d")

// Make lowercases title, strips diacritics, drops everything but ASCII
// letters, digits, whitespace and hyphens, then joins whitespace runs with "-".
//
//	Make("Hoa Hồng Đỏ!") == "hoa-hong-do"
func Make(title string) string {
	s := foldVietnamese.Replace(strings.ToLower(title))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Trim(strings.Join(strings.Fields(b.String()), "-"), "-")
}

// Find returns the first item whose title slugifies to s.
// Titles that collide are not told apart; the earliest one wins.
func Find[T any](items []T, s string, title func(T) string) (T, bool) {
	for _, it := range items {
		if Make(title(it)) == s {
			return it, true
		}
	}
	var zero T
	return zero, false
}
