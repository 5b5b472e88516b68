// Package normalize canonicalizes scraped text by stripping diacritics.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// newStripper returns a transformer applying NFKD decomposition followed by
// removal of every combining mark (nonspacing, spacing and enclosing).
// Transformers carry state, so one is built per call.
func newStripper() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.M)))
}

// Text decomposes s and removes every combining mark, yielding an
// ASCII-compatible approximation ("Présentation" -> "Presentation").
// The result is stable under re-application.
func Text(s string) string {
	if s == "" {
		return s
	}
	out, _, err := transform.String(newStripper(), s)
	if err != nil {
		return s
	}
	return out
}

// Key folds a column name to a comparison key: normalized, trimmed, lowercased.
func Key(s string) string {
	return strings.ToLower(strings.TrimSpace(Text(s)))
}

// Strings normalizes each element of ss into a new slice.
func Strings(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = Text(s)
	}
	return out
}
