package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeQuery prepares a title for indexer matching: accents are
// stripped and whitespace runs collapse to single spaces.
func NormalizeQuery(s string) string {
	if stripped, _, err := transform.String(stripper, s); err == nil {
		s = stripped
	}
	return strings.Join(strings.Fields(s), " ")
}
