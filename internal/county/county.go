// Package county normalizes county names for lookups and identifiers.
package county

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes a county name for lookups: accents are stripped,
// case is folded and whitespace runs collapse to a single space.
// "  Miami-Dade " and "MIAMI-DADE" fold to the same key, as do "Doña Ana"
// and "dona ana".
func Fold(name string) string {
	// Transformers carry state; build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	folded := cases.Fold().String(stripped)
	return strings.Join(strings.Fields(folded), " ")
}

// Code returns the upper-cased alphanumeric form of a county name,
// used as the synthetic parcel ID prefix ("St. Lucie" → "STLUCIE").
func Code(name string) string {
	upper := cases.Upper(language.Und).String(Fold(name))
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
