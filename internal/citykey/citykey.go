// Package citykey builds the lookup key shared by every city-keyed reference table.
package citykey

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds case, strips diacritics and collapses whitespace so that
// "Bogotá", "BOGOTA" and " bogota " share one key.
func Normalize(name string) string {
	// transform.Chain is stateful; build a fresh one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}
	return strings.Join(strings.Fields(cases.Fold().String(stripped)), " ")
}
