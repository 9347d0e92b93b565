package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName lowercases a person or title name and strips accents so
// "Penélope Cruz" and "penelope cruz" compare equal.
func NormalizeName(name string) string {
	lowered := strings.ToLower(name)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, lowered)
	if err != nil {
		return strings.TrimSpace(lowered)
	}

	return strings.TrimSpace(stripped)
}
