// Package normalize reduces legacy names to canonical matching form and
// builds the composite lookup keys used for entity reconciliation.
//
// Legacy exports are full of accents, stray punctuation, and
// inconsistent casing; two records describe the same fighter only after
// both sides pass through the same normalization. Every function here
// is total: malformed input degrades to the empty string, never an
// error, so a bad row costs one match rather than the run.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes characters and removes combining marks, so
// "José" and "Jose" fold to the same form.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Name normalizes a raw name for matching: accents stripped,
// punctuation dropped, lowercased, internal whitespace collapsed,
// trimmed. Idempotent: Name(Name(x)) == Name(x).
func Name(raw string) string {
	folded, _, err := transform.String(stripMarks, raw)
	if err != nil {
		// Invalid UTF-8 or transform failure: fall back to the raw
		// bytes and let the rune filter below drop what it can't use.
		folded = raw
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			pendingSpace = true
		}
		// Everything else (punctuation, symbols) is dropped without
		// introducing a word break: "O'Brien" -> "obrien".
	}
	return b.String()
}
