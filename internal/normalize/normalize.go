// Package normalize holds the text rules for label names and slugs.
// Every function here is pure and safe for concurrent use.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// folder is stateless; cases.Fold is documented as safe for concurrent use.
var folder = cases.Fold()

// Normalize returns the full Unicode case folding of text, lowercased.
//
// Folding is not byte-wise ASCII lowering: "CAFÉ" becomes "café", "ΣΟΦΙΑ"
// becomes "σοφια" and "Straße" becomes "strasse". Case folding maps Cherokee
// to its capital letters while lowercasing maps it back, so folding alone
// flips "Ꭰ" and "ꭰ" forever; lowering the folded text settles every script on
// one form. The result is a fixed point, Normalize(Normalize(s)) ==
// Normalize(s) for every s, and "" maps to "".
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	return strings.ToLower(folder.String(text))
}

// IsNormalized reports whether text is already in folded form.
func IsNormalized(text string) bool {
	return Normalize(text) == text
}

// Slug derives the URL-safe identifier for a label name.
//
// The name is folded, combining marks are stripped ("café" -> "cafe"), and
// every run of characters that is not a letter or digit becomes one dash.
// Letters from non-Latin scripts are kept. Leading and trailing dashes are
// trimmed, so a name made only of punctuation yields "".
func Slug(name string) string {
	folded := Normalize(strings.TrimSpace(name))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, folded)
	if err != nil {
		stripped = folded
	}

	var b strings.Builder
	b.Grow(len(stripped))
	dash := false
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
