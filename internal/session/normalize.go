package session

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// diacriticStripper decomposes to NFD, drops combining marks, and recomposes,
// so "Hôkage" and "Hokage" normalize to the same bytes.
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeAnswer canonicalizes free-text input for comparison: lowercase,
// diacritics stripped, punctuation removed, runs of whitespace collapsed to a
// single space, leading and trailing space trimmed.
func NormalizeAnswer(s string) string {
	stripped, _, err := transform.String(diacriticStripper, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	space := false
	for _, r := range stripped {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// dropped entirely, no space inserted
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// AnswerMatches reports whether the submitted free-text answer matches the
// canonical answer or any accepted variant. An input that normalizes to the
// empty string never matches, even if a variant is itself empty.
func AnswerMatches(submitted, canonical string, accepted []string) bool {
	normalized := NormalizeAnswer(submitted)
	if normalized == "" {
		return false
	}
	if normalized == NormalizeAnswer(canonical) {
		return true
	}
	for _, variant := range accepted {
		if normalized == NormalizeAnswer(variant) {
			return true
		}
	}
	return false
}
