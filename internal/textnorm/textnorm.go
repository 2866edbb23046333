// Package textnorm reduces free text to the canonical form used for matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds case, drops everything except letters, digits, whitespace
// and hyphens, and collapses whitespace runs to a single space.
// Diacritics survive: "Timișoara" becomes "timișoara", not "timisoara".
//
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	folded := norm.NFC.String(Fold(norm.NFC.String(s)))

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-':
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Fold applies locale-independent full case folding.
// A cases.Caser carries state, so each call gets its own.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Tokens splits normalized text into its set of words. Hyphens separate words
// too, so "cluj-napoca" yields {cluj, napoca}.
func Tokens(normalized string) map[string]struct{} {
	fields := strings.FieldsFunc(normalized, isTokenSeparator)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// TokenList is Tokens in order of appearance, duplicates included.
func TokenList(normalized string) []string {
	return strings.FieldsFunc(normalized, isTokenSeparator)
}

// ContainsFold reports whether needle occurs in haystack ignoring case only.
// Punctuation and spacing are compared as-is.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}

func isTokenSeparator(r rune) bool {
	return r == '-' || unicode.IsSpace(r)
}
