package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName produces the merchant dedup key: accents folded, lowercase,
// punctuation stripped, whitespace collapsed. It is idempotent.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}
	s := foldAccents(name)
	s = cases.Lower(language.Und).String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return collapseSpaces(b.String())
}

// NormalizeProductName lowercases and collapses whitespace. Punctuation is kept
// because sizes and codes ("2% milk", "1.5l") carry meaning.
func NormalizeProductName(name string) string {
	if name == "" {
		return ""
	}
	return collapseSpaces(cases.Lower(language.Und).String(name))
}

// foldAccents decomposes and drops combining marks (é -> e).
func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
