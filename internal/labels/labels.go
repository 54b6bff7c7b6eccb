// Package labels normalizes raw model label strings into the lowercase,
// single-space form every downstream stage compares against.
package labels

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize lowercases s and collapses separators (underscore, hyphen,
// slash, dot, comma) and whitespace runs into single spaces.
//
//	Normalize("Cell_Phone")   // "cell phone"
//	Normalize("  Laptop--PC") // "laptop pc"
func Normalize(s string) string {
	lower := cases.Lower(language.Und).String(s)

	var b strings.Builder
	b.Grow(len(lower))
	pendingSpace := false
	for _, r := range lower {
		if isSeparator(r) {
			pendingSpace = b.Len() > 0
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Words returns the space-separated words of a normalized label.
func Words(normalized string) []string {
	return strings.Fields(normalized)
}

func isSeparator(r rune) bool {
	switch r {
	case '_', '-', '/', '.', ',':
		return true
	default:
		return unicode.IsSpace(r)
	}
}
