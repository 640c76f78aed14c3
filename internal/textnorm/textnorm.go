// Package textnorm holds the string normalization shared by the importers
// and the exam filters. Vietnamese text arrives both precomposed and
// decomposed depending on the spreadsheet tool, so everything compares in NFC.
package textnorm

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Clean trims surrounding whitespace and converts s to NFC.
func Clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Fold is Clean followed by lower-casing. It is the key used for
// case-insensitive matching of grades, topics, lessons and headers.
func Fold(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}

// Equal reports whether a and b match after folding.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}
