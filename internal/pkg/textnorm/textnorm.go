// Package textnorm normalises user supplied identifiers and display text.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Email returns the canonical form used for uniqueness checks.
func Email(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}

// Username case-folds and NFKC-normalises a handle. Casers are stateful so
// one is built per call.
func Username(s string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(s)))
}

// Text trims and NFC-normalises free text and collapses runs of whitespace
// in single-line fields.
func Text(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Multiline trims and NFC-normalises text that keeps its line breaks.
func Multiline(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
