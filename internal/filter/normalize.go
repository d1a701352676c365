package filter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fold maps s to a form where case-insensitive comparison is a plain substring test.
// NFC first so that "é" typed as e+U+0301 matches a precomposed "é".
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// ContainsFold reports whether needle occurs in haystack ignoring case.
// An empty needle never matches.
func ContainsFold(haystack, needle string) bool {
	n := fold(needle)
	if n == "" {
		return false
	}
	return strings.Contains(fold(haystack), n)
}
