package search

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeQuery folds the query to NFKC and collapses whitespace runs
// into single spaces, trimming both ends. Cache keys and variants are built
// from the normalized form so every caller shares them.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(q)), " ")
}
