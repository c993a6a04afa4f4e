package utils

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// NormalizeTitle case-folds a title and collapses whitespace so that titles
// typed by staff compare equal to catalog titles
func NormalizeTitle(title string) string {
	folded := cases.Fold().String(title)
	return strings.Join(strings.Fields(folded), " ")
}

// ClosestTitle returns the index of the title closest to query.
// An exact match after normalization always wins. Otherwise the smallest
// Levenshtein distance wins, as long as it is within a third of the query
// length. Returns -1 when nothing is close enough.
func ClosestTitle(query string, titles []string) int {
	needle := NormalizeTitle(query)
	if needle == "" {
		return -1
	}

	best := -1
	bestDistance := len([]rune(needle))/3 + 1
	for i, title := range titles {
		candidate := NormalizeTitle(title)
		if candidate == needle {
			return i
		}
		distance := levenshtein.ComputeDistance(needle, candidate)
		if distance < bestDistance {
			best = i
			bestDistance = distance
		}
	}

	return best
}
