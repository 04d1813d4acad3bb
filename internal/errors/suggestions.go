package errors

import (
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxSuggestions caps the number of nearest-name suggestions embedded in a
// not-found error.
const MaxSuggestions = 5

var nameFolder = cases.Lower(language.Und)

// NearestNames returns up to max candidate names ranked by edit distance to
// the attempted name. Comparison is case-fold-insensitive so "button" still
// suggests "Button". Candidates further than half their length away are
// considered noise and dropped.
func NearestNames(attempted string, candidates []string, max int) []string {
	if max <= 0 {
		max = MaxSuggestions
	}

	folded := nameFolder.String(attempted)

	type scored struct {
		name     string
		distance int
	}

	ranked := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		d := editDistance(folded, nameFolder.String(candidate))
		limit := len(candidate)/2 + 1
		if d <= limit {
			ranked = append(ranked, scored{name: candidate, distance: d})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].name < ranked[j].name
	})

	if len(ranked) > max {
		ranked = ranked[:max]
	}

	names := make([]string, len(ranked))
	for i, s := range ranked {
		names[i] = s.name
	}
	return names
}

// editDistance computes the Levenshtein distance between two strings using
// the two-row dynamic programming formulation.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
