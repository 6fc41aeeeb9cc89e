// Package match resolves free-text names against a canonical name set
// using Jaro-Winkler similarity.
package match

import (
	"math"
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// Confidence score bounds.
const (
	// ExactScore is returned only for an exact (normalized) name match.
	ExactScore = 100
	// maxFuzzyScore caps similarity scores for non-exact matches so that
	// ExactScore is unambiguous.
	maxFuzzyScore = 99
)

// Jaro-Winkler parameters: standard boost threshold and prefix size.
const (
	boostThreshold = 0.7
	prefixSize     = 4
)

// Match pairs a candidate canonical name with a confidence score in
// [0,100].
type Match struct {
	Candidate string
	Index     int // position in the supplied candidate set
	Score     int
}

// Normalize prepares a name for comparison: trimmed, lowercased, inner
// whitespace collapsed.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Resolve ranks candidates by similarity to query, best first, keeping at
// most topK entries. Ties keep candidate-set order. An empty candidate set
// yields an empty list; the caller decides what "unresolved" means.
func Resolve(query string, candidates []string, topK int) []Match {
	if len(candidates) == 0 || topK < 1 {
		return nil
	}

	q := Normalize(query)
	matches := make([]Match, 0, len(candidates))
	for i, c := range candidates {
		matches = append(matches, Match{
			Candidate: c,
			Index:     i,
			Score:     score(q, Normalize(c)),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// score computes the [0,100] confidence between two normalized names.
func score(a, b string) int {
	if a == b {
		return ExactScore
	}
	if a == "" || b == "" {
		return 0
	}
	s := int(math.Round(smetrics.JaroWinkler(a, b, boostThreshold, prefixSize) * 100))
	if s > maxFuzzyScore {
		s = maxFuzzyScore
	}
	if s < 0 {
		s = 0
	}
	return s
}
