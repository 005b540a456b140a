// Package fuzzy scores string similarity in [0,1] for merchant matching.
package fuzzy

import (
	"github.com/agext/levenshtein"
)

// Scorer is the similarity backend. Both methods return a value in [0,1].
type Scorer interface {
	// Ratio compares the two strings in full.
	Ratio(a, b string) float64
	// PartialRatio is the best Ratio of the shorter string against every
	// same-length window of the longer one.
	PartialRatio(a, b string) float64
}

// Levenshtein scores by normalized edit distance.
type Levenshtein struct{}

var _ Scorer = Levenshtein{}

func (Levenshtein) Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return levenshtein.Similarity(a, b, nil)
}

func (l Levenshtein) PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 1
		}
		return 0
	}
	short := string(ra)
	if len(ra) == len(rb) {
		return l.Ratio(short, string(rb))
	}

	best := 0.0
	for i := 0; i+len(ra) <= len(rb); i++ {
		s := l.Ratio(short, string(rb[i:i+len(ra)]))
		if s > best {
			best = s
			if best == 1 {
				break
			}
		}
	}
	return best
}

// Default is the scorer used when none is injected.
func Default() Scorer { return Levenshtein{} }
