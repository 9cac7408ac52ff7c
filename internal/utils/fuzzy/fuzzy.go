// Package fuzzy scores similarity between ingredient names and the master
// food table so persisted ingredients can be linked to a food item.
package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MatchThreshold is the minimum score at which a candidate is accepted.
const MatchThreshold = 0.5

// Normalize lower-cases, strips accents (NFD + combining marks), collapses
// whitespace and trims. Normalize is idempotent.
func Normalize(s string) string {
	decomposed := norm.NFD.String(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Score compares two normalized strings and returns a similarity in [0, 1]:
// 1.0 for an exact match, 0.8 when the shorter is a substring of the longer
// (both at least 3 characters), otherwise the word-set overlap ratio, raised
// to at least 0.7 when every word of the smaller set appears in the larger.
func Score(a, b string) float64 {
	if a == b {
		return 1.0
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) >= 3 && strings.Contains(longer, shorter) {
		return 0.8
	}

	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	smaller, larger := wordsA, wordsB
	if len(smaller) > len(larger) {
		smaller, larger = larger, smaller
	}

	common := 0
	contained := true
	for w := range smaller {
		if _, ok := larger[w]; ok {
			common++
		} else {
			contained = false
		}
	}

	wordScore := float64(common) / float64(max(len(wordsA), len(wordsB)))
	if contained && wordScore < 0.7 {
		return 0.7
	}
	return wordScore
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// Matcher holds a normalized candidate list so a batch of names can be
// matched without re-normalizing the candidates each time.
type Matcher struct {
	normalized []string
}

func NewMatcher(candidates []string) *Matcher {
	normalized := make([]string, len(candidates))
	for i, c := range candidates {
		normalized[i] = Normalize(c)
	}
	return &Matcher{normalized: normalized}
}

// Best returns the index of the best-scoring candidate and that score, or
// -1 when no candidate reaches MatchThreshold. Ties keep the earliest
// candidate.
func (m *Matcher) Best(raw string) (int, float64) {
	target := Normalize(raw)
	bestIdx, bestScore := -1, 0.0
	for i, candidate := range m.normalized {
		if s := Score(target, candidate); s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	if bestScore < MatchThreshold {
		return -1, bestScore
	}
	return bestIdx, bestScore
}
