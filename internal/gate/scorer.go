// ABOUTME: Pluggable fuzzy string scoring used by the corrector and the gate
// ABOUTME: FuzzyScorer derives 0-100 scores from Levenshtein edit distance
package gate

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Scorer rates how alike two strings are on a 0-100 scale
type Scorer interface {
	// Ratio compares the strings as they are
	Ratio(a, b string) int
	// TokenSetRatio compares the sets of normalized tokens, ignoring order and repeats
	TokenSetRatio(a, b string) int
}

// FuzzyScorer is the default Levenshtein based Scorer
type FuzzyScorer struct{}

// Ratio returns 100 * (1 - distance / longer length), rounded
func (FuzzyScorer) Ratio(a, b string) int {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	longest := max(la, lb)
	dist := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}

// TokenSetRatio scores the shared tokens against each side's remainder and keeps the best.
// When every token of one side appears in the other the score is 100.
func (s FuzzyScorer) TokenSetRatio(a, b string) int {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for tok := range ta {
		if tb[tok] {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if !ta[tok] {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	base := strings.Join(common, " ")
	withA := strings.TrimSpace(base + " " + strings.Join(onlyA, " "))
	withB := strings.TrimSpace(base + " " + strings.Join(onlyB, " "))

	best := s.Ratio(withA, withB)
	if base != "" {
		best = max(best, s.Ratio(base, withA), s.Ratio(base, withB))
	}
	return best
}

// Normalize lowercases s and turns every non letter/digit into a space
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
}

func tokenSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, tok := range strings.Fields(Normalize(s)) {
		set[tok] = true
	}
	return set
}
