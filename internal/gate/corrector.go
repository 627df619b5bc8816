// ABOUTME: Keyword-level spelling correction of queries against the domain vocabulary
// ABOUTME: Only tokens that closely match a keyword are replaced
package gate

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenRunes keeps short function words like "it" or "is" from matching acronyms
const minTokenRunes = 3

// Corrector substitutes near-miss tokens with domain keywords
type Corrector struct {
	Keywords []string
	// Cutoff is the minimum Ratio (0-100) for a substitution
	Cutoff int
	Scorer Scorer
}

// NewCorrector creates a Corrector using FuzzyScorer
func NewCorrector(keywords []string, cutoff int) *Corrector {
	return &Corrector{Keywords: keywords, Cutoff: cutoff, Scorer: FuzzyScorer{}}
}

// Correct rewrites each whitespace-delimited token of query to its best keyword
// when that keyword scores at least Cutoff. Surrounding punctuation is kept.
func (c *Corrector) Correct(query string) string {
	if c == nil || len(c.Keywords) == 0 {
		return query
	}
	scorer := c.Scorer
	if scorer == nil {
		scorer = FuzzyScorer{}
	}

	tokens := strings.Fields(query)
	for i, tok := range tokens {
		start := strings.IndexFunc(tok, isWordRune)
		last := strings.LastIndexFunc(tok, isWordRune)
		if start < 0 {
			continue
		}
		_, size := utf8.DecodeRuneInString(tok[last:])
		end := last + size
		core := tok[start:end]
		if utf8.RuneCountInString(core) < minTokenRunes {
			continue
		}

		best, bestScore := "", -1
		lowered := strings.ToLower(core)
		for _, kw := range c.Keywords {
			score := scorer.Ratio(lowered, strings.ToLower(kw))
			if score > bestScore {
				best, bestScore = kw, score
			}
		}

		if bestScore >= c.Cutoff && best != core {
			tokens[i] = tok[:start] + best + tok[end:]
		}
	}

	return strings.Join(tokens, " ")
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
