// ABOUTME: Deterministic answer-quality metrics for faithfulness and context recall
// ABOUTME: Scores compare the answer and retrieved context against case ground truth
package eval

import (
	"fmt"
	"strings"
)

// MetricsCalculator computes scores for evaluation cases
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateFaithfulness computes faithfulness score (0.0-1.0).
// Every expected item must appear in the answer and no forbidden item may.
func (m *MetricsCalculator) CalculateFaithfulness(answer string, expected, forbidden []string) (float64, string) {
	missing := missingItems(answer, expected)

	var found []string
	answerUpper := strings.ToUpper(answer)
	for _, f := range forbidden {
		if strings.Contains(answerUpper, strings.ToUpper(f)) {
			found = append(found, f)
		}
	}

	switch {
	case len(missing) == 0 && len(found) == 0:
		return 1.0, "answer matches ground truth"
	case len(missing) > 0 && len(found) > 0:
		return 0.0, fmt.Sprintf("missing expected items: %v, forbidden items found: %v", missing, found)
	case len(missing) > 0:
		return 0.5, fmt.Sprintf("missing expected items: %v", missing)
	default:
		return 0.5, fmt.Sprintf("forbidden items found: %v", found)
	}
}

// CalculateContextRecall is the share of expected items present in the retrieved context
func (m *MetricsCalculator) CalculateContextRecall(retrieved, expected []string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "no context retrieval required"
	}

	missing := missingItems(strings.Join(retrieved, " "), expected)
	recall := float64(len(expected)-len(missing)) / float64(len(expected))
	if recall == 1.0 {
		return 1.0, "all expected items retrieved"
	}
	return recall, fmt.Sprintf("partial context recall (%.2f), missing items: %v", recall, missing)
}

func missingItems(text string, items []string) []string {
	upper := strings.ToUpper(text)
	var missing []string
	for _, item := range items {
		if !strings.Contains(upper, strings.ToUpper(item)) {
			missing = append(missing, item)
		}
	}
	return missing
}
