// ABOUTME: Relevance verdict produced by the gate for one query
// ABOUTME: Carries the decision plus the signals that produced it
package models

// Verdict is the per-query relevance decision
type Verdict struct {
	Relevant       bool    `json:"relevant"`
	Query          string  `json:"query"`
	CorrectedQuery string  `json:"corrected_query"`
	Similarity     float64 `json:"similarity"`
	TopDistance    float64 `json:"top_distance"`
	Lexical        int     `json:"lexical"`
	Err            error   `json:"-"`
}

// Reason summarises why the verdict came out the way it did
func (v Verdict) Reason() string {
	switch {
	case v.Err != nil:
		return "gate error: " + v.Err.Error()
	case v.Relevant:
		return "in domain"
	default:
		return "out of domain"
	}
}
