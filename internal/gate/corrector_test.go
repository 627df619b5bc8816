// ABOUTME: Tests for keyword correction of query tokens
// ABOUTME: Uses a stub scorer to pin the cutoff behavior independently of the algorithm
package gate

import "testing"

type stubScorer struct {
	scores map[string]int
}

func (s stubScorer) Ratio(a, b string) int {
	return s.scores[a+"|"+b]
}

func (s stubScorer) TokenSetRatio(a, b string) int {
	return 0
}

func TestCorrector_Cutoff(t *testing.T) {
	tests := []struct {
		name  string
		score int
		want  string
	}{
		{"at cutoff", 85, "GBU hostel"},
		{"above cutoff", 90, "GBU hostel"},
		{"below cutoff", 60, "GBY hostel"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Corrector{
				Keywords: []string{"GBU"},
				Cutoff:   85,
				Scorer:   stubScorer{scores: map[string]int{"gby|gbu": tt.score}},
			}
			if got := c.Correct("GBY hostel"); got != tt.want {
				t.Errorf("Correct() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCorrector_FuzzyScorer(t *testing.T) {
	c := NewCorrector([]string{"GBU", "admission", "scholarship", "hostel", "B.Tech", "IT"}, 85)

	tests := []struct {
		query string
		want  string
	}{
		// 67 is below the cutoff
		{"GBY", "GBY"},
		{"gbu hostel", "GBU hostel"},
		{"admision dates", "admission dates"},
		{"any scholarshp?", "any scholarship?"},
		{"b.tech fees", "B.Tech fees"},
		{"is it open", "is it open"},
		{"What is the capital of France?", "What is the capital of France?"},
		{"(GBU)", "(GBU)"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			if got := c.Correct(tt.query); got != tt.want {
				t.Errorf("Correct(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestCorrector_Nil(t *testing.T) {
	var c *Corrector
	if got := c.Correct("GBY"); got != "GBY" {
		t.Errorf("nil Corrector changed the query: %q", got)
	}
}
