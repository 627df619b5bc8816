// ABOUTME: Tests for cosine math and ranking helpers
// ABOUTME: Verifies similarity edge cases and ascending-distance ordering
package storage

import (
	"math"
	"testing"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0, 0}, []float64{1, 0, 0}, 1},
		{"orthogonal", []float64{1, 0, 0}, []float64{0, 1, 0}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"length mismatch", []float64{1, 0}, []float64{1, 0, 0}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %f, want %f", got, tt.want)
			}
			if d := CosineDistance(tt.a, tt.b); math.Abs(d-(1-tt.want)) > 1e-9 {
				t.Errorf("CosineDistance() = %f, want %f", d, 1-tt.want)
			}
		})
	}
}

func TestRank(t *testing.T) {
	results := []models.SearchResult{
		{ID: "c", Distance: 0.5},
		{ID: "a", Distance: 0.1},
		{ID: "d", Distance: 0.9},
		{ID: "b", Distance: 0.1},
	}

	ranked := Rank(results, 3)
	if len(ranked) != 3 {
		t.Fatalf("Rank() returned %d results, want 3", len(ranked))
	}

	wantIDs := []string{"a", "b", "c"}
	for i, id := range wantIDs {
		if ranked[i].ID != id {
			t.Errorf("ranked[%d] = %s, want %s", i, ranked[i].ID, id)
		}
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Distance < ranked[i-1].Distance {
			t.Errorf("distances not ascending at %d", i)
		}
	}
}
