// ABOUTME: Tests for the fixed-width chunker and the strategy factory
// ABOUTME: Verifies window bounds and that chunk words reconstruct the input order
package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		strategy string
		wantType string
		wantErr  bool
	}{
		{StrategyFixed, "*chunker.Fixed", false},
		{StrategyStructural, "*chunker.Structural", false},
		{"", "*chunker.Structural", false},
		{"paragraph", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			c, err := New(tt.strategy, 500, 400, 1)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := fmt.Sprintf("%T", c); got != tt.wantType {
				t.Errorf("New() type = %s, want %s", got, tt.wantType)
			}
		})
	}
}

func TestFixed_EmptyText(t *testing.T) {
	c := NewFixed(500)

	tests := []struct {
		name string
		text string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
		{"tabs and newlines", "\t\n\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if chunks := c.Chunk(tt.text); len(chunks) != 0 {
				t.Errorf("Chunk(%q) = %d chunks, want 0", tt.text, len(chunks))
			}
		})
	}
}

func TestFixed_WindowsReconstructInput(t *testing.T) {
	tests := []struct {
		name     string
		words    int
		maxWords int
		want     int
	}{
		{"single short chunk", 7, 500, 1},
		{"exact multiple", 1000, 500, 2},
		{"remainder", 1001, 500, 3},
		{"tiny windows", 10, 3, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var words []string
			for i := 0; i < tt.words; i++ {
				words = append(words, fmt.Sprintf("w%d", i))
			}
			text := strings.Join(words, "  \n\t")

			chunks := NewFixed(tt.maxWords).Chunk(text)
			if len(chunks) != tt.want {
				t.Fatalf("Chunk() = %d chunks, want %d", len(chunks), tt.want)
			}

			var rebuilt []string
			for i, chunk := range chunks {
				if chunk.ID != fmt.Sprint(i) {
					t.Errorf("chunk %d ID = %q, want %q", i, chunk.ID, fmt.Sprint(i))
				}
				if n := chunk.WordCount(); n > tt.maxWords {
					t.Errorf("chunk %d has %d words, limit %d", i, n, tt.maxWords)
				}
				rebuilt = append(rebuilt, strings.Fields(chunk.Text)...)
			}
			if strings.Join(rebuilt, " ") != strings.Join(words, " ") {
				t.Error("concatenated chunk words do not reproduce the input order")
			}
		})
	}
}

func TestNewFixed_DefaultSize(t *testing.T) {
	if got := NewFixed(0).MaxWords; got != 500 {
		t.Errorf("NewFixed(0).MaxWords = %d, want 500", got)
	}
}
