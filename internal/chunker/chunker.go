// ABOUTME: Chunker splits extracted document text into bounded units for embedding
// ABOUTME: Provides fixed word windows and a structural sentence/section strategy
package chunker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// Strategy names accepted by New
const (
	StrategyFixed      = "fixed"
	StrategyStructural = "structural"
)

// Chunker turns document text into chunks. Implementations are pure functions
// of their input and never fail on valid UTF-8 text.
type Chunker interface {
	Chunk(text string) []models.Chunk
}

// New builds the chunker named by strategy
func New(strategy string, maxWords, sectionMaxWords, overlapSentences int) (Chunker, error) {
	switch strategy {
	case StrategyFixed:
		return NewFixed(maxWords), nil
	case StrategyStructural, "":
		return NewStructural(sectionMaxWords, overlapSentences), nil
	default:
		return nil, fmt.Errorf("unknown chunk strategy %q", strategy)
	}
}

// Fixed groups whitespace tokens into non-overlapping windows
type Fixed struct {
	MaxWords int
}

// NewFixed creates a Fixed chunker; non-positive sizes fall back to 500 words
func NewFixed(maxWords int) *Fixed {
	if maxWords <= 0 {
		maxWords = 500
	}
	return &Fixed{MaxWords: maxWords}
}

// Chunk splits text into windows of at most MaxWords words
func (f *Fixed) Chunk(text string) []models.Chunk {
	var chunks []models.Chunk
	for _, window := range wordWindows(strings.Fields(text), f.MaxWords) {
		chunks = append(chunks, models.Chunk{
			ID:   strconv.Itoa(len(chunks)),
			Text: window,
		})
	}
	return chunks
}

// wordWindows joins consecutive runs of at most size words
func wordWindows(words []string, size int) []string {
	var out []string
	for start := 0; start < len(words); start += size {
		end := min(start+size, len(words))
		out = append(out, strings.Join(words[start:end], " "))
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
