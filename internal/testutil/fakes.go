// ABOUTME: Deterministic embedder and generator fakes shared by package tests
// ABOUTME: WordEmbedder gives texts sharing words a high cosine similarity
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// WordEmbedder embeds text as a bag of words over a vocabulary grown on demand
type WordEmbedder struct {
	Dimension int
	// Err, when set, is returned by every call
	Err error

	mu    sync.Mutex
	vocab map[string]int
	calls int
}

// NewWordEmbedder returns an embedder with room for 512 distinct words
func NewWordEmbedder() *WordEmbedder {
	return &WordEmbedder{Dimension: 512}
}

// Embed counts each normalized word into its vocabulary slot
func (w *WordEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.calls++
	if w.Err != nil {
		return nil, w.Err
	}
	if strings.TrimSpace(text) == "" {
		return nil, models.ErrEmptyInput
	}
	if w.vocab == nil {
		w.vocab = map[string]int{}
	}

	vec := make([]float64, w.Dimension)
	for _, word := range Words(text) {
		slot, ok := w.vocab[word]
		if !ok {
			slot = len(w.vocab) % w.Dimension
			w.vocab[word] = slot
		}
		vec[slot]++
	}
	return vec, nil
}

// Calls returns how many times Embed ran
func (w *WordEmbedder) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// Words lowercases text and splits it on anything that is not a letter or digit
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Generator returns a canned reply and records the prompts it saw
type Generator struct {
	Reply string
	Err   error

	mu      sync.Mutex
	prompts []string
}

// Generate records prompt and returns Reply or Err
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	return g.Reply, nil
}

// Prompts returns every prompt seen so far
func (g *Generator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// LastPrompt returns the most recent prompt or ""
func (g *Generator) LastPrompt() string {
	p := g.Prompts()
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// ErrUnreachable simulates a provider that cannot be contacted
var ErrUnreachable = errors.New("connection refused")
