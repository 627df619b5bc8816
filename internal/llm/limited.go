// ABOUTME: Rate-limited embedder wrapper backed by a token bucket
// ABOUTME: Keeps ingestion under a provider's requests-per-second budget
package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// Limited waits on a limiter before every Embed call
type Limited struct {
	next    Embedder
	limiter *rate.Limiter
}

// NewLimited allows rps calls per second with the given burst
func NewLimited(next Embedder, rps float64, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Embed waits for a token, then delegates
func (l *Limited) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
	}
	return l.next.Embed(ctx, text)
}
