// ABOUTME: Relevance gate deciding whether a query belongs to the indexed domain
// ABOUTME: Combines embedding similarity of the nearest chunk with a lexical token-set score
package gate

import (
	"context"
	"log/slog"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Searcher returns the k nearest chunks in ascending distance order
type Searcher interface {
	Search(ctx context.Context, vector []float64, k int) ([]models.SearchResult, error)
}

// Options configures a Gate
type Options struct {
	// SimilarityThreshold is exceeded by 1 - top distance for a relevant query
	SimilarityThreshold float64
	// LexicalThreshold is exceeded by the token-set score for a relevant query
	LexicalThreshold int
	TopK             int
	Scorer           Scorer
	Logger           *slog.Logger
}

// Gate checks queries for relevance before any generation happens
type Gate struct {
	embedder  Embedder
	searcher  Searcher
	corrector *Corrector
	scorer    Scorer
	simT      float64
	lexT      int
	topK      int
	logger    *slog.Logger
}

// New creates a Gate; corrector may be nil to skip correction
func New(embedder Embedder, searcher Searcher, corrector *Corrector, opts Options) *Gate {
	if opts.TopK <= 0 {
		opts.TopK = 3
	}
	if opts.Scorer == nil {
		opts.Scorer = FuzzyScorer{}
	}
	return &Gate{
		embedder:  embedder,
		searcher:  searcher,
		corrector: corrector,
		scorer:    opts.Scorer,
		simT:      opts.SimilarityThreshold,
		lexT:      opts.LexicalThreshold,
		topK:      opts.TopK,
		logger:    logging.OrDefault(opts.Logger),
	}
}

// Check corrects, embeds and searches the query. Any failure yields a
// non-relevant verdict carrying the error instead of returning it.
func (g *Gate) Check(ctx context.Context, query string) models.Verdict {
	v := models.Verdict{
		Query:          query,
		CorrectedQuery: g.corrector.Correct(query),
	}
	if v.CorrectedQuery != query {
		g.logger.Debug("query corrected", "query", query, "corrected", v.CorrectedQuery)
	}

	vec, err := g.embedder.Embed(ctx, v.CorrectedQuery)
	if err != nil {
		v.Err = err
		g.logger.Warn("gate failed to embed query", "error", err)
		return v
	}

	results, err := g.searcher.Search(ctx, vec, g.topK)
	if err != nil {
		v.Err = err
		g.logger.Warn("gate failed to search index", "error", err)
		return v
	}
	if len(results) == 0 {
		v.Err = models.ErrEmptyResult
		return v
	}

	top := results[0]
	v.TopDistance = top.Distance
	v.Similarity = 1 - top.Distance
	v.Lexical = g.scorer.TokenSetRatio(v.CorrectedQuery, top.Text)
	v.Relevant = v.Similarity > g.simT || v.Lexical > g.lexT

	g.logger.Debug("gate verdict",
		"relevant", v.Relevant,
		"similarity", v.Similarity,
		"lexical", v.Lexical,
		"top_id", top.ID)
	return v
}
