// ABOUTME: Embedding and generation contracts plus the provider factory
// ABOUTME: Selects Ollama, OpenAI-compatible or local hugot embeddings from config
package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/config"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
)

// Embedder turns text into a vector.
// Blank text fails with models.ErrEmptyInput, an unreachable model with models.ErrEmbeddingUnavailable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Generator completes a prompt.
// Failures and empty completions are reported as models.ErrGenerationUnavailable.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Providers bundles the embedder and generator selected by config
type Providers struct {
	Embedder  Embedder
	Generator Generator
	closers   []func() error
}

// Close releases provider resources such as the hugot session
func (p *Providers) Close() error {
	var firstErr error
	for _, c := range p.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// New builds providers for cfg.Provider. The hugot provider embeds locally
// and generates through Ollama.
func New(cfg *config.Config, logger *slog.Logger) (*Providers, error) {
	logger = logging.OrDefault(logger)
	p := &Providers{}

	ollama := func() *OllamaClient {
		return NewOllamaClient(
			WithBaseURL(cfg.OllamaHost),
			WithModels(cfg.EmbeddingModel, cfg.ChatModel),
			WithTimeout(cfg.Timeout),
			WithRetries(cfg.MaxRetries, cfg.RetryDelay),
			WithLogger(logger),
		)
	}

	switch cfg.Provider {
	case "ollama":
		client := ollama()
		p.Embedder, p.Generator = client, client

	case "openai":
		client, err := NewOpenAIClientWithConfig(&ClientConfig{
			APIKey:         cfg.OpenAIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			MaxRetries:     cfg.MaxRetries,
			RetryDelay:     cfg.RetryDelay,
			Timeout:        cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		p.Embedder, p.Generator = client, client

	case "hugot":
		embedder, err := NewHugotEmbedder(cfg.HugotModelName, cfg.HugotModelDir)
		if err != nil {
			return nil, err
		}
		p.Embedder = embedder
		p.Generator = ollama()
		p.closers = append(p.closers, embedder.Close)

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}

	if cfg.EmbedRPS > 0 {
		p.Embedder = NewLimited(p.Embedder, cfg.EmbedRPS, cfg.EmbedWorkers)
	}

	logger.Debug("providers ready", "provider", cfg.Provider, "embedding_model", cfg.EmbeddingModel, "chat_model", cfg.ChatModel)
	return p, nil
}
