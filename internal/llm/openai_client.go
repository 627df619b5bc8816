// ABOUTME: OpenAI-compatible client for embeddings and chat completions
// ABOUTME: Works against api.openai.com or any server exposing the same API via BaseURL
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/util"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is the default model for embeddings
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
)

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	EmbeddingModel string
	MaxRetries     int
	RetryDelay     time.Duration
	Timeout        time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:         apiKey,
		ChatModel:      DefaultChatModel,
		EmbeddingModel: DefaultEmbeddingModel,
		MaxRetries:     3,
		RetryDelay:     time.Second * 2,
		Timeout:        30 * time.Second,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
	maxRetries     int
	retryDelay     time.Duration
	timeout        time.Duration
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}

	chatModel := config.ChatModel
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	embeddingModel := config.EmbeddingModel
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClient{
		client:         openai.NewClientWithConfig(clientConfig),
		chatModel:      chatModel,
		embeddingModel: openai.EmbeddingModel(embeddingModel),
		maxRetries:     config.MaxRetries,
		retryDelay:     config.RetryDelay,
		timeout:        timeout,
	}, nil
}

// Embed generates an embedding vector for text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ErrEmptyInput
	}

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := util.Sleep(ctx, util.CalculateBackoff(c.retryDelay, attempt)); err != nil {
				return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)

		resp, err := c.client.CreateEmbeddings(reqCtx, openai.EmbeddingRequestStrings{
			Input: []string{text},
			Model: c.embeddingModel,
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if len(resp.Data) == 0 {
			lastErr = fmt.Errorf("attempt %d: no embeddings returned", attempt+1)
			continue
		}

		embedding32 := resp.Data[0].Embedding
		embedding64 := make([]float64, len(embedding32))
		for i, v := range embedding32 {
			embedding64[i] = float64(v)
		}

		return embedding64, nil
	}

	return nil, fmt.Errorf("%w: failed to generate embedding after %d attempts: %w", models.ErrEmbeddingUnavailable, c.maxRetries+1, lastErr)
}

// Generate sends prompt as a single user message and returns the completion
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", models.ErrEmptyInput
	}

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := util.Sleep(ctx, util.CalculateBackoff(c.retryDelay, attempt)); err != nil {
				return "", fmt.Errorf("%w: %w", models.ErrGenerationUnavailable, err)
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)

		resp, err := c.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
			Model: c.chatModel,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.2,
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("attempt %d: no completion choices returned", attempt+1)
			continue
		}

		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("%w: failed to generate completion after %d attempts: %w", models.ErrGenerationUnavailable, c.maxRetries+1, lastErr)
}
