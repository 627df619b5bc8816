// ABOUTME: Ollama client for native embeddings and text generation
// ABOUTME: Talks to /api/embed and /api/generate with retries on transient failures
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/util"
)

const (
	DefaultOllamaHost = "http://localhost:11434"
	embedEndpoint     = "/api/embed"
	generateEndpoint  = "/api/generate"
)

// OllamaOption configures an OllamaClient
type OllamaOption func(*OllamaClient)

// WithBaseURL sets the Ollama server URL
func WithBaseURL(baseURL string) OllamaOption {
	return func(c *OllamaClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithModels sets the embedding and chat models
func WithModels(embedding, chat string) OllamaOption {
	return func(c *OllamaClient) {
		if embedding != "" {
			c.embeddingModel = embedding
		}
		if chat != "" {
			c.chatModel = chat
		}
	}
}

// WithTimeout sets the per-request HTTP timeout
func WithTimeout(timeout time.Duration) OllamaOption {
	return func(c *OllamaClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) OllamaOption {
	return func(c *OllamaClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetries sets the retry count and base delay for transient failures
func WithRetries(maxRetries int, delay time.Duration) OllamaOption {
	return func(c *OllamaClient) {
		c.maxRetries = maxRetries
		c.retryDelay = delay
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) OllamaOption {
	return func(c *OllamaClient) {
		c.logger = logging.OrDefault(logger)
	}
}

// OllamaClient embeds and generates through a local Ollama server
type OllamaClient struct {
	baseURL        string
	embeddingModel string
	chatModel      string
	httpClient     *http.Client
	maxRetries     int
	retryDelay     time.Duration
	logger         *slog.Logger
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response *string `json:"response"`
	Done     bool    `json:"done"`
	Error    string  `json:"error"`
}

// statusError is a non-200 reply; only 5xx replies are retried
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ollama error (status %d): %s", e.code, e.body)
}

// NewOllamaClient creates a client with defaults overridden by opts
func NewOllamaClient(opts ...OllamaOption) *OllamaClient {
	c := &OllamaClient{
		baseURL:        DefaultOllamaHost,
		embeddingModel: "mxbai-embed-large",
		chatModel:      "mistral",
		httpClient:     &http.Client{Timeout: 60 * time.Second},
		maxRetries:     3,
		retryDelay:     time.Second,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Embed returns the embedding of text
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ErrEmptyInput
	}

	var out embedResponse
	err := c.post(ctx, embedEndpoint, embedRequest{Model: c.embeddingModel, Input: []string{text}}, &out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", models.ErrEmbeddingUnavailable, out.Error)
	}
	if len(out.Embeddings) == 0 || len(out.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", models.ErrEmbeddingUnavailable)
	}

	return toFloat64(out.Embeddings[0]), nil
}

// Generate completes prompt with the chat model
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", models.ErrEmptyInput
	}

	var out generateResponse
	err := c.post(ctx, generateEndpoint, generateRequest{Model: c.chatModel, Prompt: prompt, Stream: false}, &out)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrGenerationUnavailable, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", models.ErrGenerationUnavailable, out.Error)
	}
	if out.Response == nil {
		return "", fmt.Errorf("%w: response field missing", models.ErrGenerationUnavailable)
	}

	return *out.Response, nil
}

func (c *OllamaClient) post(ctx context.Context, endpoint string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := util.Sleep(ctx, util.CalculateBackoff(c.retryDelay, attempt)); err != nil {
				return err
			}
			c.logger.Debug("retrying ollama request", "endpoint", endpoint, "attempt", attempt+1, "error", lastErr)
		}

		lastErr = c.once(ctx, endpoint, body, out)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
		var se *statusError
		if errors.As(lastErr, &se) && se.code < 500 {
			return lastErr
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *OllamaClient) once(ctx context.Context, endpoint string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
