// ABOUTME: Local sentence-transformer embeddings through hugot's pure Go ONNX backend
// ABOUTME: Downloads the model on first use into the configured directory
package llm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// DefaultHugotModel produces 384-dimensional embeddings
const DefaultHugotModel = "sentence-transformers/all-MiniLM-L6-v2"

// HugotEmbedder runs a feature extraction pipeline in-process
type HugotEmbedder struct {
	session  *hugot.Session
	pipeline *pipelines.FeatureExtractionPipeline
	mu       sync.Mutex
}

// PrepareModel downloads modelName into modelDir unless it is already there and returns its path
func PrepareModel(modelName, modelDir string) (string, error) {
	modelPath := filepath.Join(modelDir, strings.ReplaceAll(modelName, "/", "_"))

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		if err := os.MkdirAll(modelDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create model directory: %w", err)
		}
		downloadOptions := hugot.NewDownloadOptions()
		downloadOptions.OnnxFilePath = "onnx/model.onnx"
		downloadedPath, err := hugot.DownloadModel(modelName, modelDir, downloadOptions)
		if err != nil {
			return "", fmt.Errorf("failed to download model: %w", err)
		}
		modelPath = downloadedPath
	}

	return modelPath, nil
}

// NewHugotEmbedder prepares the model and starts a hugot session
func NewHugotEmbedder(modelName, modelDir string) (*HugotEmbedder, error) {
	if modelName == "" {
		modelName = DefaultHugotModel
	}
	if modelDir == "" {
		modelDir = "./models"
	}

	modelPath, err := PrepareModel(modelName, modelDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "narad-embedder",
	}
	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create embedding pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create embedding pipeline: %w", err)
	}

	return &HugotEmbedder{session: session, pipeline: pipeline}, nil
}

// Embed returns the sentence embedding of text
func (h *HugotEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.Lock()
	result, err := h.pipeline.RunPipeline([]string{text})
	h.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrEmbeddingUnavailable, err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embedding generated", models.ErrEmbeddingUnavailable)
	}

	return toFloat64(result.Embeddings[0]), nil
}

// Close destroys the hugot session
func (h *HugotEmbedder) Close() error {
	return h.session.Destroy()
}
