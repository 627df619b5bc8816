// ABOUTME: MCP tool handler implementations for the Naradmuni server
// ABOUTME: Tool failures are returned as error results, never as protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/index"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/ingest"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// Answerer answers one question
type Answerer interface {
	Answer(ctx context.Context, question string) models.Answer
}

// Embedder embeds a search query
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Index is the read side of the vector index
type Index interface {
	Name() string
	Refresh(ctx context.Context) (index.State, error)
	Info(ctx context.Context) (*models.CollectionInfo, error)
	Search(ctx context.Context, vector []float64, k int) ([]models.SearchResult, error)
}

// Ingester rebuilds the index from a directory
type Ingester interface {
	Run(ctx context.Context, dir string) (models.IngestStats, error)
}

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	deps       Deps
	logger     *slog.Logger
	shutdownWg *sync.WaitGroup // background rebuilds
}

// AskQuestion handles the ask_question tool
func (h *Handlers) AskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("question argument is required and must be a string"), nil
	}

	ans := h.deps.Answerer.Answer(ctx, question)

	sources := make([]map[string]interface{}, 0, len(ans.Sources))
	for _, s := range ans.Sources {
		sources = append(sources, map[string]interface{}{
			"id":       s.ID,
			"source":   s.Source(),
			"distance": s.Distance,
		})
	}

	response := map[string]interface{}{
		"status":  string(ans.Status),
		"answer":  ans.Text,
		"sources": sources,
	}
	if ans.Reason != "" {
		response["reason"] = ans.Reason
	}
	if ans.Retryable {
		response["retryable"] = true
	}
	return jsonResult(response)
}

// SearchDocuments handles the search_documents tool
func (h *Handlers) SearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}
	maxResults := request.GetInt("max_results", 3)
	if maxResults < 1 {
		return mcp.NewToolResultError("max_results must be at least 1"), nil
	}

	vec, err := h.deps.Embedder.Embed(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to embed query: %v", err)), nil
	}

	results, err := h.deps.Index.Search(ctx, vec, maxResults)
	if errors.Is(err, models.ErrCollectionNotFound) {
		return mcp.NewToolResultError("the index is not ready yet, run rebuild_index first"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	chunks := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		chunk := map[string]interface{}{
			"id":       r.ID,
			"source":   r.Source(),
			"distance": r.Distance,
			"text":     r.Text,
		}
		if section := r.Metadata[models.MetaSection]; section != "" {
			chunk["section"] = section
		}
		chunks = append(chunks, chunk)
	}

	return jsonResult(map[string]interface{}{"results": chunks})
}

// IndexStatus handles the index_status tool
func (h *Handlers) IndexStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := h.deps.Index.Refresh(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read index: %v", err)), nil
	}
	response := map[string]interface{}{
		"collection": h.deps.Index.Name(),
		"state":      state.String(),
	}

	info, err := h.deps.Index.Info(ctx)
	switch {
	case errors.Is(err, models.ErrCollectionNotFound):
		response["entries"] = 0
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to read index: %v", err)), nil
	default:
		response["entries"] = info.Entries
		response["dimension"] = info.Dimension
		response["distance"] = info.Distance
		response["fingerprint"] = info.Fingerprint
		response["created_at"] = info.CreatedAt
	}

	return jsonResult(response)
}

// RebuildIndex handles the rebuild_index tool
func (h *Handlers) RebuildIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.deps.Ingester == nil {
		return mcp.NewToolResultError("ingestion is not configured"), nil
	}

	dir, err := ingest.ConfineDir(h.deps.DocsDir, request.GetString("directory", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if dir == "" {
		return mcp.NewToolResultError("no documents directory is configured"), nil
	}

	if request.GetBool("wait", false) {
		stats, err := h.deps.Ingester.Run(ctx, dir)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("rebuild failed after %d of %d chunks: %v", stats.ChunksIndexed, stats.ChunksProduced, err)), nil
		}
		return jsonResult(map[string]interface{}{
			"status": "completed",
			"stats":  stats,
		})
	}

	// the request context ends with this call, the rebuild must not
	bg := context.WithoutCancel(ctx)
	h.shutdownWg.Add(1)
	go func() {
		defer h.shutdownWg.Done()
		stats, err := h.deps.Ingester.Run(bg, dir)
		if err != nil {
			h.logger.Error("background rebuild failed", "directory", dir, "error", err)
			return
		}
		h.logger.Info("background rebuild finished", "directory", dir, "indexed", stats.ChunksIndexed)
	}()

	return jsonResult(map[string]interface{}{
		"status":    "started",
		"directory": dir,
	})
}

// Shutdown waits for background rebuilds to complete
func (h *Handlers) Shutdown() {
	h.logger.Info("waiting for pending rebuilds to complete")
	h.shutdownWg.Wait()
}

func jsonResult(response map[string]interface{}) (*mcp.CallToolResult, error) {
	responseJSON, err := json.Marshal(response)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(responseJSON)), nil
}
