// ABOUTME: MCP tool definitions and registration for the Naradmuni server
// ABOUTME: Declares JSON schemas for the question, search, status and rebuild tools
package mcp

import (
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, deps Deps) *Handlers {
	handlers := NewHandlers(deps)

	// 1. ask_question - full gated retrieval-augmented answer
	server.AddTool(mcp.Tool{
		Name:        "ask_question",
		Description: "Answer a question about the university using only the indexed documents. Off-topic questions are declined.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"question": map[string]interface{}{
					"type":        "string",
					"description": "The question to answer",
				},
			},
			Required: []string{"question"},
		},
	}, handlers.AskQuestion)

	// 2. search_documents - raw nearest chunks, no gate and no generation
	server.AddTool(mcp.Tool{
		Name:        "search_documents",
		Description: "Return the indexed document chunks closest to a query, with their cosine distance and source file.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of chunks to return (default: 3)",
					"default":     3,
				},
			},
			Required: []string{"query"},
		},
	}, handlers.SearchDocuments)

	// 3. index_status - collection description and lifecycle state
	server.AddTool(mcp.Tool{
		Name:        "index_status",
		Description: "Report whether the document index is empty, building or ready, with its size and embedding dimension.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, handlers.IndexStatus)

	// 4. rebuild_index - re-run ingestion
	server.AddTool(mcp.Tool{
		Name:        "rebuild_index",
		Description: "Re-ingest the documents directory and rebuild the index from scratch. Runs in the background unless wait is true.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"directory": map[string]interface{}{
					"type":        "string",
					"description": "Directory inside the documents directory to ingest (default: the documents directory itself)",
				},
				"wait": map[string]interface{}{
					"type":        "boolean",
					"description": "Block until the rebuild finishes and return its statistics",
					"default":     false,
				},
			},
		},
	}, handlers.RebuildIndex)

	return handlers
}

// NewHandlers creates the tool handlers without registering them
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		deps:       deps,
		logger:     logging.OrDefault(deps.Logger),
		shutdownWg: &sync.WaitGroup{},
	}
}

// Deps are the collaborators the tools call into
type Deps struct {
	Answerer Answerer
	Embedder Embedder
	Index    Index
	Ingester Ingester
	DocsDir  string
	Logger   *slog.Logger
}
