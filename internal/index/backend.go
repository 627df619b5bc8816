// ABOUTME: Storage contract for the vector index and the embedder it rebuilds with
// ABOUTME: SQLite, Postgres and Charm KV stores all satisfy Backend
package index

import (
	"context"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// Backend persists named collections of embedded entries
type Backend interface {
	// Collection returns models.ErrCollectionNotFound (wrapped) for a missing collection
	Collection(ctx context.Context, name string) (*models.CollectionInfo, error)
	CreateCollection(ctx context.Context, info models.CollectionInfo) error
	// DropCollection is a no-op for a missing collection
	DropCollection(ctx context.Context, name string) error
	UpdateCollection(ctx context.Context, info models.CollectionInfo) error
	Insert(ctx context.Context, collection string, entries []models.IndexEntry) error
	Entries(ctx context.Context, collection string) ([]models.IndexEntry, error)
	// Search returns at most k results in ascending distance order
	Search(ctx context.Context, collection string, vector []float64, k int) ([]models.SearchResult, error)
	Close() error
}

// Embedder turns text into a vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
