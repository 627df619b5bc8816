// ABOUTME: Index entry and search result types for the vector index
// ABOUTME: Distances are cosine distances, lower is closer
package models

import (
	"fmt"
	"time"
)

// Metadata keys written on every index entry
const (
	MetaSource  = "source"
	MetaChunkID = "chunk_id"
	MetaSection = "section"
)

// IndexEntry is a stored chunk with its embedding
type IndexEntry struct {
	ID       string            `json:"id"`
	Vector   []float64         `json:"vector"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ValidateDimension checks that the vector matches the collection dimension
func (e IndexEntry) ValidateDimension(expected int) error {
	if len(e.Vector) == 0 {
		return fmt.Errorf("entry %s: vector cannot be empty", e.ID)
	}
	if len(e.Vector) != expected {
		return fmt.Errorf("entry %s: %w: expected %d, got %d", e.ID, ErrDimensionMismatch, expected, len(e.Vector))
	}
	return nil
}

// SearchResult is one nearest-neighbor hit
type SearchResult struct {
	ID       string            `json:"id"`
	Distance float64           `json:"distance"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Source returns the provenance label of the hit
func (r SearchResult) Source() string {
	return r.Metadata[MetaSource]
}

// CollectionInfo describes a persisted collection
type CollectionInfo struct {
	Name        string    `json:"name"`
	ID          string    `json:"id"`
	Distance    string    `json:"distance"`
	Dimension   int       `json:"dimension"`
	Entries     int       `json:"entries"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
