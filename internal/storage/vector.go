// ABOUTME: Vector math shared by the index backends
// ABOUTME: Cosine similarity/distance and ascending-distance ranking
package storage

import (
	"fmt"
	"math"
	"sort"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// DistanceCosine is the only distance function collections are created with
const DistanceCosine = "cosine"

// CheckDimension rejects a query vector whose size differs from the collection's.
// A collection with no recorded dimension accepts any query.
func CheckDimension(info *models.CollectionInfo, vector []float64) error {
	if info.Dimension > 0 && len(vector) != info.Dimension {
		return fmt.Errorf("collection %s has dimension %d, query has %d: %w",
			info.Name, info.Dimension, len(vector), models.ErrDimensionMismatch)
	}
	return nil
}

// CosineSimilarity calculates cosine similarity between two vectors
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// CosineDistance returns 1 - cosine similarity, in [0, 2]
func CosineDistance(a, b []float64) float64 {
	return 1 - CosineSimilarity(a, b)
}

// Rank sorts results by ascending distance (ties broken by id) and keeps the first k
func Rank(results []models.SearchResult, k int) []models.SearchResult {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	if k >= 0 && len(results) > k {
		results = results[:k]
	}
	return results
}
