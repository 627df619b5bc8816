// ABOUTME: Error taxonomy shared by ingestion, indexing and answering
// ABOUTME: Sentinels are matched with errors.Is after wrapping
package models

import "errors"

var (
	// ErrExtractionFailed means a document could not be read into text
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEmbeddingUnavailable means the embedding model could not be reached
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrEmptyInput means blank text was handed to a provider
	ErrEmptyInput = errors.New("empty input")

	// ErrCollectionNotFound means the named collection has not been built yet
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrGenerationUnavailable means the text generator failed or returned nothing
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrDimensionMismatch means a vector's size differs from its collection's
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmptyResult means a search returned no documents
	ErrEmptyResult = errors.New("no matching documents")
)
