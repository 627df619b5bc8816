// ABOUTME: Document and Chunk types produced during ingestion
// ABOUTME: A chunk is a bounded slice of document text with optional overlap prefix
package models

import "strings"

// Document is a source file after text extraction
type Document struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// Chunk is an indexable unit of document text.
// Text includes Overlap when the chunk borrowed sentences from its predecessor.
type Chunk struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Overlap string `json:"overlap,omitempty"`
	Section string `json:"section,omitempty"`
	Source  string `json:"source,omitempty"`
}

// OwnText returns the chunk text without the borrowed overlap prefix
func (c Chunk) OwnText() string {
	if c.Overlap == "" {
		return c.Text
	}
	return strings.TrimSpace(strings.TrimPrefix(c.Text, c.Overlap))
}

// WordCount returns the number of whitespace separated words in the chunk's own text
func (c Chunk) WordCount() int {
	return len(strings.Fields(c.OwnText()))
}
