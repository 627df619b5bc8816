// ABOUTME: Ingestion statistics reported by one pipeline run
// ABOUTME: Owned by the caller, never kept as package state
package models

import "time"

// IngestStats summarises one ingestion run
type IngestStats struct {
	RunID          string        `json:"run_id"`
	Directory      string        `json:"directory"`
	Files          int           `json:"files"`
	FilesSkipped   int           `json:"files_skipped"`
	ChunksProduced int           `json:"chunks_produced"`
	ChunksIndexed  int           `json:"chunks_indexed"`
	ChunksFailed   int           `json:"chunks_failed"`
	Fingerprint    string        `json:"fingerprint"`
	Skipped        bool          `json:"skipped,omitempty"`
	Duration       time.Duration `json:"duration"`
}
