// ABOUTME: Export of an indexed collection for inspection and backup
// ABOUTME: Supports YAML and JSON, vectors are omitted unless requested
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// ExportData is the serialized form of a collection
type ExportData struct {
	Version     string        `yaml:"version" json:"version"`
	ExportedAt  string        `yaml:"exported_at" json:"exported_at"`
	Tool        string        `yaml:"tool" json:"tool"`
	Collection  string        `yaml:"collection" json:"collection"`
	Dimension   int           `yaml:"dimension" json:"dimension"`
	Fingerprint string        `yaml:"fingerprint,omitempty" json:"fingerprint,omitempty"`
	CreatedAt   string        `yaml:"created_at" json:"created_at"`
	Entries     []ExportEntry `yaml:"entries" json:"entries"`
}

// ExportEntry is one exported chunk
type ExportEntry struct {
	ID      string    `yaml:"id" json:"id"`
	Source  string    `yaml:"source,omitempty" json:"source,omitempty"`
	Section string    `yaml:"section,omitempty" json:"section,omitempty"`
	Text    string    `yaml:"text" json:"text"`
	Vector  []float64 `yaml:"vector,omitempty,flow" json:"vector,omitempty"`
}

// Export collects the collection and its entries
func (idx *Index) Export(ctx context.Context, withVectors bool) (*ExportData, error) {
	info, err := idx.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	entries, err := idx.backend.Entries(ctx, idx.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	data := &ExportData{
		Version:     "1.0",
		ExportedAt:  time.Now().Format(time.RFC3339),
		Tool:        "narad",
		Collection:  info.Name,
		Dimension:   info.Dimension,
		Fingerprint: info.Fingerprint,
		CreatedAt:   info.CreatedAt.Format(time.RFC3339),
		Entries:     make([]ExportEntry, 0, len(entries)),
	}

	for _, entry := range entries {
		out := ExportEntry{
			ID:      entry.ID,
			Source:  entry.Metadata[models.MetaSource],
			Section: entry.Metadata[models.MetaSection],
			Text:    entry.Text,
		}
		if withVectors {
			out.Vector = entry.Vector
		}
		data.Entries = append(data.Entries, out)
	}

	return data, nil
}

// WriteExport encodes the collection to w as "yaml" or "json"
func (idx *Index) WriteExport(ctx context.Context, w io.Writer, format string, withVectors bool) error {
	data, err := idx.Export(ctx, withVectors)
	if err != nil {
		return err
	}

	switch format {
	case "yaml", "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return encoder.Close()
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// ExportToFile writes the export to outputPath, creating parent directories
func (idx *Index) ExportToFile(ctx context.Context, outputPath, format string, withVectors bool) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(outputPath) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return idx.WriteExport(ctx, file, format, withVectors)
}
