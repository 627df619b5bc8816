// ABOUTME: Ingestion pipeline reading a document directory into the vector index
// ABOUTME: Extract, chunk, assign ids, fingerprint, then rebuild the collection wholesale
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/chunker"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/index"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// ErrNoChunks means the directory held nothing that could be indexed
var ErrNoChunks = errors.New("no chunks produced")

// Indexer is the part of the vector index the pipeline writes to
type Indexer interface {
	Rebuild(ctx context.Context, chunks []models.Chunk, embedder index.Embedder, fingerprint string) (index.RebuildStats, error)
	Fingerprint(ctx context.Context) (string, error)
}

// Options configures a Pipeline
type Options struct {
	// Settings identifies the chunking configuration in the fingerprint
	Settings   string
	Extractors map[string]Extractor
	Logger     *slog.Logger
}

// Pipeline is the only writer of the index
type Pipeline struct {
	chunker    chunker.Chunker
	index      Indexer
	embedder   index.Embedder
	extractors map[string]Extractor
	settings   string
	logger     *slog.Logger

	// runs are serialized so a watcher and an HTTP trigger cannot overlap
	mu sync.Mutex
}

// New creates a Pipeline
func New(ch chunker.Chunker, idx Indexer, embedder index.Embedder, opts Options) *Pipeline {
	if opts.Extractors == nil {
		opts.Extractors = DefaultExtractors()
	}
	return &Pipeline{
		chunker:    ch,
		index:      idx,
		embedder:   embedder,
		extractors: opts.Extractors,
		settings:   opts.Settings,
		logger:     logging.OrDefault(opts.Logger),
	}
}

// Supported reports whether the pipeline has an extractor for path
func (p *Pipeline) Supported(path string) bool {
	_, ok := p.extractors[extension(path)]
	return ok
}

// Load extracts every supported file under dir. Unreadable files are logged and counted, not fatal.
func (p *Pipeline) Load(ctx context.Context, dir string) ([]models.Document, int, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !p.Supported(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read documents directory: %w", err)
	}
	sort.Strings(paths)

	docs := make([]models.Document, 0, len(paths))
	skipped := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, skipped, err
		}

		text, err := p.extractors[extension(path)].Extract(path)
		if err == nil && strings.TrimSpace(text) == "" {
			err = fmt.Errorf("%w: %s: no text", models.ErrExtractionFailed, path)
		}
		if err != nil {
			p.logger.Warn("skipping document", "path", path, "error", err)
			skipped++
			continue
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = path
		}
		docs = append(docs, models.Document{Path: filepath.ToSlash(rel), Text: text})
	}
	return docs, skipped, nil
}

// Chunk splits documents and assigns sequential ids across the whole run
func (p *Pipeline) Chunk(docs []models.Document) []models.Chunk {
	var chunks []models.Chunk
	for _, doc := range docs {
		for _, c := range p.chunker.Chunk(doc.Text) {
			c.ID = strconv.Itoa(len(chunks))
			c.Source = doc.Path
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// Run ingests dir and rebuilds the index
func (p *Pipeline) Run(ctx context.Context, dir string) (models.IngestStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	stats := models.IngestStats{
		RunID:     uuid.New().String(),
		Directory: dir,
	}
	logger := p.logger.With("run_id", stats.RunID)

	docs, skipped, err := p.Load(ctx, dir)
	stats.FilesSkipped = skipped
	if err != nil {
		stats.Duration = time.Since(start)
		return stats, err
	}
	stats.Files = len(docs)

	stats.Fingerprint, err = Fingerprint(docs, p.settings)
	if err != nil {
		stats.Duration = time.Since(start)
		return stats, fmt.Errorf("failed to fingerprint documents: %w", err)
	}

	chunks := p.Chunk(docs)
	stats.ChunksProduced = len(chunks)
	if len(chunks) == 0 {
		stats.Duration = time.Since(start)
		logger.Warn("nothing to ingest", "directory", dir, "files", stats.Files, "skipped", skipped)
		return stats, fmt.Errorf("%s: %w", dir, ErrNoChunks)
	}

	logger.Info("indexing documents", "files", stats.Files, "chunks", stats.ChunksProduced)
	rs, err := p.index.Rebuild(ctx, chunks, p.embedder, stats.Fingerprint)
	stats.ChunksIndexed = rs.Indexed
	stats.ChunksFailed = rs.Failed
	stats.Duration = time.Since(start)
	if err != nil {
		return stats, err
	}

	logger.Info("ingestion complete",
		"files", stats.Files,
		"skipped", stats.FilesSkipped,
		"produced", stats.ChunksProduced,
		"indexed", stats.ChunksIndexed,
		"failed", stats.ChunksFailed,
		"duration", stats.Duration)
	return stats, nil
}

// Fresh reports whether the index was built from exactly the documents now in dir
func (p *Pipeline) Fresh(ctx context.Context, dir string) (bool, error) {
	stored, err := p.index.Fingerprint(ctx)
	if errors.Is(err, models.ErrCollectionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored == "" {
		return false, nil
	}

	docs, _, err := p.Load(ctx, dir)
	if err != nil {
		return false, err
	}
	current, err := Fingerprint(docs, p.settings)
	if err != nil {
		return false, err
	}
	return current == stored, nil
}

// RunIfStale runs the pipeline unless the index is already fresh or force is set
func (p *Pipeline) RunIfStale(ctx context.Context, dir string, force bool) (models.IngestStats, error) {
	if !force {
		fresh, err := p.Fresh(ctx, dir)
		if err != nil {
			p.logger.Warn("could not compare fingerprints, rebuilding", "error", err)
		}
		if fresh {
			p.logger.Info("documents unchanged, skipping rebuild", "directory", dir)
			return models.IngestStats{Directory: dir, Skipped: true}, nil
		}
	}
	return p.Run(ctx, dir)
}
