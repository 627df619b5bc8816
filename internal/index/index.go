// ABOUTME: Vector index over a single named collection with an Empty/Building/Ready lifecycle
// ABOUTME: Rebuild is exclusive and embeds chunks on a bounded worker pool
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/logging"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/storage"
)

// ErrNothingIndexed is returned when a rebuild inserted zero entries
var ErrNothingIndexed = errors.New("no chunks were indexed")

// State is the lifecycle phase of the index
type State int

const (
	StateEmpty State = iota
	StateBuilding
	StateReady
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	default:
		return "empty"
	}
}

// Options configures an Index
type Options struct {
	Workers int
	Logger  *slog.Logger
}

// RebuildStats reports the outcome of a rebuild
type RebuildStats struct {
	Indexed   int           `json:"indexed"`
	Failed    int           `json:"failed"`
	Dimension int           `json:"dimension"`
	Duration  time.Duration `json:"duration"`
}

// Index owns one collection in a Backend
type Index struct {
	backend    Backend
	collection string
	workers    int
	logger     *slog.Logger

	writeMu sync.Mutex // serializes rebuilds

	mu    sync.RWMutex
	state State
}

// Open binds an Index to a collection; an existing non-empty collection starts Ready
func Open(ctx context.Context, backend Backend, collection string, opts Options) (*Index, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	idx := &Index{
		backend:    backend,
		collection: collection,
		workers:    opts.Workers,
		logger:     logging.OrDefault(opts.Logger),
	}

	info, err := backend.Collection(ctx, collection)
	switch {
	case errors.Is(err, models.ErrCollectionNotFound):
		idx.state = StateEmpty
	case err != nil:
		return nil, fmt.Errorf("failed to open collection %s: %w", collection, err)
	case info.Entries > 0:
		idx.state = StateReady
	}

	return idx, nil
}

// Name returns the collection name
func (idx *Index) Name() string {
	return idx.collection
}

// State returns the current lifecycle phase
func (idx *Index) State() State {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.state
}

// Refresh re-reads the collection from the backend, which another process may have
// rebuilt or dropped since Open. An in-progress rebuild in this process wins.
func (idx *Index) Refresh(ctx context.Context) (State, error) {
	if s := idx.State(); s == StateBuilding {
		return s, nil
	}

	next := StateEmpty
	info, err := idx.backend.Collection(ctx, idx.collection)
	switch {
	case errors.Is(err, models.ErrCollectionNotFound):
	case err != nil:
		return idx.State(), fmt.Errorf("failed to read collection %s: %w", idx.collection, err)
	case info.Entries > 0:
		next = StateReady
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.state != StateBuilding {
		idx.state = next
	}
	return idx.state, nil
}

func (idx *Index) setState(s State) {
	idx.mu.Lock()
	idx.state = s
	idx.mu.Unlock()
}

// Rebuild drops the collection, recreates it and indexes every chunk that embeds successfully.
// Chunk ids must be assigned by the caller.
func (idx *Index) Rebuild(ctx context.Context, chunks []models.Chunk, embedder Embedder, fingerprint string) (RebuildStats, error) {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	start := time.Now()
	idx.setState(StateBuilding)

	stats, err := idx.rebuild(ctx, chunks, embedder, fingerprint)
	stats.Duration = time.Since(start)
	if err != nil {
		// leave no half-built collection behind
		if dropErr := idx.backend.DropCollection(context.WithoutCancel(ctx), idx.collection); dropErr != nil {
			idx.logger.Warn("failed to drop collection after rebuild error", "collection", idx.collection, "error", dropErr)
		}
		idx.setState(StateEmpty)
		return stats, err
	}

	idx.setState(StateReady)
	idx.logger.Info("index rebuilt",
		"collection", idx.collection,
		"indexed", stats.Indexed,
		"failed", stats.Failed,
		"dimension", stats.Dimension,
		"duration", stats.Duration)
	return stats, nil
}

func (idx *Index) rebuild(ctx context.Context, chunks []models.Chunk, embedder Embedder, fingerprint string) (RebuildStats, error) {
	var stats RebuildStats

	if err := idx.backend.DropCollection(ctx, idx.collection); err != nil {
		return stats, fmt.Errorf("failed to drop collection: %w", err)
	}
	info := models.CollectionInfo{
		Name:     idx.collection,
		ID:       uuid.New().String(),
		Distance: storage.DistanceCosine,
	}
	if err := idx.backend.CreateCollection(ctx, info); err != nil {
		return stats, err
	}

	vectors := make([][]float64, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)
	for i, chunk := range chunks {
		g.Go(func() error {
			vec, err := embedder.Embed(gctx, chunk.Text)
			if err != nil {
				// per-chunk failures are skipped, only cancellation aborts the pool
				if gctx.Err() != nil {
					return gctx.Err()
				}
				idx.logger.Warn("failed to embed chunk", "chunk_id", chunk.ID, "source", chunk.Source, "error", err)
				return nil
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("rebuild cancelled: %w", err)
	}

	entries := make([]models.IndexEntry, 0, len(chunks))
	seen := make(map[string]bool, len(chunks))
	for i, chunk := range chunks {
		vec := vectors[i]
		if vec == nil {
			stats.Failed++
			continue
		}
		if seen[chunk.ID] {
			idx.logger.Warn("skipping chunk with duplicate id", "chunk_id", chunk.ID, "source", chunk.Source)
			stats.Failed++
			continue
		}
		if stats.Dimension == 0 {
			stats.Dimension = len(vec)
		}

		entry := models.IndexEntry{
			ID:       chunk.ID,
			Vector:   vec,
			Text:     chunk.Text,
			Metadata: entryMetadata(chunk),
		}
		if err := entry.ValidateDimension(stats.Dimension); err != nil {
			idx.logger.Warn("skipping chunk", "error", err)
			stats.Failed++
			continue
		}
		seen[chunk.ID] = true
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return stats, ErrNothingIndexed
	}

	if err := idx.backend.Insert(ctx, idx.collection, entries); err != nil {
		return stats, fmt.Errorf("failed to insert entries: %w", err)
	}
	stats.Indexed = len(entries)

	info.Dimension = stats.Dimension
	info.Fingerprint = fingerprint
	if err := idx.backend.UpdateCollection(ctx, info); err != nil {
		return stats, fmt.Errorf("failed to record collection dimension: %w", err)
	}

	return stats, nil
}

func entryMetadata(chunk models.Chunk) map[string]string {
	meta := map[string]string{
		models.MetaSource:  chunk.Source,
		models.MetaChunkID: chunk.ID,
	}
	if chunk.Section != "" {
		meta[models.MetaSection] = chunk.Section
	}
	return meta
}

// Search returns up to k nearest entries; models.ErrCollectionNotFound until the index is Ready
func (idx *Index) Search(ctx context.Context, vector []float64, k int) ([]models.SearchResult, error) {
	state, err := idx.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if state != StateReady {
		return nil, fmt.Errorf("%s is %s: %w", idx.collection, state, models.ErrCollectionNotFound)
	}
	if k <= 0 {
		return nil, nil
	}

	return idx.backend.Search(ctx, idx.collection, vector, k)
}

// Info returns the persisted collection description
func (idx *Index) Info(ctx context.Context) (*models.CollectionInfo, error) {
	return idx.backend.Collection(ctx, idx.collection)
}

// Count returns the number of indexed entries, zero when the collection is missing
func (idx *Index) Count(ctx context.Context) (int, error) {
	info, err := idx.Info(ctx)
	if errors.Is(err, models.ErrCollectionNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Entries, nil
}

// Fingerprint returns the corpus fingerprint recorded by the last rebuild
func (idx *Index) Fingerprint(ctx context.Context) (string, error) {
	info, err := idx.Info(ctx)
	if err != nil {
		return "", err
	}
	return info.Fingerprint, nil
}
