// ABOUTME: Vector index backend storing collections and entries as JSON in charm KV
// ABOUTME: Search is brute-force cosine distance over the collection's entry keys
package charm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/storage"
)

// Key prefixes for stored records
const (
	CollectionPrefix = "collection:"
	EntryPrefix      = "entry:"
)

// KV is the subset of Client the store needs
type KV interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	ListKeys(prefix string) ([]string, error)
	SyncIfEnabled() error
}

// CollectionKey generates the key of a collection record
func CollectionKey(name string) string {
	return CollectionPrefix + name
}

// EntryKeyPrefix generates the key prefix shared by a collection's entries
func EntryKeyPrefix(collection string) string {
	return EntryPrefix + collection + ":"
}

// EntryKey generates the key of one entry
func EntryKey(collection, id string) string {
	return EntryKeyPrefix(collection) + id
}

// Store is a charm KV backed collection store
type Store struct {
	kv     KV
	closer func() error
}

// NewStore creates a store over kv. When kv is a *Client, Close closes it.
func NewStore(kv KV) *Store {
	s := &Store{kv: kv}
	if c, ok := kv.(*Client); ok {
		s.closer = c.Close
	}
	return s
}

// Close releases the underlying client
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

func (s *Store) getJSON(key string, dest any) error {
	data, err := s.kv.Get(key)
	if err != nil {
		return err
	}
	if data == nil {
		return fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return json.Unmarshal(data, dest)
}

func (s *Store) setJSON(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return s.kv.Set(key, data)
}

// Collection returns the named collection with its entry count
func (s *Store) Collection(ctx context.Context, name string) (*models.CollectionInfo, error) {
	var info models.CollectionInfo
	if err := s.getJSON(CollectionKey(name), &info); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", name, models.ErrCollectionNotFound)
		}
		return nil, err
	}

	keys, err := s.kv.ListKeys(EntryKeyPrefix(name))
	if err != nil {
		return nil, err
	}
	info.Entries = len(keys)

	return &info, nil
}

// CreateCollection creates an empty collection
func (s *Store) CreateCollection(ctx context.Context, info models.CollectionInfo) error {
	if _, err := s.Collection(ctx, info.Name); err == nil {
		return fmt.Errorf("collection %s already exists", info.Name)
	}
	if info.Distance == "" {
		info.Distance = storage.DistanceCosine
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now()
	}
	info.Entries = 0

	if err := s.setJSON(CollectionKey(info.Name), info); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", info.Name, err)
	}
	return s.kv.SyncIfEnabled()
}

// DropCollection deletes a collection and its entries; a missing collection is not an error
func (s *Store) DropCollection(ctx context.Context, name string) error {
	keys, err := s.kv.ListKeys(EntryKeyPrefix(name))
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.kv.Delete(key); err != nil {
			return err
		}
	}

	if _, err := s.kv.Get(CollectionKey(name)); err == nil {
		if err := s.kv.Delete(CollectionKey(name)); err != nil {
			return err
		}
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	return s.kv.SyncIfEnabled()
}

// UpdateCollection stores the dimension and fingerprint of a built collection
func (s *Store) UpdateCollection(ctx context.Context, info models.CollectionInfo) error {
	var stored models.CollectionInfo
	if err := s.getJSON(CollectionKey(info.Name), &stored); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%s: %w", info.Name, models.ErrCollectionNotFound)
		}
		return err
	}

	stored.Dimension = info.Dimension
	stored.Fingerprint = info.Fingerprint
	if err := s.setJSON(CollectionKey(info.Name), stored); err != nil {
		return err
	}
	return s.kv.SyncIfEnabled()
}

// Insert adds entries to a collection
func (s *Store) Insert(ctx context.Context, collection string, entries []models.IndexEntry) error {
	if _, err := s.Collection(ctx, collection); err != nil {
		return err
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.setJSON(EntryKey(collection, entry.ID), entry); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", entry.ID, err)
		}
	}

	return s.kv.SyncIfEnabled()
}

// Entries returns every entry of a collection ordered by id
func (s *Store) Entries(ctx context.Context, collection string) ([]models.IndexEntry, error) {
	if _, err := s.Collection(ctx, collection); err != nil {
		return nil, err
	}

	keys, err := s.kv.ListKeys(EntryKeyPrefix(collection))
	if err != nil {
		return nil, fmt.Errorf("failed to list entry keys: %w", err)
	}

	entries := make([]models.IndexEntry, 0, len(keys))
	for _, key := range keys {
		var entry models.IndexEntry
		if err := s.getJSON(key, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return idLess(entries[i].ID, entries[j].ID)
	})
	return entries, nil
}

// Search performs brute-force cosine distance search
func (s *Store) Search(ctx context.Context, collection string, vector []float64, k int) ([]models.SearchResult, error) {
	info, err := s.Collection(ctx, collection)
	if err != nil {
		return nil, err
	}
	if err := storage.CheckDimension(info, vector); err != nil {
		return nil, err
	}

	entries, err := s.Entries(ctx, collection)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, models.SearchResult{
			ID:       entry.ID,
			Distance: storage.CosineDistance(vector, entry.Vector),
			Text:     entry.Text,
			Metadata: entry.Metadata,
		})
	}

	return storage.Rank(results, k), nil
}

// Repair deletes entries whose collection record is gone, which can happen when
// two devices rebuild the same collection concurrently and sync afterwards.
func (s *Store) Repair(ctx context.Context) (int, error) {
	keys, err := s.kv.ListKeys(EntryPrefix)
	if err != nil {
		return 0, err
	}

	known := map[string]bool{}
	removed := 0
	for _, key := range keys {
		collection, _, ok := strings.Cut(strings.TrimPrefix(key, EntryPrefix), ":")
		if !ok {
			continue
		}

		exists, seen := known[collection]
		if !seen {
			_, err := s.kv.Get(CollectionKey(collection))
			exists = err == nil
			known[collection] = exists
		}
		if exists {
			continue
		}

		if err := s.kv.Delete(key); err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		return removed, s.kv.SyncIfEnabled()
	}
	return 0, nil
}

// idLess orders numeric ids numerically and everything else lexically
func idLess(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
