// ABOUTME: Tests for the charm KV index backend using an in-memory KV
// ABOUTME: Covers collection lifecycle, search ordering and orphan repair
package charm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

type memKV struct {
	mu    sync.Mutex
	data  map[string][]byte
	syncs int
}

func newMemKV() *memKV {
	return &memKV{data: map[string][]byte{}}
}

func (m *memKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return v, nil
}

func (m *memKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memKV) ListKeys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memKV) SyncIfEnabled() error {
	m.mu.Lock()
	m.syncs++
	m.mu.Unlock()
	return nil
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.CreateCollection(ctx, models.CollectionInfo{Name: "gbu_docs", ID: "c1"}); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	entries := []models.IndexEntry{
		{ID: "10", Vector: []float64{0, 1, 0}, Text: "hostel", Metadata: map[string]string{models.MetaSource: "b.txt"}},
		{ID: "2", Vector: []float64{1, 0, 0}, Text: "admissions", Metadata: map[string]string{models.MetaSource: "a.txt"}},
		{ID: "3", Vector: []float64{0.9, 0.1, 0}, Text: "fees", Metadata: map[string]string{models.MetaSource: "c.txt"}},
	}
	if err := s.Insert(ctx, "gbu_docs", entries); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
}

func TestStore_CollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	s := NewStore(kv)

	if _, err := s.Collection(ctx, "gbu_docs"); !errors.Is(err, models.ErrCollectionNotFound) {
		t.Fatalf("Collection() error = %v, want ErrCollectionNotFound", err)
	}
	if err := s.DropCollection(ctx, "gbu_docs"); err != nil {
		t.Fatalf("DropCollection() on missing collection error = %v", err)
	}

	seed(t, s)

	if err := s.CreateCollection(ctx, models.CollectionInfo{Name: "gbu_docs"}); err == nil {
		t.Error("CreateCollection() should fail for an existing collection")
	}

	if err := s.UpdateCollection(ctx, models.CollectionInfo{Name: "gbu_docs", Dimension: 3, Fingerprint: "fp"}); err != nil {
		t.Fatalf("UpdateCollection() error = %v", err)
	}

	info, err := s.Collection(ctx, "gbu_docs")
	if err != nil {
		t.Fatalf("Collection() error = %v", err)
	}
	if info.Entries != 3 || info.Dimension != 3 || info.Fingerprint != "fp" || info.Distance != "cosine" {
		t.Errorf("Collection() = %+v", info)
	}
	if info.ID != "c1" {
		t.Errorf("UpdateCollection() lost the collection id: %q", info.ID)
	}

	if err := s.DropCollection(ctx, "gbu_docs"); err != nil {
		t.Fatalf("DropCollection() error = %v", err)
	}
	if len(kv.data) != 0 {
		t.Errorf("DropCollection() left %d keys behind", len(kv.data))
	}
	if kv.syncs == 0 {
		t.Error("writes should trigger a sync")
	}
}

func TestStore_UpdateMissingCollection(t *testing.T) {
	s := NewStore(newMemKV())
	err := s.UpdateCollection(context.Background(), models.CollectionInfo{Name: "nope"})
	if !errors.Is(err, models.ErrCollectionNotFound) {
		t.Errorf("UpdateCollection() error = %v, want ErrCollectionNotFound", err)
	}
}

func TestStore_InsertIntoMissingCollection(t *testing.T) {
	s := NewStore(newMemKV())
	err := s.Insert(context.Background(), "nope", []models.IndexEntry{{ID: "0", Vector: []float64{1}}})
	if !errors.Is(err, models.ErrCollectionNotFound) {
		t.Errorf("Insert() error = %v, want ErrCollectionNotFound", err)
	}
}

func TestStore_EntriesOrderedNumerically(t *testing.T) {
	s := NewStore(newMemKV())
	seed(t, s)

	entries, err := s.Entries(context.Background(), "gbu_docs")
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	if strings.Join(ids, ",") != "2,3,10" {
		t.Errorf("Entries() ids = %v, want [2 3 10]", ids)
	}
}

func TestStore_Search(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMemKV())
	seed(t, s)

	results, err := s.Search(ctx, "gbu_docs", []float64{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	if results[0].ID != "2" || results[0].Source() != "a.txt" {
		t.Errorf("top result = %+v, want id 2 from a.txt", results[0])
	}
	if results[0].Distance > results[1].Distance {
		t.Errorf("results not ascending: %f > %f", results[0].Distance, results[1].Distance)
	}

	if _, err := s.Search(ctx, "missing", []float64{1, 0, 0}, 2); !errors.Is(err, models.ErrCollectionNotFound) {
		t.Errorf("Search() on missing collection error = %v", err)
	}
}

func TestStore_SearchDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMemKV())
	seed(t, s)
	if err := s.UpdateCollection(ctx, models.CollectionInfo{Name: "gbu_docs", Dimension: 3}); err != nil {
		t.Fatalf("UpdateCollection() error = %v", err)
	}

	if _, err := s.Search(ctx, "gbu_docs", []float64{1, 0}, 2); !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("Search() error = %v, want ErrDimensionMismatch", err)
	}
	if _, err := s.Search(ctx, "gbu_docs", []float64{1, 0, 0}, 2); err != nil {
		t.Errorf("Search() with matching dimension error = %v", err)
	}
}

func TestStore_Repair(t *testing.T) {
	ctx := context.Background()
	kv := newMemKV()
	s := NewStore(kv)
	seed(t, s)

	// orphans left by a collection dropped on another device
	_ = kv.Set(EntryKey("old_docs", "0"), []byte(`{"id":"0"}`))
	_ = kv.Set(EntryKey("old_docs", "1"), []byte(`{"id":"1"}`))

	removed, err := s.Repair(ctx)
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Repair() removed %d, want 2", removed)
	}

	info, err := s.Collection(ctx, "gbu_docs")
	if err != nil || info.Entries != 3 {
		t.Errorf("Repair() touched a live collection: %+v, %v", info, err)
	}

	removed, err = s.Repair(ctx)
	if err != nil || removed != 0 {
		t.Errorf("second Repair() = %d, %v, want 0, nil", removed, err)
	}
}

func TestKeys(t *testing.T) {
	if got := CollectionKey("gbu_docs"); got != "collection:gbu_docs" {
		t.Errorf("CollectionKey() = %s", got)
	}
	if got := EntryKey("gbu_docs", "7"); got != "entry:gbu_docs:7" {
		t.Errorf("EntryKey() = %s", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Setenv("CHARM_HOST", "")
	cfg := DefaultConfig()
	if cfg.Host != "charm.2389.dev" || cfg.DBName != "naradmuni" || !cfg.AutoSync {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}

	t.Setenv("CHARM_HOST", "charm.example.com")
	if got := DefaultConfig().Host; got != "charm.example.com" {
		t.Errorf("DefaultConfig().Host = %s", got)
	}
}
