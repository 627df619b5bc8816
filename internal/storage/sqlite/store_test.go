// ABOUTME: Tests for collection and entry persistence
// ABOUTME: Verifies create/drop lifecycle, BLOB round trips and distance ordering
package sqlite

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	store := NewStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testEntries() []models.IndexEntry {
	return []models.IndexEntry{
		{ID: "0", Vector: []float64{1, 0, 0}, Text: "admissions", Metadata: map[string]string{models.MetaSource: "a.txt", models.MetaChunkID: "0"}},
		{ID: "1", Vector: []float64{0, 1, 0}, Text: "hostel", Metadata: map[string]string{models.MetaSource: "b.txt", models.MetaChunkID: "1"}},
		{ID: "2", Vector: []float64{0.9, 0.1, 0}, Text: "fees", Metadata: map[string]string{models.MetaSource: "a.txt", models.MetaChunkID: "2"}},
	}
}

func TestStore_CollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Collection(ctx, "gbu_docs")
	if !errors.Is(err, models.ErrCollectionNotFound) {
		t.Fatalf("Collection() before create error = %v, want ErrCollectionNotFound", err)
	}

	// dropping a missing collection is fine
	if err := store.DropCollection(ctx, "gbu_docs"); err != nil {
		t.Fatalf("DropCollection() on missing collection error = %v", err)
	}

	if err := store.CreateCollection(ctx, models.CollectionInfo{Name: "gbu_docs", ID: "col-1"}); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	if err := store.CreateCollection(ctx, models.CollectionInfo{Name: "gbu_docs", ID: "col-2"}); err == nil {
		t.Error("CreateCollection() twice should fail")
	}

	if err := store.Insert(ctx, "gbu_docs", testEntries()); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := store.UpdateCollection(ctx, models.CollectionInfo{Name: "gbu_docs", Dimension: 3, Fingerprint: "abc"}); err != nil {
		t.Fatalf("UpdateCollection() error = %v", err)
	}

	info, err := store.Collection(ctx, "gbu_docs")
	if err != nil {
		t.Fatalf("Collection() error = %v", err)
	}
	if info.ID != "col-1" || info.Distance != "cosine" || info.Dimension != 3 || info.Fingerprint != "abc" || info.Entries != 3 {
		t.Errorf("Collection() = %+v", info)
	}

	if err := store.DropCollection(ctx, "gbu_docs"); err != nil {
		t.Fatalf("DropCollection() error = %v", err)
	}
	if _, err := store.Collection(ctx, "gbu_docs"); !errors.Is(err, models.ErrCollectionNotFound) {
		t.Errorf("Collection() after drop error = %v, want ErrCollectionNotFound", err)
	}

	var remaining int
	if err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&remaining); err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if remaining != 0 {
		t.Errorf("entries after drop = %d, want 0", remaining)
	}
}

func TestStore_UpdateMissingCollection(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateCollection(context.Background(), models.CollectionInfo{Name: "nope", Dimension: 3})
	if !errors.Is(err, models.ErrCollectionNotFound) {
		t.Errorf("UpdateCollection() error = %v, want ErrCollectionNotFound", err)
	}
}

func TestStore_Entries(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Entries(ctx, "gbu_docs"); !errors.Is(err, models.ErrCollectionNotFound) {
		t.Fatalf("Entries() before create error = %v, want ErrCollectionNotFound", err)
	}

	if err := store.CreateCollection(ctx, models.CollectionInfo{Name: "gbu_docs", ID: "c"}); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	if err := store.Insert(ctx, "gbu_docs", testEntries()); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	entries, err := store.Entries(ctx, "gbu_docs")
	if err != nil {
		t.Fatalf("Entries() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Entries() = %d, want 3", len(entries))
	}
	for i, entry := range entries {
		want := testEntries()[i]
		if entry.ID != want.ID || entry.Text != want.Text {
			t.Errorf("entry %d = %s/%s, want %s/%s", i, entry.ID, entry.Text, want.ID, want.Text)
		}
		if entry.Metadata[models.MetaSource] != want.Metadata[models.MetaSource] {
			t.Errorf("entry %d source = %q", i, entry.Metadata[models.MetaSource])
		}
		for j := range want.Vector {
			if math.Abs(entry.Vector[j]-want.Vector[j]) > 1e-12 {
				t.Errorf("entry %d vector[%d] = %f, want %f", i, j, entry.Vector[j], want.Vector[j])
			}
		}
	}
}

func TestStore_Search(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Search(ctx, "gbu_docs", []float64{1, 0, 0}, 3); !errors.Is(err, models.ErrCollectionNotFound) {
		t.Fatalf("Search() before create error = %v, want ErrCollectionNotFound", err)
	}

	if err := store.CreateCollection(ctx, models.CollectionInfo{Name: "gbu_docs", ID: "c"}); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}

	results, err := store.Search(ctx, "gbu_docs", []float64{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() on empty collection error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Search() on empty collection = %d results, want 0", len(results))
	}

	if err := store.Insert(ctx, "gbu_docs", testEntries()); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	results, err = store.Search(ctx, "gbu_docs", []float64{0.95, 0.05, 0}, 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() = %d results, want 2", len(results))
	}
	if results[0].ID != "2" && results[0].ID != "0" {
		t.Errorf("top result = %s, want 0 or 2", results[0].ID)
	}
	if results[1].Distance < results[0].Distance {
		t.Error("results should be in ascending distance order")
	}
	if results[0].Source() != "a.txt" {
		t.Errorf("top result source = %q, want a.txt", results[0].Source())
	}
}

func TestStore_SearchDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.CreateCollection(ctx, models.CollectionInfo{Name: "gbu_docs", ID: "c"}); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	if err := store.Insert(ctx, "gbu_docs", testEntries()); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := store.UpdateCollection(ctx, models.CollectionInfo{Name: "gbu_docs", Dimension: 3}); err != nil {
		t.Fatalf("UpdateCollection() error = %v", err)
	}

	results, err := store.Search(ctx, "gbu_docs", []float64{1, 0, 0, 0, 0}, 2)
	if !errors.Is(err, models.ErrDimensionMismatch) {
		t.Errorf("Search() error = %v, want ErrDimensionMismatch", err)
	}
	if results != nil {
		t.Errorf("Search() returned %d results on mismatch", len(results))
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	store := NewStore(db)
	if err := store.CreateCollection(ctx, models.CollectionInfo{Name: "gbu_docs", ID: "c"}); err != nil {
		t.Fatalf("CreateCollection() error = %v", err)
	}
	if err := store.Insert(ctx, "gbu_docs", testEntries()); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	_ = store.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("re-Open() error = %v", err)
	}
	store = NewStore(db)
	defer func() { _ = store.Close() }()

	info, err := store.Collection(ctx, "gbu_docs")
	if err != nil {
		t.Fatalf("Collection() after reopen error = %v", err)
	}
	if info.Entries != 3 {
		t.Errorf("Entries after reopen = %d, want 3", info.Entries)
	}
}

func TestVectorBlobRoundTrip(t *testing.T) {
	vector := []float64{0, -1.5, math.Pi, 1e-9}
	got := blobToVector(vectorToBlob(vector))
	if len(got) != len(vector) {
		t.Fatalf("length = %d, want %d", len(got), len(vector))
	}
	for i := range vector {
		if got[i] != vector[i] {
			t.Errorf("vector[%d] = %v, want %v", i, got[i], vector[i])
		}
	}
}
