// ABOUTME: Collection and entry persistence for the SQLite vector index
// ABOUTME: Vectors are stored as BLOBs and searched by brute-force cosine distance
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/storage"
)

// Store handles collection and entry persistence
type Store struct {
	db *DB
}

// NewStore creates a new Store
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Collection returns the named collection with its entry count
func (s *Store) Collection(ctx context.Context, name string) (*models.CollectionInfo, error) {
	var (
		info        models.CollectionInfo
		fingerprint sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT c.name, c.id, c.distance, c.dimension, c.fingerprint, c.created_at,
		       (SELECT COUNT(*) FROM entries e WHERE e.collection = c.name)
		FROM collections c
		WHERE c.name = ?
	`, name).Scan(&info.Name, &info.ID, &info.Distance, &info.Dimension, &fingerprint, &info.CreatedAt, &info.Entries)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, models.ErrCollectionNotFound)
	}
	if err != nil {
		return nil, err
	}
	if fingerprint.Valid {
		info.Fingerprint = fingerprint.String
	}

	return &info, nil
}

// CreateCollection creates an empty collection
func (s *Store) CreateCollection(ctx context.Context, info models.CollectionInfo) error {
	if info.Distance == "" {
		info.Distance = storage.DistanceCosine
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, id, distance, dimension, fingerprint, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, info.Name, info.ID, info.Distance, info.Dimension, nullString(info.Fingerprint), info.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", info.Name, err)
	}
	return nil
}

// DropCollection deletes a collection and its entries; a missing collection is not an error
func (s *Store) DropCollection(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE collection = ?", name); err != nil {
		return fmt.Errorf("failed to delete entries of %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	return tx.Commit()
}

// UpdateCollection stores the dimension and fingerprint of a built collection
func (s *Store) UpdateCollection(ctx context.Context, info models.CollectionInfo) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE collections SET dimension = ?, fingerprint = ? WHERE name = ?
	`, info.Dimension, nullString(info.Fingerprint), info.Name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", info.Name, models.ErrCollectionNotFound)
	}
	return nil
}

// Insert adds entries to a collection in one transaction
func (s *Store) Insert(ctx context.Context, collection string, entries []models.IndexEntry) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (collection, id, text, metadata, vector)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, entry := range entries {
		meta, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata of %s: %w", entry.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, entry.ID, entry.Text, string(meta), vectorToBlob(entry.Vector)); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", entry.ID, err)
		}
	}

	return tx.Commit()
}

// Entries returns every entry of a collection ordered by id
func (s *Store) Entries(ctx context.Context, collection string) ([]models.IndexEntry, error) {
	if _, err := s.Collection(ctx, collection); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, metadata, vector
		FROM entries
		WHERE collection = ?
		ORDER BY CAST(id AS INTEGER), id
	`, collection)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []models.IndexEntry
	for rows.Next() {
		var (
			entry models.IndexEntry
			meta  sql.NullString
			blob  []byte
		)
		if err := rows.Scan(&entry.ID, &entry.Text, &meta, &blob); err != nil {
			return nil, err
		}
		entry.Metadata = parseMetadata(meta)
		entry.Vector = blobToVector(blob)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
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

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, metadata, vector
		FROM entries
		WHERE collection = ?
	`, collection)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []models.SearchResult
	for rows.Next() {
		var (
			result models.SearchResult
			meta   sql.NullString
			blob   []byte
		)
		if err := rows.Scan(&result.ID, &result.Text, &meta, &blob); err != nil {
			return nil, err
		}
		result.Metadata = parseMetadata(meta)
		result.Distance = storage.CosineDistance(vector, blobToVector(blob))
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return storage.Rank(results, k), nil
}

func parseMetadata(meta sql.NullString) map[string]string {
	if !meta.Valid || meta.String == "" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(meta.String), &m); err != nil {
		return nil
	}
	return m
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// vectorToBlob converts a float64 slice to binary blob
func vectorToBlob(vector []float64) []byte {
	blob := make([]byte, len(vector)*8)
	for i, v := range vector {
		binary.LittleEndian.PutUint64(blob[i*8:], math.Float64bits(v))
	}
	return blob
}

// blobToVector converts a binary blob to float64 slice
func blobToVector(blob []byte) []float64 {
	count := len(blob) / 8
	vector := make([]float64, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint64(blob[i*8:])
		vector[i] = math.Float64frombits(bits)
	}
	return vector
}
