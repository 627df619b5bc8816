// ABOUTME: Postgres vector index backed by the pgvector extension
// ABOUTME: Cosine distance is computed server-side with the <=> operator
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/storage"
)

// Schema creates the extension and both tables
const Schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS narad_collections (
    name TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    distance TEXT NOT NULL DEFAULT 'cosine',
    dimension INTEGER NOT NULL DEFAULT 0,
    fingerprint TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS narad_entries (
    collection TEXT NOT NULL REFERENCES narad_collections(name) ON DELETE CASCADE,
    id TEXT NOT NULL,
    text TEXT NOT NULL,
    metadata JSONB,
    embedding vector NOT NULL,
    PRIMARY KEY (collection, id)
);
`

// Store is a pgvector backed collection store
type Store struct {
	db *sql.DB
}

// Open connects to Postgres and ensures the schema exists
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the connection pool
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
		       (SELECT COUNT(*) FROM narad_entries e WHERE e.collection = c.name)
		FROM narad_collections c
		WHERE c.name = $1
	`, name).Scan(&info.Name, &info.ID, &info.Distance, &info.Dimension, &fingerprint, &info.CreatedAt, &info.Entries)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", name, models.ErrCollectionNotFound)
	}
	if err != nil {
		return nil, err
	}
	info.Fingerprint = fingerprint.String

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
		INSERT INTO narad_collections (name, id, distance, dimension, fingerprint, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
	`, info.Name, info.ID, info.Distance, info.Dimension, info.Fingerprint, info.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", info.Name, err)
	}
	return nil
}

// DropCollection deletes a collection; entries cascade
func (s *Store) DropCollection(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM narad_collections WHERE name = $1`, name); err != nil {
		return fmt.Errorf("failed to delete collection %s: %w", name, err)
	}
	return nil
}

// UpdateCollection stores the dimension and fingerprint of a built collection
func (s *Store) UpdateCollection(ctx context.Context, info models.CollectionInfo) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE narad_collections SET dimension = $1, fingerprint = NULLIF($2, '') WHERE name = $3
	`, info.Dimension, info.Fingerprint, info.Name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", info.Name, models.ErrCollectionNotFound)
	}
	return nil
}

// Insert adds entries in one transaction
func (s *Store) Insert(ctx context.Context, collection string, entries []models.IndexEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, entry := range entries {
		meta, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata of %s: %w", entry.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO narad_entries (collection, id, text, metadata, embedding)
			VALUES ($1, $2, $3, $4, $5)
		`, collection, entry.ID, entry.Text, string(meta), pgvector.NewVector(toFloat32(entry.Vector)))
		if err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", entry.ID, err)
		}
	}

	return tx.Commit()
}

// Entries returns every entry of a collection
func (s *Store) Entries(ctx context.Context, collection string) ([]models.IndexEntry, error) {
	if _, err := s.Collection(ctx, collection); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, metadata, embedding
		FROM narad_entries
		WHERE collection = $1
		ORDER BY length(id), id
	`, collection)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []models.IndexEntry
	for rows.Next() {
		var (
			entry models.IndexEntry
			meta  []byte
			vec   pgvector.Vector
		)
		if err := rows.Scan(&entry.ID, &entry.Text, &meta, &vec); err != nil {
			return nil, err
		}
		entry.Metadata = parseMetadata(meta)
		entry.Vector = toFloat64(vec.Slice())
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Search returns the k nearest entries by cosine distance
func (s *Store) Search(ctx context.Context, collection string, vector []float64, k int) ([]models.SearchResult, error) {
	info, err := s.Collection(ctx, collection)
	if err != nil {
		return nil, err
	}
	if err := storage.CheckDimension(info, vector); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, metadata, embedding <=> $2 AS distance
		FROM narad_entries
		WHERE collection = $1
		ORDER BY distance, id
		LIMIT $3
	`, collection, pgvector.NewVector(toFloat32(vector)), k)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "22000" {
			return nil, fmt.Errorf("query does not match collection %s: %w: %w", collection, models.ErrDimensionMismatch, err)
		}
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []models.SearchResult
	for rows.Next() {
		var (
			result models.SearchResult
			meta   []byte
		)
		if err := rows.Scan(&result.ID, &result.Text, &meta, &result.Distance); err != nil {
			return nil, err
		}
		result.Metadata = parseMetadata(meta)
		results = append(results, result)
	}
	return results, rows.Err()
}

func parseMetadata(raw []byte) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}
