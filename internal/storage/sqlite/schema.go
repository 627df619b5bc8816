// ABOUTME: SQLite database schema for the vector index
// ABOUTME: One row per named collection, entries cascade when a collection is dropped
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Named collections (one per logical index)
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    distance TEXT NOT NULL DEFAULT 'cosine',
    dimension INTEGER NOT NULL DEFAULT 0,
    fingerprint TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Index entries (chunk text + embedding)
CREATE TABLE IF NOT EXISTS entries (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    text TEXT NOT NULL,
    metadata TEXT,
    vector BLOB NOT NULL,
    PRIMARY KEY (collection, id),
    FOREIGN KEY (collection) REFERENCES collections(name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_entries_collection ON entries(collection);
`
