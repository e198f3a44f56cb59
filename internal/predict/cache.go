package predict

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// cacheVersion is stored in PRAGMA user_version. Caches written with
// another version are rebuilt.
const cacheVersion = 1

const cacheSchema = `
CREATE TABLE IF NOT EXISTS words (
    word    TEXT PRIMARY KEY,
    rank    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
    key     TEXT PRIMARY KEY,
    value   TEXT NOT NULL
);
`

// Cache stores a parsed word list in SQLite so later starts skip parsing.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the cache database at path.
func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Valid reports whether the cache was written by this version from a
// source at least as old as sourceModTime.
func (c *Cache) Valid(ctx context.Context, sourceModTime time.Time) (bool, error) {
	var version int
	if err := c.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return false, fmt.Errorf("read cache version: %w", err)
	}
	if version != cacheVersion {
		return false, nil
	}

	var builtFrom int64
	err := c.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'source_mtime'").Scan(&builtFrom)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read cache metadata: %w", err)
	}
	return builtFrom >= sourceModTime.UnixNano(), nil
}

// Store replaces the cached words with entries built from a source last
// modified at sourceModTime.
func (c *Cache) Store(ctx context.Context, entries []Entry, sourceModTime time.Time) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM words"); err != nil {
		return fmt.Errorf("clear words: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO words (word, rank) VALUES (?, ?)
		ON CONFLICT(word) DO UPDATE SET rank = MIN(rank, excluded.rank)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Word, e.Rank); err != nil {
			return fmt.Errorf("insert word %q: %w", e.Word, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('source_mtime', ?)",
		sourceModTime.UnixNano()); err != nil {
		return fmt.Errorf("write cache metadata: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", cacheVersion)); err != nil {
		return fmt.Errorf("write cache version: %w", err)
	}
	return tx.Commit()
}

// Entries returns the cached words ordered by rank.
func (c *Cache) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT word, rank FROM words ORDER BY rank, word")
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Word, &e.Rank); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
