// Package cache provides SQLite-backed caching of header parse results.
// Generated headers change only when amc runs, so repeated structure queries
// against an unchanged header can skip re-parsing. Entries are keyed by
// header path plus content hash; a stale hash simply misses.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Cache manages the cache.db SQLite database for storing parse results.
type Cache struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the cache database at the given path, creating
// parent directories as needed. It initializes the schema if the database is
// new.
func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	cache := &Cache{db: db, dbPath: dbPath}

	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return cache, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.dbPath
}

// Sum returns the content hash used as a cache key component.
func Sum(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

// Get returns the cached parse result JSON for the header at path with the
// given content hash. A hash mismatch is a miss: the entry belongs to an
// older generation of the header.
func (c *Cache) Get(path, sum string) (string, bool) {
	var gotSum, result string
	err := c.db.QueryRow(
		"SELECT content_sum, result_json FROM parse_results WHERE header_path = ?",
		path,
	).Scan(&gotSum, &result)
	if err != nil || gotSum != sum {
		return "", false
	}
	return result, true
}

// Put stores the parse result JSON for the header at path, replacing any
// entry from an earlier content hash.
func (c *Cache) Put(path, sum, resultJSON string) error {
	_, err := c.db.Exec(
		`INSERT INTO parse_results (header_path, content_sum, result_json, parsed_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(header_path) DO UPDATE SET
		   content_sum = excluded.content_sum,
		   result_json = excluded.result_json,
		   parsed_at = excluded.parsed_at`,
		path, sum, resultJSON, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store parse result: %w", err)
	}
	return nil
}

// Delete removes the entry for one header path.
func (c *Cache) Delete(path string) error {
	_, err := c.db.Exec("DELETE FROM parse_results WHERE header_path = ?", path)
	if err != nil {
		return fmt.Errorf("delete parse result: %w", err)
	}
	return nil
}

// Clear removes all cached parse results.
func (c *Cache) Clear() error {
	_, err := c.db.Exec("DELETE FROM parse_results")
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Stats returns cache statistics.
type Stats struct {
	EntryCount int64
}

// GetStats returns statistics about the cache contents.
func (c *Cache) GetStats() (*Stats, error) {
	var stats Stats
	err := c.db.QueryRow("SELECT COUNT(*) FROM parse_results").Scan(&stats.EntryCount)
	if err != nil {
		return nil, fmt.Errorf("count parse results: %w", err)
	}
	return &stats, nil
}
