package cache

// schemaSQL defines the SQLite schema for the cache database.
// Tables:
//   - parse_results: one row per generated header, keyed by path, carrying
//     the content hash it was parsed from and the serialized result
const schemaSQL = `
CREATE TABLE IF NOT EXISTS parse_results (
    header_path TEXT PRIMARY KEY,
    content_sum TEXT NOT NULL,
    result_json TEXT NOT NULL,
    parsed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_parse_results_sum ON parse_results(content_sum);
`

// initSchema creates the database tables and indexes if they don't exist.
func (c *Cache) initSchema() error {
	_, err := c.db.Exec(schemaSQL)
	return err
}
