package database

import (
	"database/sql"
	"fmt"
	"time"
)

// CacheRepository persists cache entries in the cache_entries table. The
// upsert makes writes atomic at the row level: a concurrent reader sees
// either the old payload or the new one, never a mix.
type CacheRepository struct {
	db *DB
}

func NewCacheRepository(db *DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// Load returns the payload and expiry for a key, or a nil payload when the
// key is absent.
func (r *CacheRepository) Load(key string) ([]byte, time.Time, error) {
	var payload []byte
	var expiresAt int64

	err := r.db.QueryRow(`
		SELECT payload, expires_at
		FROM cache_entries
		WHERE key = ?
	`, key).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load cache entry: %w", err)
	}

	return payload, time.Unix(expiresAt, 0), nil
}

// Save inserts or replaces the entry for a key.
func (r *CacheRepository) Save(key, source string, payload []byte, expiresAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO cache_entries (key, source, payload, expires_at, created_at)
		VALUES (?, ?, ?, ?, unixepoch())
		ON CONFLICT (key) DO UPDATE SET
			source = excluded.source,
			payload = excluded.payload,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at
	`, key, source, payload, expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}

	return nil
}

// DeleteExpired removes every entry whose expiry is at or before now.
func (r *CacheRepository) DeleteExpired(now time.Time) (int64, error) {
	result, err := r.db.Exec(`
		DELETE FROM cache_entries WHERE expires_at <= ?
	`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", err)
	}

	return result.RowsAffected()
}

// DeleteBySource removes every entry belonging to one source.
func (r *CacheRepository) DeleteBySource(source string) (int64, error) {
	result, err := r.db.Exec(`
		DELETE FROM cache_entries WHERE source = ?
	`, source)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries for source: %w", err)
	}

	return result.RowsAffected()
}

// SourceStats reports entry count and total payload bytes for one source.
func (r *CacheRepository) SourceStats(source string) (int, int64, error) {
	var entries int
	var bytes int64

	err := r.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(LENGTH(payload)), 0)
		FROM cache_entries
		WHERE source = ?
	`, source).Scan(&entries, &bytes)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to get cache stats: %w", err)
	}

	return entries, bytes, nil
}
