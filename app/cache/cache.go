package cache

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mapcomb/mapcomb/app/search"
)

// Store is the durable cache tier. Implementations must write atomically:
// a concurrent Load never observes a partially saved entry.
type Store interface {
	Load(key string) (payload []byte, expiresAt time.Time, err error)
	Save(key, source string, payload []byte, expiresAt time.Time) error
	DeleteExpired(now time.Time) (int64, error)
	DeleteBySource(source string) (int64, error)
	SourceStats(source string) (entries int, bytes int64, err error)
}

type memoryEntry struct {
	records   []search.Record
	expiresAt time.Time
}

// Cache is one source's two-tier result cache: a map in front of an
// optional durable store. Memory answers the hot path; the store survives
// restarts and is promoted back into memory on a hit.
type Cache struct {
	source string
	ttl    time.Duration
	store  Store

	mu      sync.RWMutex
	entries map[string]memoryEntry

	now func() time.Time
}

func New(source string, ttl time.Duration, store Store) *Cache {
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Cache{
		source:  source,
		ttl:     ttl,
		store:   store,
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

// Get returns the cached records for a query, consulting memory first and
// falling back to the durable tier. Expired entries are treated as misses.
func (c *Cache) Get(query string, opts search.SourceOptions) ([]search.Record, bool) {
	key := Fingerprint(c.source, query, opts)
	now := c.now()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && now.Before(entry.expiresAt) {
		return entry.records, true
	}

	if c.store == nil {
		return nil, false
	}

	payload, expiresAt, err := c.store.Load(key)
	if err != nil {
		slog.Debug("Cache load failed", "source", c.source, "error", err)
		return nil, false
	}
	if payload == nil || !now.Before(expiresAt) {
		return nil, false
	}

	var records []search.Record
	if err := json.Unmarshal(payload, &records); err != nil {
		slog.Warn("Discarding unreadable cache entry", "source", c.source, "error", err)
		return nil, false
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{records: records, expiresAt: expiresAt}
	c.mu.Unlock()

	return records, true
}

// Put stores records in both tiers. A durable write failure degrades to
// memory-only caching.
func (c *Cache) Put(query string, opts search.SourceOptions, records []search.Record) {
	if len(records) == 0 {
		return
	}

	key := Fingerprint(c.source, query, opts)
	expiresAt := c.now().Add(c.ttl)

	c.mu.Lock()
	c.entries[key] = memoryEntry{records: records, expiresAt: expiresAt}
	c.mu.Unlock()

	if c.store == nil {
		return
	}

	payload, err := json.Marshal(records)
	if err != nil {
		slog.Warn("Cache encode failed", "source", c.source, "error", err)
		return
	}

	if err := c.store.Save(key, c.source, payload, expiresAt); err != nil {
		slog.Warn("Durable cache write failed", "source", c.source, "error", err)
	}
}

// Stats reports the durable tier when available, otherwise the memory tier.
func (c *Cache) Stats() search.CacheStats {
	if c.store != nil {
		entries, bytes, err := c.store.SourceStats(c.source)
		if err == nil {
			return search.CacheStats{Entries: entries, Bytes: bytes}
		}
		slog.Debug("Cache stats query failed", "source", c.source, "error", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return search.CacheStats{Entries: len(c.entries)}
}

// Clear drops every entry for this source from both tiers.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = map[string]memoryEntry{}
	c.mu.Unlock()

	if c.store == nil {
		return
	}

	if _, err := c.store.DeleteBySource(c.source); err != nil {
		slog.Warn("Durable cache clear failed", "source", c.source, "error", err)
	}
}

// Cleanup evicts expired entries from the memory tier and, when this cache
// owns a durable store, from the store as well. Returns the number of
// durable rows removed.
func (c *Cache) Cleanup() int64 {
	now := c.now()

	c.mu.Lock()
	for key, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	if c.store == nil {
		return 0
	}

	removed, err := c.store.DeleteExpired(now)
	if err != nil {
		slog.Warn("Durable cache cleanup failed", "source", c.source, "error", err)
		return 0
	}

	return removed
}
