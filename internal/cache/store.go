// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/nestlog/nestlog/internal/metrics"
)

const (
	// DefaultMaxEntries bounds the store when no explicit size is given.
	DefaultMaxEntries = 1000

	// DefaultTTL is applied when Set is called with a non-positive TTL.
	DefaultTTL = 5 * time.Minute

	// evictFraction is the share of entries removed in one LRU eviction
	// pass when the store is full (minimum one entry).
	evictFraction = 0.20
)

// Entry represents a cached item. Expiry is fixed at insertion
// (ExpiresAt = CreatedAt + ttl); an entry is treated as absent once the
// current time reaches ExpiresAt even if still physically present.
type Entry struct {
	Payload    interface{}
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Hits       int64
	LastAccess *time.Time // nil until first hit
}

// Stats is a snapshot of store counters.
type Stats struct {
	EntryCount   int
	TotalHits    int64
	Misses       int64
	ExpiredCount int64
	MaxEntries   int
}

// Store is a bounded, thread-safe in-memory cache with per-entry TTL.
// Expired entries are purged lazily on every Get and Set; when the store
// is full, the least-recently-accessed 20% of entries are evicted in one
// pass. Never-accessed entries rank as oldest.
type Store struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	maxEntries int

	totalHits int64
	misses    int64
	expired   int64
}

// NewStore creates a store bounded to maxEntries (DefaultMaxEntries when
// non-positive).
func NewStore(maxEntries int) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Store{
		entries:    make(map[string]*Entry, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get retrieves a payload by key. A present, non-expired entry has its hit
// counter incremented and last-access refreshed. Internal failures degrade
// to a miss; the cache must never break the underlying query.
func (s *Store) Get(key string) (payload interface{}, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			payload, ok = nil, false
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.purgeExpiredLocked(now)

	entry, exists := s.entries[key]
	if !exists {
		s.misses++
		metrics.CacheMisses.Inc()
		return nil, false
	}

	// purgeExpiredLocked already removed expired entries, but re-check in
	// case the entry expired between the purge scan and this lookup.
	if !now.Before(entry.ExpiresAt) {
		s.removeLocked(key)
		s.expired++
		s.misses++
		metrics.CacheMisses.Inc()
		return nil, false
	}

	entry.Hits++
	access := now
	entry.LastAccess = &access
	s.totalHits++
	metrics.CacheHits.Inc()
	return entry.Payload, true
}

// Set stores a payload under key with the given TTL. Returns false when the
// entry could not be stored. A non-positive TTL falls back to DefaultTTL.
func (s *Store) Set(key string, payload interface{}, ttl time.Duration) (stored bool) {
	defer func() {
		if r := recover(); r != nil {
			stored = false
		}
	}()

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.purgeExpiredLocked(now)

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
		s.evictLRULocked()
	}

	s.entries[key] = &Entry{
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	metrics.CacheEntries.Set(float64(len(s.entries)))
	return true
}

// Delete removes an entry by key. Returns true if the entry was present.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists {
		return false
	}
	s.removeLocked(key)
	return true
}

// Clear removes all entries.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Entry, s.maxEntries)
	metrics.CacheEntries.Set(0)
}

// Len returns the current number of physically present entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns a snapshot of store counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		EntryCount:   len(s.entries),
		TotalHits:    s.totalHits,
		Misses:       s.misses,
		ExpiredCount: s.expired,
		MaxEntries:   s.maxEntries,
	}
}

// HitRate returns the cache hit rate as a percentage.
func (s *Store) HitRate() float64 {
	stats := s.Stats()
	total := stats.TotalHits + stats.Misses
	if total == 0 {
		return 0.0
	}
	return float64(stats.TotalHits) / float64(total) * 100.0
}

// purgeExpiredLocked removes every entry whose expiry has passed.
// Must be called with the lock held.
func (s *Store) purgeExpiredLocked(now time.Time) {
	for key, entry := range s.entries {
		if !now.Before(entry.ExpiresAt) {
			s.removeLocked(key)
			s.expired++
		}
	}
}

// evictLRULocked removes the oldest evictFraction of entries (minimum one)
// ranked by last access. Entries that were never read rank before all read
// entries, ordered among themselves by creation time.
// Must be called with the lock held.
func (s *Store) evictLRULocked() {
	if len(s.entries) == 0 {
		return
	}

	count := int(float64(len(s.entries)) * evictFraction)
	if count < 1 {
		count = 1
	}

	type ranked struct {
		key   string
		entry *Entry
	}
	candidates := make([]ranked, 0, len(s.entries))
	for key, entry := range s.entries {
		candidates = append(candidates, ranked{key, entry})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i].entry, candidates[j].entry
		switch {
		case a.LastAccess == nil && b.LastAccess == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.LastAccess == nil:
			return true
		case b.LastAccess == nil:
			return false
		default:
			return a.LastAccess.Before(*b.LastAccess)
		}
	})

	for i := 0; i < count; i++ {
		s.removeLocked(candidates[i].key)
	}
}

// removeLocked deletes one entry and records the eviction.
// Must be called with the lock held.
func (s *Store) removeLocked(key string) {
	delete(s.entries, key)
	metrics.CacheEvictions.Inc()
	metrics.CacheEntries.Set(float64(len(s.entries)))
}
