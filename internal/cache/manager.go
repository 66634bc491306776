// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package cache

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ComputeFunc produces a query result on a cache miss.
type ComputeFunc func() (interface{}, error)

// Manager wraps query functions with check-cache-else-compute semantics.
// It is an explicitly constructed service: create one at process start,
// pass it by reference to consumers, and Clear it on shutdown. There is no
// package-level singleton.
//
// The manager maintains an owner-to-fingerprint index so invalidation is
// exact per owner rather than approximated by entry age.
type Manager struct {
	store  *Store
	logger zerolog.Logger

	mu     sync.Mutex
	owners map[string]map[string]struct{}
}

// NewManager creates a cache manager on top of the given store.
func NewManager(store *Store, logger zerolog.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger.With().Str("component", "cache-manager").Logger(),
		owners: make(map[string]map[string]struct{}),
	}
}

// CachedQuery returns the cached result for key when present and fresh,
// otherwise invokes compute and stores its result under key with the given
// TTL. When forceRefresh is true the cache lookup is skipped entirely.
//
// A compute failure propagates to the caller unmodified and leaves the
// cache untouched: a failed computation must never populate the cache.
func (m *Manager) CachedQuery(key QueryKey, ttl time.Duration, forceRefresh bool, compute ComputeFunc) (interface{}, error) {
	fingerprint := key.Fingerprint()

	if !forceRefresh {
		if payload, ok := m.store.Get(fingerprint); ok {
			return payload, nil
		}
	}

	result, err := compute()
	if err != nil {
		return nil, err
	}

	if m.store.Set(fingerprint, result, ttl) {
		m.indexOwner(key.OwnerID, fingerprint)
	} else {
		m.logger.Warn().
			Str("owner_id", key.OwnerID).
			Str("kind", key.Kind).
			Msg("Cache store rejected entry, result returned uncached")
	}

	return result, nil
}

// InvalidateOwner removes every cached entry recorded for the given owner.
// Returns the number of entries actually removed from the store; index
// entries whose cache entry already expired or was evicted count as zero.
func (m *Manager) InvalidateOwner(ownerID string) int {
	m.mu.Lock()
	fingerprints := m.owners[ownerID]
	delete(m.owners, ownerID)
	m.mu.Unlock()

	removed := 0
	for fingerprint := range fingerprints {
		if m.store.Delete(fingerprint) {
			removed++
		}
	}

	m.logger.Debug().
		Str("owner_id", ownerID).
		Int("removed", removed).
		Msg("Owner cache entries invalidated")
	return removed
}

// Clear drops all cached entries and the owner index.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.owners = make(map[string]map[string]struct{})
	m.mu.Unlock()

	m.store.Clear()
}

// Stats returns the underlying store counters.
func (m *Manager) Stats() Stats {
	return m.store.Stats()
}

// HitRate returns the underlying store hit rate as a percentage.
func (m *Manager) HitRate() float64 {
	return m.store.HitRate()
}

// indexOwner records a fingerprint under its owner for later invalidation.
// Stale fingerprints (expired or evicted entries) are harmless: deleting a
// missing key is a no-op.
func (m *Manager) indexOwner(ownerID, fingerprint string) {
	if ownerID == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok := m.owners[ownerID]
	if !ok {
		set = make(map[string]struct{})
		m.owners[ownerID] = set
	}
	set[fingerprint] = struct{}{}
}
