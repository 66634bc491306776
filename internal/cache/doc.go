// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

/*
Package cache implements the in-memory query cache that fronts Nestlog's
analytical queries.

The package has three parts:

  - Store: a bounded, thread-safe key/value store with per-entry TTL,
    lazy expiry, and batch LRU eviction. Expired entries are purged on
    every Get and Set; there is no background cleanup goroutine.
  - QueryKey: a structured query descriptor (owner, child, kind, date
    range, filters, timezone) that derives a deterministic fixed-length
    SHA-256 fingerprint. Filter maps are canonicalized before hashing so
    insertion order never affects the fingerprint.
  - Manager: the compute-through façade. CachedQuery returns a cached
    result when present, otherwise invokes the supplied compute function
    and stores its result. Failed computations are never cached. The
    manager also maintains an owner-to-fingerprint index so that
    InvalidateOwner removes exactly the entries belonging to one owner.

Cache unavailability must never break the underlying query: Store.Get and
Store.Set recover from internal panics and degrade to a miss. The cache is
single-process and non-durable; a restart behaves exactly like a cold cache.

Typical usage:

	store := cache.NewStore(1000)
	manager := cache.NewManager(store, logger)

	key := cache.QueryKey{
		OwnerID:  familyID,
		ChildID:  childID,
		Kind:     "weekly-pattern",
		Timezone: "America/Toronto",
	}
	result, err := manager.CachedQuery(key, 10*time.Minute, false, func() (any, error) {
		return store.ListWeeklyPatterns(ctx, childID)
	})
*/
package cache
