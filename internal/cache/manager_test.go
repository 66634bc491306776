// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestManager() *Manager {
	return NewManager(NewStore(100), zerolog.Nop())
}

func TestCachedQueryHitSkipsCompute(t *testing.T) {
	m := newTestManager()
	key := QueryKey{OwnerID: "family-1", Kind: "stats", Timezone: "UTC"}

	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return "result", nil
	}

	for i := 0; i < 3; i++ {
		result, err := m.CachedQuery(key, time.Minute, false, compute)
		if err != nil {
			t.Fatalf("CachedQuery failed: %v", err)
		}
		if result != "result" {
			t.Fatalf("Expected result, got %v", result)
		}
	}

	if calls != 1 {
		t.Errorf("Expected 1 compute call, got %d", calls)
	}
}

func TestCachedQueryErrorNotCached(t *testing.T) {
	m := newTestManager()
	key := QueryKey{OwnerID: "family-1", Kind: "stats", Timezone: "UTC"}

	computeErr := errors.New("database unavailable")
	calls := 0

	_, err := m.CachedQuery(key, time.Minute, false, func() (interface{}, error) {
		calls++
		return nil, computeErr
	})
	if !errors.Is(err, computeErr) {
		t.Fatalf("Expected compute error to propagate, got %v", err)
	}

	// The failure must not have populated the cache: the next call
	// computes again.
	result, err := m.CachedQuery(key, time.Minute, false, func() (interface{}, error) {
		calls++
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("CachedQuery failed: %v", err)
	}
	if result != "recovered" {
		t.Errorf("Expected recovered result, got %v", result)
	}
	if calls != 2 {
		t.Errorf("Expected 2 compute calls, got %d", calls)
	}
}

func TestCachedQueryForceRefresh(t *testing.T) {
	m := newTestManager()
	key := QueryKey{OwnerID: "family-1", Kind: "stats", Timezone: "UTC"}

	calls := 0
	compute := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	m.CachedQuery(key, time.Minute, false, compute)
	result, err := m.CachedQuery(key, time.Minute, true, compute)
	if err != nil {
		t.Fatalf("CachedQuery failed: %v", err)
	}
	if result != 2 {
		t.Errorf("Expected forced recompute result 2, got %v", result)
	}
	if calls != 2 {
		t.Errorf("Expected 2 compute calls, got %d", calls)
	}
}

func TestInvalidateOwnerIsPrecise(t *testing.T) {
	m := newTestManager()

	keyA := QueryKey{OwnerID: "family-a", Kind: "stats", Timezone: "UTC"}
	keyB := QueryKey{OwnerID: "family-b", Kind: "stats", Timezone: "UTC"}

	m.CachedQuery(keyA, time.Minute, false, func() (interface{}, error) { return "a", nil })
	m.CachedQuery(keyB, time.Minute, false, func() (interface{}, error) { return "b", nil })

	if removed := m.InvalidateOwner("family-a"); removed != 1 {
		t.Errorf("Expected 1 entry removed for family-a, got %d", removed)
	}

	// family-a recomputes; family-b still served from cache.
	callsA, callsB := 0, 0
	m.CachedQuery(keyA, time.Minute, false, func() (interface{}, error) {
		callsA++
		return "a2", nil
	})
	m.CachedQuery(keyB, time.Minute, false, func() (interface{}, error) {
		callsB++
		return "b2", nil
	})

	if callsA != 1 {
		t.Error("Expected invalidated owner to recompute")
	}
	if callsB != 0 {
		t.Error("Expected untouched owner to stay cached")
	}
}

func TestInvalidateOwnerUnknownOwner(t *testing.T) {
	m := newTestManager()
	if removed := m.InvalidateOwner("nobody"); removed != 0 {
		t.Errorf("Expected 0 removals for unknown owner, got %d", removed)
	}
}

func TestManagerClear(t *testing.T) {
	m := newTestManager()
	key := QueryKey{OwnerID: "family-1", Kind: "stats", Timezone: "UTC"}

	m.CachedQuery(key, time.Minute, false, func() (interface{}, error) { return "v", nil })
	m.Clear()

	calls := 0
	m.CachedQuery(key, time.Minute, false, func() (interface{}, error) {
		calls++
		return "v2", nil
	})
	if calls != 1 {
		t.Error("Expected recompute after Clear")
	}
	if m.Stats().EntryCount != 1 {
		t.Errorf("Expected 1 entry after recompute, got %d", m.Stats().EntryCount)
	}
}
