// Nestlog - Diaper Change Analytics and Cost Tracking
// Copyright 2026 Nestlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestlog/nestlog

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// dateLayout is the canonical serialization for key date fields.
const dateLayout = "2006-01-02"

// QueryKey describes an analytical query for cache-key derivation.
// Optional fields (ChildID, StartDate, EndDate, Filters) serialize to an
// empty-string sentinel when unset, so a key built with an explicit empty
// filter map fingerprints identically to one built with a nil map.
type QueryKey struct {
	OwnerID   string
	ChildID   string
	Kind      string
	StartDate time.Time
	EndDate   time.Time
	Filters   map[string]string
	Timezone  string
}

// canonicalKey is the serialization form hashed by Fingerprint. Field order
// is fixed by struct declaration; filters are a sorted pair list.
type canonicalKey struct {
	Owner    string      `json:"owner"`
	Child    string      `json:"child"`
	Kind     string      `json:"kind"`
	Start    string      `json:"start"`
	End      string      `json:"end"`
	Filters  [][2]string `json:"filters"`
	Timezone string      `json:"timezone"`
}

// Fingerprint derives a deterministic, fixed-length (64 hex character)
// cache key from the query descriptor. Equal keys always produce equal
// fingerprints regardless of filter insertion order, across runs and
// processes. The hash is one-way; callers never need to recover the
// original descriptor from it.
func (k QueryKey) Fingerprint() string {
	canon := canonicalKey{
		Owner:    k.OwnerID,
		Child:    k.ChildID,
		Kind:     k.Kind,
		Start:    formatKeyDate(k.StartDate),
		End:      formatKeyDate(k.EndDate),
		Filters:  canonicalFilters(k.Filters),
		Timezone: k.Timezone,
	}

	data, err := json.Marshal(canon)
	if err != nil {
		// Marshal of plain strings cannot fail in practice; keep a
		// deterministic fallback anyway.
		data = []byte(fmt.Sprintf("%+v", canon))
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// formatKeyDate serializes a date field, mapping the zero value to the
// empty-string sentinel.
func formatKeyDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// canonicalFilters returns the filter map as a key-sorted pair list.
// Nil and empty maps both canonicalize to an empty (non-nil) list.
func canonicalFilters(filters map[string]string) [][2]string {
	pairs := make([][2]string, 0, len(filters))
	for key, value := range filters {
		pairs = append(pairs, [2]string{key, value})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i][0] < pairs[j][0]
	})
	return pairs
}
