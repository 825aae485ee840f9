// Copyright 2026 Dolex Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store provides the process-wide bounded stores that let callers
// reference prior results by opaque handle instead of resending data: the
// query result cache (qr-XXXXXXXX), the visualization spec store
// (spec-XXXXXXXX), and the sanitized operation log.
package store

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultCapacity is how many entries each store holds before evicting the
// oldest. Fixed, not configurable.
const DefaultCapacity = 20

// Store is a bounded FIFO keyed by minted opaque IDs. When full, inserting
// evicts the oldest entry. Safe for concurrent use.
type Store[T any] struct {
	prefix   string
	capacity int

	mu      sync.Mutex
	order   []string // insertion order, oldest first
	entries map[string]T
}

// New creates a store that mints IDs as prefix + 8 hex chars.
func New[T any](prefix string, capacity int) *Store[T] {
	return &Store[T]{
		prefix:   prefix,
		capacity: capacity,
		entries:  make(map[string]T),
	}
}

// Put inserts a value and returns its minted ID, evicting the oldest entry
// when the store is at capacity.
func (s *Store[T]) Put(value T) string {
	id := s.prefix + mintSuffix()

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
	s.order = append(s.order, id)
	s.entries[id] = value
	return id
}

// Get returns the entry for id, or the zero value and false when the id is
// unknown or already evicted.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[id]
	return v, ok
}

// Clear empties the store.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.entries = make(map[string]T)
}

// Len returns the number of live entries.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// IDs returns the live IDs, oldest first.
func (s *Store[T]) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// mintSuffix returns 8 hex chars of randomness. The leading segment of a
// UUID is hex, which keeps handles short and unambiguous.
func mintSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
