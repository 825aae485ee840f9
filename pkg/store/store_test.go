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
package store

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGet(t *testing.T) {
	s := NewResultCache()

	id := s.Put(&QueryResult{
		Rows:      []map[string]interface{}{{"name": "Alice", "value": 100}},
		Columns:   []string{"name", "value"},
		TotalRows: 1,
		CreatedAt: time.Now(),
	})

	assert.Regexp(t, regexp.MustCompile(`^qr-[0-9a-f]{8}$`), id)

	entry, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, []string{"name", "value"}, entry.Columns)
	assert.Equal(t, "Alice", entry.Rows[0]["name"])

	_, ok = s.Get("qr-deadbeef")
	assert.False(t, ok)
}

func TestStore_FIFOEviction(t *testing.T) {
	s := NewResultCache()

	const inserts = 27
	ids := make([]string, 0, inserts)
	for i := 0; i < inserts; i++ {
		id := s.Put(&QueryResult{TotalRows: i})
		ids = append(ids, id)
	}

	assert.Equal(t, DefaultCapacity, s.Len())

	// The first inserts-capacity entries are gone, the rest resolve.
	for i, id := range ids {
		entry, ok := s.Get(id)
		if i < inserts-DefaultCapacity {
			assert.False(t, ok, "entry %d should be evicted", i)
		} else {
			require.True(t, ok, "entry %d should resolve", i)
			assert.Equal(t, i, entry.TotalRows)
		}
	}
}

func TestStore_CapacityNeverExceeded(t *testing.T) {
	s := NewSpecStore()
	for i := 0; i < 100; i++ {
		s.Put(&SpecEntry{Spec: map[string]interface{}{"pattern": "bar"}})
		assert.LessOrEqual(t, s.Len(), DefaultCapacity)
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewSpecStore()
	id := s.Put(&SpecEntry{Spec: "x"})
	require.Equal(t, 1, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	_, ok := s.Get(id)
	assert.False(t, ok)
}

func TestStore_SpecIDs(t *testing.T) {
	s := NewSpecStore()
	id := s.Put(&SpecEntry{Spec: "x"})
	assert.Regexp(t, regexp.MustCompile(`^spec-[0-9a-f]{8}$`), id)
}

func TestStore_IDsInsertionOrder(t *testing.T) {
	s := New[int]("qr-", 3)
	a := s.Put(1)
	b := s.Put(2)
	c := s.Put(3)
	assert.Equal(t, []string{a, b, c}, s.IDs())

	d := s.Put(4)
	assert.Equal(t, []string{b, c, d}, s.IDs())
}

func TestOpLog_RingBuffer(t *testing.T) {
	l := NewOpLog()

	for i := 0; i < 14; i++ {
		l.Record(Op{Tool: fmt.Sprintf("tool-%d", i), Outcome: "ok"})
	}

	recent := l.Recent()
	require.Len(t, recent, 10)
	assert.Equal(t, "tool-4", recent[0].Tool, "oldest surviving entry")
	assert.Equal(t, "tool-13", recent[9].Tool, "newest entry")
}

func TestOpLog_PartialFill(t *testing.T) {
	l := NewOpLog()
	l.Record(Op{Tool: "add_source", Outcome: "ok"})
	l.Record(Op{Tool: "query_source", Outcome: "SQL_REJECTED"})

	recent := l.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "add_source", recent[0].Tool)
	assert.Equal(t, "SQL_REJECTED", recent[1].Outcome)
}

func TestOpLog_Clear(t *testing.T) {
	l := NewOpLog()
	l.Record(Op{Tool: "visualize", Outcome: "ok"})
	l.Clear()
	assert.Empty(t, l.Recent())
}
