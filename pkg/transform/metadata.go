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
package transform

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dolex-labs/dolex/internal/dag"
)

// Layer separates session-scoped columns from persisted ones. A working
// record with the same name as a derived record shadows it until dropped or
// promoted.
type Layer string

const (
	LayerWorking Layer = "working"
	LayerDerived Layer = "derived"
)

// Record is one derived column: its expression, inferred type, and enough
// context to re-evaluate it on reopen. Only derived-layer records reach the
// manifest.
type Record struct {
	Column      string  `json:"column"`
	Expression  string  `json:"expr"`
	Type        string  `json:"type"`
	Layer       Layer   `json:"layer"`
	PartitionBy string  `json:"partitionBy,omitempty"`
	Filter      *Filter `json:"filter,omitempty"`
	Order       int     `json:"order"`
}

// refs returns the column names the record's expression references. The
// expression was validated when the record was created, so a parse failure
// here means no references.
func (r *Record) refs() []string {
	node, err := Parse(r.Expression)
	if err != nil {
		return nil
	}
	return ColumnRefs(node)
}

// Metadata holds every transform record in memory, keyed by
// (table, column, layer) with case-insensitive names. Working records exist
// only for the life of the process; derived records are replayed from the
// manifest when a source reopens.
type Metadata struct {
	mu        sync.Mutex
	records   map[string]*Record
	nextOrder int
}

// NewMetadata creates an empty store.
func NewMetadata() *Metadata {
	return &Metadata{records: make(map[string]*Record)}
}

func metadataKey(table, column string, layer Layer) string {
	return strings.ToLower(table) + "\x00" + strings.ToLower(column) + "\x00" + string(layer)
}

// Add stores a record, assigning insertion order if the record has none.
// An existing record for the same (table, column, layer) is replaced but
// keeps its original order so replay stays stable.
func (m *Metadata) Add(table string, rec *Record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := metadataKey(table, rec.Column, rec.Layer)
	if old, ok := m.records[key]; ok {
		rec.Order = old.Order
	} else if rec.Order == 0 {
		m.nextOrder++
		rec.Order = m.nextOrder
	} else if rec.Order > m.nextOrder {
		m.nextOrder = rec.Order
	}
	m.records[key] = rec
}

// Remove deletes a record. It reports whether one existed.
func (m *Metadata) Remove(table, column string, layer Layer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := metadataKey(table, column, layer)
	_, ok := m.records[key]
	delete(m.records, key)
	return ok
}

// Get returns the record for (table, column, layer).
func (m *Metadata) Get(table, column string, layer Layer) (*Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[metadataKey(table, column, layer)]
	return rec, ok
}

// List returns a table's records sorted by insertion order. An empty layer
// returns both layers.
func (m *Metadata) List(table string, layer Layer) []*Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := strings.ToLower(table) + "\x00"
	var out []*Record
	for key, rec := range m.records {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if layer != "" && rec.Layer != layer {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Effective returns one record per column for a table, working shadowing
// derived, sorted by insertion order.
func (m *Metadata) Effective(table string) []*Record {
	byColumn := make(map[string]*Record)
	for _, rec := range m.List(table, "") {
		lower := strings.ToLower(rec.Column)
		if existing, ok := byColumn[lower]; ok && existing.Layer == LayerWorking {
			continue // working wins
		}
		byColumn[lower] = rec
	}
	out := make([]*Record, 0, len(byColumn))
	for _, rec := range byColumn {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// ClearTable drops all records for a table, both layers.
func (m *Metadata) ClearTable(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := strings.ToLower(table) + "\x00"
	for key := range m.records {
		if strings.HasPrefix(key, prefix) {
			delete(m.records, key)
		}
	}
}

// dependencyGraph builds a graph over a table's effective records plus an
// optional hypothetical record. Edges run dependency -> dependent;
// references to plain source columns are leaves and never appear as nodes.
func (m *Metadata) dependencyGraph(table string, extraColumn string, extraRefs []string) (*dag.Graph, error) {
	records := m.Effective(table)

	type entry struct {
		column string
		refs   []string
	}
	entries := make([]entry, 0, len(records)+1)
	nodes := make(map[string]bool)
	for _, rec := range records {
		lower := strings.ToLower(rec.Column)
		if extraColumn != "" && lower == strings.ToLower(extraColumn) {
			continue // hypothetical record replaces the live one
		}
		entries = append(entries, entry{column: lower, refs: rec.refs()})
		nodes[lower] = true
	}
	if extraColumn != "" {
		lower := strings.ToLower(extraColumn)
		entries = append(entries, entry{column: lower, refs: extraRefs})
		nodes[lower] = true
	}

	g := dag.New()
	for node := range nodes {
		g.AddNode(node)
	}
	for _, e := range entries {
		for _, ref := range e.refs {
			lower := strings.ToLower(ref)
			if !nodes[lower] || lower == e.column {
				continue // source column or self; self-cycles are caught before this
			}
			if err := g.AddEdge(lower, e.column); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// CheckCycle reports the dependency cycle that adding (column, refs) to the
// table would create, or nil if none.
func (m *Metadata) CheckCycle(table, column string, refs []string) *CycleError {
	for _, ref := range refs {
		if strings.EqualFold(ref, column) {
			return &CycleError{Path: []string{column, column}}
		}
	}
	g, err := m.dependencyGraph(table, column, refs)
	if err != nil {
		return &CycleError{Path: []string{column}}
	}
	if cyclic, path := g.HasCycle(); cyclic {
		return &CycleError{Path: path}
	}
	return nil
}

// Dependents returns every column whose expression depends on column,
// directly or transitively, sorted by name.
func (m *Metadata) Dependents(table, column string) []string {
	g, err := m.dependencyGraph(table, "", nil)
	if err != nil {
		return nil
	}
	lower := strings.ToLower(column)
	if !g.Has(lower) {
		// Source columns are not graph nodes; collect records that
		// reference them directly, then expand.
		var direct []string
		for _, rec := range m.Effective(table) {
			for _, ref := range rec.refs() {
				if strings.EqualFold(ref, column) {
					direct = append(direct, strings.ToLower(rec.Column))
					break
				}
			}
		}
		if len(direct) == 0 {
			return nil
		}
		deps := g.Dependents(direct...)
		merged := append(direct, deps...)
		sort.Strings(merged)
		return dedupe(merged)
	}
	return g.Dependents(lower)
}

// TopologicalSort orders records so every record follows the records it
// references. The order is deterministic.
func (m *Metadata) TopologicalSort(records []*Record) ([]*Record, error) {
	byColumn := make(map[string]*Record, len(records))
	g := dag.New()
	for _, rec := range records {
		lower := strings.ToLower(rec.Column)
		byColumn[lower] = rec
		g.AddNode(lower)
	}
	for _, rec := range records {
		dependent := strings.ToLower(rec.Column)
		for _, ref := range rec.refs() {
			lower := strings.ToLower(ref)
			if _, ok := byColumn[lower]; !ok || lower == dependent {
				continue
			}
			if err := g.AddEdge(lower, dependent); err != nil {
				return nil, err
			}
		}
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("ordering derived columns: %w", err)
	}
	out := make([]*Record, 0, len(order))
	for _, col := range order {
		out = append(out, byColumn[col])
	}
	return out, nil
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
