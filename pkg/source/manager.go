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
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/dolex-labs/dolex/internal/log"
)

// MaxQueryRows is the hard cap on rows any query may return.
const MaxQueryRows = 10000

// SourceID derives the stable ID for a source name. The same name always
// maps to the same ID, which is what makes re-adding a name behave as a
// reconnect.
func SourceID(name string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(name))))
	return "src-" + hex.EncodeToString(sum[:6])
}

// SQLResult is the outcome of the safe SQL path.
type SQLResult struct {
	OK        bool                     `json:"ok"`
	Rows      []map[string]interface{} `json:"rows,omitempty"`
	Columns   []string                 `json:"columns,omitempty"`
	TotalRows int                      `json:"totalRows"`
	Truncated bool                     `json:"truncated"`
	Error     string                   `json:"error,omitempty"`
}

// Manager owns the source registry and every live connection. All mutations
// funnel through its methods; registry persistence is best-effort and never
// fails the operation that triggered it.
type Manager struct {
	mu         sync.Mutex
	entries    []*Source
	conns      map[string]ConnectedSource
	connectors map[Type]Connector
	path       string // registry file, "" disables persistence
}

// NewManager creates a manager with the standard connectors. When path is
// non-empty the registry is reloaded from it, silently tolerating a missing
// or corrupt file.
func NewManager(path string) *Manager {
	m := &Manager{
		conns: make(map[string]ConnectedSource),
		connectors: map[Type]Connector{
			TypeCSV:    CSVConnector{},
			TypeSQLite: SQLiteConnector{},
		},
		path: path,
	}
	m.load()
	return m
}

// load restores persisted registry entries. Errors are deliberately
// swallowed: a broken registry file must not stop the server.
func (m *Manager) load() {
	if m.path == "" {
		return
	}
	data, err := os.ReadFile(m.path)
	if err != nil {
		return
	}
	var entries []*Source
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Warn("ignoring corrupt source registry", zap.Error(err))
		return
	}
	m.entries = entries
}

// save persists the registry. Failures are logged, never returned.
func (m *Manager) save() {
	if m.path == "" {
		return
	}
	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		log.Warn("encoding source registry failed", zap.Error(err))
		return
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0750); err != nil {
		log.Warn("creating registry directory failed", zap.Error(err))
		return
	}
	if err := os.WriteFile(m.path, append(data, '\n'), 0600); err != nil {
		log.Warn("writing source registry failed", zap.Error(err))
	}
}

// findEntry resolves a source by ID, case-insensitive name, or the ID its
// name would hash to. The caller must hold the mutex.
func (m *Manager) findEntry(idOrName string) *Source {
	nameID := SourceID(idOrName)
	for _, e := range m.entries {
		if e.ID == idOrName || strings.EqualFold(e.Name, idOrName) || e.ID == nameID {
			return e
		}
	}
	return nil
}

// Add registers a source after validating its configuration. Re-adding an
// existing name returns the existing entry with reconnected=true.
func (m *Manager) Add(ctx context.Context, name string, typ Type, config map[string]interface{}) (*Source, bool, error) {
	if strings.TrimSpace(name) == "" {
		return nil, false, fmt.Errorf("source name is required")
	}
	connector, ok := m.connectors[typ]
	if !ok {
		return nil, false, fmt.Errorf("unknown source type %q", typ)
	}

	m.mu.Lock()
	if existing := m.findEntry(name); existing != nil {
		m.mu.Unlock()
		return existing, true, nil
	}
	m.mu.Unlock()

	if err := connector.Test(ctx, config); err != nil {
		return nil, false, err
	}

	src := &Source{
		ID:     SourceID(name),
		Name:   name,
		Type:   typ,
		Config: config,
	}

	m.mu.Lock()
	m.entries = append(m.entries, src)
	m.save()
	m.mu.Unlock()
	return src, false, nil
}

// Get resolves a registered source without connecting.
func (m *Manager) Get(idOrName string) (*Source, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.findEntry(idOrName)
	if e == nil {
		return nil, m.notFound(idOrName)
	}
	return e, nil
}

func (m *Manager) notFound(idOrName string) error {
	names := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return fmt.Errorf("source %q not found; no sources are registered", idOrName)
	}
	return fmt.Errorf("source %q not found; registered sources: %s", idOrName, strings.Join(names, ", "))
}

// List returns the registry entries in registration order.
func (m *Manager) List() []*Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Source, len(m.entries))
	copy(out, m.entries)
	return out
}

// Connection returns the live connection for a source, connecting lazily on
// first use.
func (m *Manager) Connection(ctx context.Context, idOrName string) (*Source, ConnectedSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.findEntry(idOrName)
	if e == nil {
		return nil, nil, m.notFound(idOrName)
	}
	if conn, ok := m.conns[e.ID]; ok {
		return e, conn, nil
	}

	connector := m.connectors[e.Type]
	conn, err := connector.Connect(ctx, e.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to source %q: %w", e.Name, err)
	}
	now := time.Now()
	e.ConnectedAt = &now
	m.conns[e.ID] = conn
	m.save()
	return e, conn, nil
}

// Disconnect closes a live connection but keeps the registry entry.
func (m *Manager) Disconnect(idOrName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.findEntry(idOrName)
	if e == nil {
		return m.notFound(idOrName)
	}
	if conn, ok := m.conns[e.ID]; ok {
		delete(m.conns, e.ID)
		if err := conn.Close(); err != nil {
			return fmt.Errorf("closing connection to %q: %w", e.Name, err)
		}
	}
	return nil
}

// Remove closes any live connection and deletes the registry entry.
func (m *Manager) Remove(idOrName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.findEntry(idOrName)
	if e == nil {
		return m.notFound(idOrName)
	}
	if conn, ok := m.conns[e.ID]; ok {
		delete(m.conns, e.ID)
		if err := conn.Close(); err != nil {
			log.Warn("closing removed source", zap.String("source", e.Name), zap.Error(err))
		}
	}
	for i, entry := range m.entries {
		if entry.ID == e.ID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
	m.save()
	return nil
}

// Close disconnects everything. Used at shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, conn := range m.conns {
		if err := conn.Close(); err != nil {
			log.Warn("closing connection at shutdown", zap.String("id", id), zap.Error(err))
		}
		delete(m.conns, id)
	}
}

var leadingComment = regexp.MustCompile(`^/\*.*?\*/\s*`)

// ValidateReadOnly rejects SQL that is not a single leading SELECT or WITH
// statement. One leading block comment is tolerated.
func ValidateReadOnly(query string) error {
	trimmed := strings.TrimSpace(query)
	trimmed = leadingComment.ReplaceAllString(trimmed, "")
	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH") {
		return nil
	}
	return fmt.Errorf("Only SELECT and WITH queries are allowed")
}

// QuerySQL runs user SQL through the safe path: read-only validation, a
// wrapping subquery that enforces the row cap, lazy connection, and schema
// enrichment of unknown-name errors.
func (m *Manager) QuerySQL(ctx context.Context, idOrName, query string, maxRows int) *SQLResult {
	if err := ValidateReadOnly(query); err != nil {
		return &SQLResult{Error: err.Error()}
	}
	if maxRows <= 0 || maxRows > MaxQueryRows {
		maxRows = MaxQueryRows
	}

	_, conn, err := m.Connection(ctx, idOrName)
	if err != nil {
		return &SQLResult{Error: err.Error()}
	}

	wrapped := fmt.Sprintf("SELECT * FROM (%s) AS _q LIMIT %d", strings.TrimRight(strings.TrimSpace(query), ";"), maxRows)
	result, err := conn.Query(ctx, wrapped)
	if err != nil {
		return &SQLResult{Error: m.enrichError(ctx, conn, err)}
	}

	// Some connectors surface failures as a single {error} row.
	if len(result.Rows) == 1 {
		if msg, ok := result.Rows[0]["error"].(string); ok && len(result.Columns) == 1 {
			return &SQLResult{Error: msg}
		}
	}

	return &SQLResult{
		OK:        true,
		Rows:      result.Rows,
		Columns:   result.Columns,
		TotalRows: len(result.Rows),
		Truncated: len(result.Rows) == maxRows,
	}
}

var missingNameRe = regexp.MustCompile(`no such (column|table|function): ([\w.]+)`)

// enrichError appends the available table or column names when the backend
// reports an unknown name, with the closest matches first.
func (m *Manager) enrichError(ctx context.Context, conn ConnectedSource, err error) string {
	msg := err.Error()
	match := missingNameRe.FindStringSubmatch(msg)
	if match == nil {
		return msg
	}
	schema, schemaErr := conn.Schema(ctx)
	if schemaErr != nil || schema == nil {
		return msg
	}

	kind, missing := match[1], match[2]
	var available []string
	switch kind {
	case "table":
		for _, t := range schema.Tables {
			available = append(available, t.Name)
		}
	case "column":
		seen := make(map[string]bool)
		for _, t := range schema.Tables {
			for _, c := range t.Columns {
				if !seen[c.Name] {
					seen[c.Name] = true
					available = append(available, c.Name)
				}
			}
		}
	default:
		return msg
	}
	if len(available) == 0 {
		return msg
	}

	ranked := rankByCloseness(missing, available)
	return fmt.Sprintf("%s; available %ss: %s", msg, kind, strings.Join(ranked, ", "))
}

// rankByCloseness orders names with fuzzy matches to the target first.
func rankByCloseness(target string, names []string) []string {
	matches := fuzzy.Find(target, names)
	ranked := make([]string, 0, len(names))
	seen := make(map[string]bool)
	for _, m := range matches {
		ranked = append(ranked, m.Str)
		seen[m.Str] = true
	}
	rest := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	return append(ranked, rest...)
}
