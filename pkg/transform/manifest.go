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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ManifestSuffix is appended to a table's source file stem to name its
// manifest, e.g. sales.csv -> sales.dolex.json.
const ManifestSuffix = ".dolex.json"

// Manifest is the persisted snapshot of derived columns, keyed by table.
// Values are never stored; expressions are re-evaluated against live data
// when the source reopens.
type Manifest struct {
	Tables map[string][]*Record `json:"tables"`
}

// Records returns the manifest's records for one table, matched
// case-insensitively. A nil manifest has no records.
func (m *Manifest) Records(table string) []*Record {
	if m == nil {
		return nil
	}
	if recs, ok := m.Tables[table]; ok {
		return recs
	}
	for name, recs := range m.Tables {
		if strings.EqualFold(name, table) {
			return recs
		}
	}
	return nil
}

// ManifestPath derives the manifest location for a table's source file:
// next to the file, extension replaced with ManifestSuffix.
func ManifestPath(sourceFile string) string {
	ext := filepath.Ext(sourceFile)
	return strings.TrimSuffix(sourceFile, ext) + ManifestSuffix
}

// WriteManifest atomically rewrites one table's entry in the manifest,
// keeping any other tables already recorded there. A manifest left with no
// tables is removed entirely. An unreadable existing manifest is replaced
// rather than blocking the write.
func WriteManifest(path, table string, records []*Record) error {
	m, err := ReadManifest(path)
	if err != nil || m == nil {
		m = &Manifest{Tables: make(map[string][]*Record)}
	}
	if len(records) == 0 {
		delete(m.Tables, table)
	} else {
		m.Tables[table] = records
	}
	if len(m.Tables) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing manifest %s: %w", path, err)
		}
		return nil
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating manifest temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing manifest temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing manifest %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads a table's manifest. A missing file returns (nil, nil).
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	// Only derived records reach disk; normalize regardless of what the
	// file says.
	for _, recs := range m.Tables {
		for _, rec := range recs {
			rec.Layer = LayerDerived
		}
	}
	return &m, nil
}
