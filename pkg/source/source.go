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

// Package source manages dolex's tabular data sources: the connector
// abstraction over CSV files and SQLite databases, schema introspection with
// per-column statistics, and the Source Manager that owns the registry,
// lazy connections, and the safe SQL path.
package source

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Type tags the kind of backing data a source has.
type Type string

const (
	TypeCSV    Type = "csv"
	TypeSQLite Type = "sqlite"
)

// Source is one registered dataset. The registry persists these entries;
// live connections are held separately by the Manager.
type Source struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Type        Type                   `json:"type"`
	Config      map[string]interface{} `json:"config"`
	ConnectedAt *time.Time             `json:"connectedAt,omitempty"`
}

// Path returns the configured filesystem path, or "".
func (s *Source) Path() string {
	p, _ := s.Config["path"].(string)
	return p
}

// QueryResult is the raw output of one SQL execution.
type QueryResult struct {
	Columns []string
	Rows    []map[string]interface{}
}

// ConnectedSource is a live handle to a source. Implementations are owned
// exclusively by the Manager and are not safe for concurrent use.
type ConnectedSource interface {
	// Schema returns tables, columns with statistics, and foreign keys.
	Schema(ctx context.Context) (*DataSchema, error)

	// SampleRows returns up to n representative rows of a table. Small
	// tables return every row; larger ones return evenly spaced picks.
	SampleRows(ctx context.Context, table string, n int) ([]map[string]interface{}, error)

	// Query executes read-only SQL.
	Query(ctx context.Context, query string) (*QueryResult, error)

	// DB exposes the embedded database for the transform engine, or nil
	// when the source does not support column writes.
	DB() *sql.DB

	// Close releases the connection.
	Close() error
}

// Connector creates connections for one source type.
type Connector interface {
	// Test validates a configuration without keeping a connection.
	Test(ctx context.Context, config map[string]interface{}) error

	// Connect opens a live connection.
	Connect(ctx context.Context, config map[string]interface{}) (ConnectedSource, error)
}

// DataSchema describes everything introspection learned about a source.
type DataSchema struct {
	Tables      []DataTable  `json:"tables"`
	ForeignKeys []ForeignKey `json:"foreignKeys,omitempty"`
}

// Table returns the named table, matching case-insensitively.
func (s *DataSchema) Table(name string) *DataTable {
	for i := range s.Tables {
		if strings.EqualFold(s.Tables[i].Name, name) {
			return &s.Tables[i]
		}
	}
	return nil
}

// DataTable is one table with its columns and row count.
type DataTable struct {
	Name     string       `json:"name"`
	RowCount int          `json:"rowCount"`
	Columns  []DataColumn `json:"columns"`
}

// ColumnNames returns the table's column names in order.
func (t *DataTable) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// DataColumn is one column's profile: semantic type, samples, cardinality,
// and numeric statistics or top values where they apply.
type DataColumn struct {
	Name        string        `json:"name"`
	Type        string        `json:"type"` // numeric | categorical | date | id | text
	Samples     []string      `json:"samples,omitempty"`
	UniqueCount int           `json:"uniqueCount"`
	NullCount   int           `json:"nullCount"`
	TotalCount  int           `json:"totalCount"`
	Stats       *NumericStats `json:"stats,omitempty"`
	TopValues   []ValueCount  `json:"topValues,omitempty"`
}

// NumericStats summarizes a numeric column. Percentiles use linear
// interpolation.
type NumericStats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// ValueCount is one categorical value and its frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ForeignKey links a column to the table it references. Both endpoints
// always name existing table+column pairs in the same schema.
type ForeignKey struct {
	FromTable  string `json:"fromTable"`
	FromColumn string `json:"fromColumn"`
	ToTable    string `json:"toTable"`
	ToColumn   string `json:"toColumn"`
}
