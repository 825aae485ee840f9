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
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dolex-labs/dolex/internal/stats"
	_ "github.com/dolex-labs/dolex/internal/sqlitedriver"
)

// CSVConnector loads CSV files into an embedded SQLite database. A file is
// one table; a directory is one table per *.csv inside it. All cells are
// stored as TEXT so values round-trip losslessly; typing happens on read.
type CSVConnector struct{}

var identSanitizer = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// sanitizeIdent turns a filename stem or header into an identifier.
func sanitizeIdent(name string) string {
	s := identSanitizer.ReplaceAllString(strings.TrimSpace(name), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "col"
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return s
}

// Test checks that the configured path exists and carries CSV data.
func (CSVConnector) Test(_ context.Context, config map[string]interface{}) error {
	path, _ := config["path"].(string)
	if path == "" {
		return fmt.Errorf("csv source requires a path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path not found: %s", path)
	}
	if info.IsDir() {
		files, err := filepath.Glob(filepath.Join(path, "*.csv"))
		if err != nil || len(files) == 0 {
			return fmt.Errorf("directory %s contains no .csv files", path)
		}
		return nil
	}
	return nil
}

// Connect loads the configured file or directory and profiles every column.
func (c CSVConnector) Connect(ctx context.Context, config map[string]interface{}) (ConnectedSource, error) {
	if err := c.Test(ctx, config); err != nil {
		return nil, err
	}
	path, _ := config["path"].(string)

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening embedded database: %w", err)
	}
	// database/sql would otherwise hand each query its own empty :memory:
	// database.
	db.SetMaxOpenConns(1)

	src := &csvSource{db: db, tableFiles: make(map[string]string)}

	info, err := os.Stat(path)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("path not found: %s", path)
	}

	var files []string
	if info.IsDir() {
		files, _ = filepath.Glob(filepath.Join(path, "*.csv"))
		sort.Strings(files)
	} else {
		files = []string{path}
	}

	for _, f := range files {
		table := sanitizeIdent(strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)))
		if err := src.loadFile(ctx, table, f); err != nil {
			db.Close()
			return nil, fmt.Errorf("loading %s: %w", filepath.Base(f), err)
		}
		src.tableFiles[table] = f
	}

	if err := src.buildSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return src, nil
}

type csvSource struct {
	db         *sql.DB
	tableFiles map[string]string
	schema     *DataSchema
}

// TableFile returns the CSV file a table was loaded from, used to place the
// transform manifest next to the data.
func (s *csvSource) TableFile(table string) string {
	for name, f := range s.tableFiles {
		if strings.EqualFold(name, table) {
			return f
		}
	}
	return ""
}

func (s *csvSource) DB() *sql.DB { return s.db }

func (s *csvSource) Close() error { return s.db.Close() }

// loadFile reads one CSV file into a TEXT-columned table inside a single
// transaction.
func (s *csvSource) loadFile(ctx context.Context, table, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return fmt.Errorf("file is empty")
	}
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}

	columns := make([]string, len(header))
	used := make(map[string]bool)
	for i, h := range header {
		name := sanitizeIdent(h)
		for used[strings.ToLower(name)] {
			name += "_" + strconv.Itoa(i)
		}
		used[strings.ToLower(name)] = true
		columns[i] = name
	}

	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quoteIdent(c) + " TEXT"
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")
	insert := fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(table), placeholders)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]interface{}, len(columns))
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading row: %w", err)
		}
		if isEmptyRecord(record) {
			continue
		}
		for i := range columns {
			if i < len(record) && strings.TrimSpace(record[i]) != "" {
				args[i] = record[i]
			} else {
				args[i] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("inserting row: %w", err)
		}
	}
	return tx.Commit()
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// buildSchema profiles every loaded table and infers foreign keys from
// matching id-like column names.
func (s *csvSource) buildSchema(ctx context.Context) error {
	names := make([]string, 0, len(s.tableFiles))
	for name := range s.tableFiles {
		names = append(names, name)
	}
	sort.Strings(names)

	schema := &DataSchema{}
	for _, table := range names {
		dt, err := profileTable(ctx, s.db, table)
		if err != nil {
			return fmt.Errorf("profiling table %s: %w", table, err)
		}
		schema.Tables = append(schema.Tables, *dt)
	}
	schema.ForeignKeys = inferForeignKeys(schema.Tables)
	s.schema = schema
	return nil
}

func (s *csvSource) Schema(_ context.Context) (*DataSchema, error) {
	return s.schema, nil
}

func (s *csvSource) SampleRows(ctx context.Context, table string, n int) ([]map[string]interface{}, error) {
	return sampleRows(ctx, s.db, table, n)
}

func (s *csvSource) Query(ctx context.Context, query string) (*QueryResult, error) {
	return runQuery(ctx, s.db, query)
}

// RefreshSchema re-profiles the loaded tables, picking up columns the
// transform engine added or dropped.
func (s *csvSource) RefreshSchema(ctx context.Context) error {
	return s.buildSchema(ctx)
}

// profileTable computes a DataTable for one physical table: row count plus a
// per-column profile with type inference and statistics.
func profileTable(ctx context.Context, db *sql.DB, table string) (*DataTable, error) {
	result, err := runQuery(ctx, db, fmt.Sprintf("SELECT * FROM %s", quoteIdent(table)))
	if err != nil {
		return nil, err
	}

	dt := &DataTable{Name: table, RowCount: len(result.Rows)}
	for _, col := range result.Columns {
		profile := profileColumn(col, result.Rows)
		dt.Columns = append(dt.Columns, profile)
	}
	return dt, nil
}

func profileColumn(name string, rows []map[string]interface{}) DataColumn {
	counts := make(map[string]int)
	var samples []string
	nulls := 0
	var nums []float64

	for _, row := range rows {
		v := row[name]
		s, ok := cellString(v)
		if !ok || strings.TrimSpace(s) == "" {
			nulls++
			continue
		}
		if counts[s] == 0 && len(samples) < maxSamples {
			samples = append(samples, s)
		}
		counts[s]++
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			nums = append(nums, f)
		}
	}

	typ := InferType(name, samples, len(counts), len(rows))
	if typ == TypeNumeric && LooksLikeYear(name, samples, len(counts)) {
		typ = TypeDate
	}

	col := DataColumn{
		Name:        name,
		Type:        typ,
		Samples:     truncateSamples(samples),
		UniqueCount: len(counts),
		NullCount:   nulls,
		TotalCount:  len(rows),
	}

	if typ == TypeNumeric && len(nums) > 0 {
		col.Stats = &NumericStats{
			Min:    stats.Min(nums),
			Max:    stats.Max(nums),
			Mean:   stats.Mean(nums),
			Median: stats.Median(nums),
			StdDev: stats.StdDev(nums),
			P25:    stats.Percentile(nums, 25),
			P75:    stats.Percentile(nums, 75),
		}
	}
	if typ == TypeCategorical {
		col.TopValues = topValues(counts, 10)
	}
	return col
}

func topValues(counts map[string]int, n int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// inferForeignKeys links equal id-like column names across tables. Each
// undirected table pair appears once; direction prefers pointing at the
// table whose column is closer to a primary key (named "id" or
// "<table>_id").
func inferForeignKeys(tables []DataTable) []ForeignKey {
	type colRef struct {
		table, column string
	}
	byName := make(map[string][]colRef)
	for _, t := range tables {
		for _, c := range t.Columns {
			lower := strings.ToLower(c.Name)
			if lower == "id" || strings.HasSuffix(lower, "_id") || c.Type == TypeID {
				byName[lower] = append(byName[lower], colRef{t.Name, c.Name})
			}
		}
	}

	var fks []ForeignKey
	seen := make(map[string]bool)
	var names []string
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		refs := byName[name]
		for i := 0; i < len(refs); i++ {
			for j := i + 1; j < len(refs); j++ {
				a, b := refs[i], refs[j]
				pairKey := a.table + "\x00" + b.table + "\x00" + name
				if a.table > b.table {
					pairKey = b.table + "\x00" + a.table + "\x00" + name
				}
				if seen[pairKey] {
					continue
				}
				seen[pairKey] = true

				// order_items.product_id -> products.product_id: the "to"
				// side is the table whose name prefixes the column.
				from, to := a, b
				if strings.HasPrefix(name, strings.ToLower(strings.TrimSuffix(a.table, "s"))) {
					from, to = b, a
				}
				fks = append(fks, ForeignKey{
					FromTable:  from.table,
					FromColumn: from.column,
					ToTable:    to.table,
					ToColumn:   to.column,
				})
			}
		}
	}
	return fks
}

// sampleRows returns up to n rows. Small tables return everything; larger
// ones return evenly spaced picks so the sample shows the table's spread.
func sampleRows(ctx context.Context, db *sql.DB, table string, n int) ([]map[string]interface{}, error) {
	result, err := runQuery(ctx, db, fmt.Sprintf("SELECT * FROM %s", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	rows := result.Rows
	if n <= 0 || len(rows) <= n {
		return rows, nil
	}
	out := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		// Pick from the middle of each of n equal buckets.
		idx := (2*i + 1) * len(rows) / (2 * n)
		out = append(out, rows[idx])
	}
	return out, nil
}

// runQuery executes SQL and normalizes driver values to strings/float64.
func runQuery(ctx context.Context, db *sql.DB, query string) (*QueryResult, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: cols}
	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			row[c] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

func normalizeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int64:
		return float64(x)
	default:
		return v
	}
}

// cellString renders a cell for profiling; ok is false for null.
func cellString(v interface{}) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case int64:
		return strconv.FormatInt(x, 10), true
	default:
		return fmt.Sprintf("%v", x), true
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
