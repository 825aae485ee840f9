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
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ColumnManager performs physical column reads and writes against one table
// of an embedded database. Every write runs in a transaction so a partial
// failure leaves the table unchanged. Row order is pinned to rowid so column
// values written back line up with the rows they were computed from.
type ColumnManager struct {
	db    *sql.DB
	table string
}

// ColumnProfile summarizes one column's contents.
type ColumnProfile struct {
	Name     string `json:"name"`
	Total    int    `json:"total"`
	Nulls    int    `json:"nulls"`
	Distinct int    `json:"distinct"`
}

// NewColumnManager creates a manager for table on db.
func NewColumnManager(db *sql.DB, table string) *ColumnManager {
	return &ColumnManager{db: db, table: table}
}

// Table returns the managed table name.
func (m *ColumnManager) Table() string { return m.table }

// quoteIdent quotes an SQL identifier, escaping embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// physicalType maps a semantic type to SQLite storage.
func physicalType(semantic string) string {
	switch semantic {
	case "numeric":
		return "REAL"
	case "boolean":
		return "INTEGER"
	default:
		return "TEXT"
	}
}

// coerceForWrite prepares a runtime value for storage: booleans become 0/1,
// nulls stay null, everything else passes through.
func coerceForWrite(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}

// normalizeCell converts driver values to the evaluator's runtime types.
func normalizeCell(v interface{}) interface{} {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int64:
		return float64(x)
	case int:
		return float64(x)
	default:
		return v
	}
}

// ColumnNames returns the table's columns in declaration order.
func (m *ColumnManager) ColumnNames(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(m.table)))
	if err != nil {
		return nil, fmt.Errorf("introspecting table %q: %w", m.table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// HasColumn reports whether name exists, matching case-insensitively the way
// SQLite itself resolves identifiers.
func (m *ColumnManager) HasColumn(ctx context.Context, name string) (bool, error) {
	names, err := m.ColumnNames(ctx)
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true, nil
		}
	}
	return false, nil
}

// RowCount returns the table's row count.
func (m *ColumnManager) RowCount(ctx context.Context) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(m.table))).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting rows in %q: %w", m.table, err)
	}
	return n, nil
}

// ReadRows returns every row in rowid order, plus the column order.
func (m *ColumnManager) ReadRows(ctx context.Context) ([]string, []map[string]interface{}, error) {
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", quoteIdent(m.table)))
	if err != nil {
		return nil, nil, fmt.Errorf("reading table %q: %w", m.table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out []map[string]interface{}
	values := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			row[c] = normalizeCell(values[i])
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

// ReadColumn returns one column's values in rowid order.
func (m *ColumnManager) ReadColumn(ctx context.Context, name string) ([]interface{}, error) {
	if err := m.requireColumn(ctx, name); err != nil {
		return nil, err
	}
	rows, err := m.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", quoteIdent(name), quoteIdent(m.table)))
	if err != nil {
		return nil, fmt.Errorf("reading column %q: %w", name, err)
	}
	defer rows.Close()

	var out []interface{}
	for rows.Next() {
		var v interface{}
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, normalizeCell(v))
	}
	return out, rows.Err()
}

// AddColumn creates a new column of the given semantic type and fills it
// with values, one per row in rowid order.
func (m *ColumnManager) AddColumn(ctx context.Context, name, semanticType string, values []interface{}) error {
	exists, err := m.HasColumn(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("column %q already exists in table %q", name, m.table)
	}
	count, err := m.RowCount(ctx)
	if err != nil {
		return err
	}
	if len(values) != count {
		return fmt.Errorf("value count %d does not match row count %d in table %q", len(values), count, m.table)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quoteIdent(m.table), quoteIdent(name), physicalType(semanticType))
	if _, err := tx.ExecContext(ctx, alter); err != nil {
		return fmt.Errorf("adding column %q: %w", name, err)
	}
	if err := m.fillColumn(ctx, tx, name, values); err != nil {
		return err
	}
	return tx.Commit()
}

// OverwriteColumn replaces every value of an existing column.
func (m *ColumnManager) OverwriteColumn(ctx context.Context, name string, values []interface{}) error {
	if err := m.requireColumn(ctx, name); err != nil {
		return err
	}
	count, err := m.RowCount(ctx)
	if err != nil {
		return err
	}
	if len(values) != count {
		return fmt.Errorf("value count %d does not match row count %d in table %q", len(values), count, m.table)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := m.fillColumn(ctx, tx, name, values); err != nil {
		return err
	}
	return tx.Commit()
}

// fillColumn updates one cell per row inside the caller's transaction.
func (m *ColumnManager) fillColumn(ctx context.Context, tx *sql.Tx, name string, values []interface{}) error {
	rowids, err := m.rowIDs(ctx, tx)
	if err != nil {
		return err
	}
	if len(rowids) != len(values) {
		return fmt.Errorf("value count %d does not match row count %d in table %q", len(values), len(rowids), m.table)
	}

	update := fmt.Sprintf("UPDATE %s SET %s = ? WHERE rowid = ?", quoteIdent(m.table), quoteIdent(name))
	stmt, err := tx.PrepareContext(ctx, update)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, id := range rowids {
		if _, err := stmt.ExecContext(ctx, coerceForWrite(values[i]), id); err != nil {
			return fmt.Errorf("writing column %q row %d: %w", name, i, err)
		}
	}
	return nil
}

func (m *ColumnManager) rowIDs(ctx context.Context, tx *sql.Tx) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("SELECT rowid FROM %s ORDER BY rowid", quoteIdent(m.table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DropColumn removes a column.
func (m *ColumnManager) DropColumn(ctx context.Context, name string) error {
	if err := m.requireColumn(ctx, name); err != nil {
		return err
	}
	drop := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quoteIdent(m.table), quoteIdent(name))
	if _, err := m.db.ExecContext(ctx, drop); err != nil {
		return fmt.Errorf("dropping column %q: %w", name, err)
	}
	return nil
}

// Profile summarizes one column: totals, nulls, and distinct count.
func (m *ColumnManager) Profile(ctx context.Context, name string) (*ColumnProfile, error) {
	if err := m.requireColumn(ctx, name); err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT COUNT(*), COUNT(%[1]s), COUNT(DISTINCT %[1]s) FROM %[2]s",
		quoteIdent(name), quoteIdent(m.table))
	var total, nonNull, distinct int
	if err := m.db.QueryRowContext(ctx, q).Scan(&total, &nonNull, &distinct); err != nil {
		return nil, fmt.Errorf("profiling column %q: %w", name, err)
	}
	return &ColumnProfile{Name: name, Total: total, Nulls: total - nonNull, Distinct: distinct}, nil
}

func (m *ColumnManager) requireColumn(ctx context.Context, name string) error {
	names, err := m.ColumnNames(ctx)
	if err != nil {
		return err
	}
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return nil
		}
	}
	return &UnknownColumnError{
		Column:     name,
		Suggestion: suggestColumn(name, names),
		Available:  names,
	}
}
