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
	"fmt"
	"os"

	_ "github.com/dolex-labs/dolex/internal/sqlitedriver"
)

// SQLiteConnector opens an existing SQLite database read-only. The schema
// comes from the catalog; per-column statistics are computed the same way
// the CSV loader computes them.
type SQLiteConnector struct{}

// Test checks the configured database file exists.
func (SQLiteConnector) Test(_ context.Context, config map[string]interface{}) error {
	path, _ := config["path"].(string)
	if path == "" {
		return fmt.Errorf("sqlite source requires a path")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("path not found: %s", path)
	}
	return nil
}

// Connect opens the database in read-only mode and introspects it.
func (c SQLiteConnector) Connect(ctx context.Context, config map[string]interface{}) (ConnectedSource, error) {
	if err := c.Test(ctx, config); err != nil {
		return nil, err
	}
	path, _ := config["path"].(string)

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	src := &sqliteSource{db: db}
	if err := src.buildSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return src, nil
}

type sqliteSource struct {
	db     *sql.DB
	schema *DataSchema
}

// DB returns nil: the database belongs to the user and the transform engine
// must never write into it.
func (s *sqliteSource) DB() *sql.DB { return nil }

func (s *sqliteSource) Close() error { return s.db.Close() }

func (s *sqliteSource) Schema(_ context.Context) (*DataSchema, error) {
	return s.schema, nil
}

func (s *sqliteSource) SampleRows(ctx context.Context, table string, n int) ([]map[string]interface{}, error) {
	return sampleRows(ctx, s.db, table, n)
}

func (s *sqliteSource) Query(ctx context.Context, query string) (*QueryResult, error) {
	return runQuery(ctx, s.db, query)
}

func (s *sqliteSource) buildSchema(ctx context.Context) error {
	names, err := s.tableNames(ctx)
	if err != nil {
		return err
	}

	schema := &DataSchema{}
	for _, table := range names {
		dt, err := profileTable(ctx, s.db, table)
		if err != nil {
			return fmt.Errorf("profiling table %s: %w", table, err)
		}
		schema.Tables = append(schema.Tables, *dt)

		fks, err := s.foreignKeys(ctx, table)
		if err != nil {
			return err
		}
		schema.ForeignKeys = append(schema.ForeignKeys, fks...)
	}
	s.schema = schema
	return nil
}

func (s *sqliteSource) tableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *sqliteSource) foreignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("reading foreign keys of %s: %w", table, err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var (
			id, seq                      int
			refTable, from               string
			to                           sql.NullString // null when referencing the implicit primary key
			onUpdate, onDelete, matching string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &matching); err != nil {
			return nil, err
		}
		toCol := to.String
		if !to.Valid {
			toCol = "id"
		}
		fks = append(fks, ForeignKey{
			FromTable:  table,
			FromColumn: from,
			ToTable:    refTable,
			ToColumn:   toCol,
		})
	}
	return fks, rows.Err()
}
