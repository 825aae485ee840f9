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
package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dolex-labs/dolex/pkg/source"
	"github.com/dolex-labs/dolex/pkg/tool"
)

type addSourceTool struct {
	baseTool
	core *Core
}

func newAddSourceTool(c *Core, name string) *addSourceTool {
	return &addSourceTool{
		baseTool: baseTool{
			name: name,
			description: "Register a CSV file, a directory of CSV files, or a SQLite database " +
				"as a data source and connect to it. Re-adding a known name reconnects instead.",
			schema: tool.NewObjectSchema("", map[string]*tool.JSONSchema{
				"path": tool.NewStringSchema("Filesystem path to the data. Tilde expands to the home directory."),
				"name": tool.NewStringSchema("Name for the source. Defaults to the file name without its extension."),
				"type": tool.NewStringSchema("Source type. Inferred from the path when omitted.").WithEnum("csv", "sqlite"),
				"detail": tool.NewStringSchema("How much per-column detail to report back.").
					WithEnum("compact", "full").WithDefault("compact"),
			}, []string{"path"}),
		},
		core: c,
	}
}

func (t *addSourceTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	path, err := t.core.ResolvePath(strArg(params, "path"))
	if err != nil {
		return fail("invalid_path", err), nil
	}
	typ, err := sniffType(path, strArg(params, "type"))
	if err != nil {
		return fail("invalid_path", err), nil
	}
	name := strArg(params, "name")
	if name == "" {
		name = defaultSourceName(path)
	}

	src, reconnected, err := t.core.Sources.Add(ctx, name, typ, map[string]interface{}{"path": path})
	if err != nil {
		return fail("add_failed", err), nil
	}
	_, conn, err := t.core.Sources.Connection(ctx, src.ID)
	if err != nil {
		return fail("connect_failed", err), nil
	}
	warnings := t.core.replayManifests(ctx, src.ID)

	schema, err := conn.Schema(ctx)
	if err != nil {
		return fail("schema_failed", err), nil
	}
	full := strArg(params, "detail") == "full"
	tables := make([]map[string]interface{}, 0, len(schema.Tables))
	for _, dt := range schema.Tables {
		tables = append(tables, map[string]interface{}{
			"name":     dt.Name,
			"rowCount": dt.RowCount,
			"columns":  addSourceColumns(&dt, full),
		})
	}

	message := "Loaded"
	if reconnected {
		message = "Reconnected"
	}
	body := map[string]interface{}{
		"sourceId": src.ID,
		"name":     src.Name,
		"type":     src.Type,
		"tables":   tables,
		"message":  message,
	}
	if len(warnings) > 0 {
		body["replayWarnings"] = warnings
	}
	return ok(body), nil
}

// sniffType infers a source type from the path when none was requested:
// file extension for files, a .csv scan for directories.
func sniffType(path, requested string) (source.Type, error) {
	if requested != "" {
		switch typ := source.Type(requested); typ {
		case source.TypeCSV, source.TypeSQLite:
			return typ, nil
		}
		return "", fmt.Errorf("unknown source type %q", requested)
	}

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		matches, _ := filepath.Glob(filepath.Join(path, "*.csv"))
		if len(matches) > 0 {
			return source.TypeCSV, nil
		}
		return "", fmt.Errorf("directory %s contains no .csv files", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return source.TypeCSV, nil
	case ".sqlite", ".sqlite3", ".db":
		return source.TypeSQLite, nil
	}
	return "", fmt.Errorf("cannot infer the type of %s; pass type explicitly", filepath.Base(path))
}

func defaultSourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// addSourceColumns keeps the add_source body small: name and type per
// column, full statistics only when asked for.
func addSourceColumns(dt *source.DataTable, full bool) []map[string]interface{} {
	if full {
		return columnEntries(dt, true)
	}
	cols := make([]map[string]interface{}, 0, len(dt.Columns))
	for _, col := range dt.Columns {
		cols = append(cols, map[string]interface{}{
			"name": col.Name,
			"type": col.Type,
		})
	}
	return cols
}

type describeSourceTool struct {
	baseTool
	core *Core
}

func newDescribeSourceTool(c *Core) *describeSourceTool {
	return &describeSourceTool{
		baseTool: baseTool{
			name: "describe_source",
			description: "Return the schema of a source: tables, columns with inferred types and " +
				"statistics, and detected foreign keys. Full detail includes samples and top values.",
			schema: tool.NewObjectSchema("", withSourceRef(map[string]*tool.JSONSchema{
				"table": tool.NewStringSchema("Limit the description to one table."),
				"detail": tool.NewStringSchema("How much per-column detail to include.").
					WithEnum("compact", "full").WithDefault("compact"),
			}), nil),
		},
		core: c,
	}
}

func (t *describeSourceTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	ref, errRes := requiredSource(params)
	if errRes != nil {
		return errRes, nil
	}
	src, conn, err := t.core.Sources.Connection(ctx, ref)
	if err != nil {
		return fail("not_found", err), nil
	}
	schema, err := conn.Schema(ctx)
	if err != nil {
		return fail("schema_failed", err), nil
	}

	tables := schema.Tables
	if table := strArg(params, "table"); table != "" {
		dt := schema.Table(table)
		if dt == nil {
			return fail("not_found", fmt.Errorf("table %q not found in source %q", table, src.Name)), nil
		}
		tables = []source.DataTable{*dt}
	}

	full := strArg(params, "detail") == "full"
	described := make([]map[string]interface{}, 0, len(tables))
	for _, dt := range tables {
		described = append(described, describeTable(&dt, full))
	}

	body := map[string]interface{}{
		"sourceId": src.ID,
		"name":     src.Name,
		"type":     src.Type,
		"tables":   described,
	}
	if len(schema.ForeignKeys) > 0 {
		body["foreignKeys"] = schema.ForeignKeys
	}
	return ok(body), nil
}

func describeTable(dt *source.DataTable, full bool) map[string]interface{} {
	return map[string]interface{}{
		"name":     dt.Name,
		"rowCount": dt.RowCount,
		"columns":  columnEntries(dt, full),
	}
}

func columnEntries(dt *source.DataTable, full bool) []map[string]interface{} {
	cols := make([]map[string]interface{}, 0, len(dt.Columns))
	for _, col := range dt.Columns {
		entry := map[string]interface{}{
			"name":        col.Name,
			"type":        col.Type,
			"uniqueCount": col.UniqueCount,
			"nullCount":   col.NullCount,
		}
		if full {
			entry["samples"] = col.Samples
			if col.Stats != nil {
				entry["stats"] = col.Stats
			}
			if len(col.TopValues) > 0 {
				entry["topValues"] = col.TopValues
			}
		}
		cols = append(cols, entry)
	}
	return cols
}

type listSourcesTool struct {
	baseTool
	core *Core
}

func newListSourcesTool(c *Core) *listSourcesTool {
	return &listSourcesTool{
		baseTool: baseTool{
			name:        "list_sources",
			description: "List registered data sources with id, type, and connection state. An optional sourceId narrows the listing.",
			schema:      tool.NewObjectSchema("", withSourceRef(map[string]*tool.JSONSchema{}), nil),
		},
		core: c,
	}
}

func (t *listSourcesTool) Execute(_ context.Context, params map[string]interface{}) (*tool.Result, error) {
	ref := sourceArg(params)
	entries := t.core.Sources.List()
	sources := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		if ref != "" && e.ID != ref && !strings.EqualFold(e.Name, ref) {
			continue
		}
		entry := map[string]interface{}{
			"id":        e.ID,
			"name":      e.Name,
			"type":      e.Type,
			"path":      e.Path(),
			"connected": e.ConnectedAt != nil,
		}
		if e.ConnectedAt != nil {
			entry["connectedAt"] = e.ConnectedAt
		}
		sources = append(sources, entry)
	}
	return ok(map[string]interface{}{"sources": sources, "count": len(sources)}), nil
}

type removeSourceTool struct {
	baseTool
	core *Core
}

func newRemoveSourceTool(c *Core) *removeSourceTool {
	return &removeSourceTool{
		baseTool: baseTool{
			name:        "remove_source",
			description: "Close any live connection to a source and delete it from the registry. The underlying file is never touched.",
			schema:      tool.NewObjectSchema("", withSourceRef(map[string]*tool.JSONSchema{}), nil),
		},
		core: c,
	}
}

func (t *removeSourceTool) Execute(_ context.Context, params map[string]interface{}) (*tool.Result, error) {
	ref, errRes := requiredSource(params)
	if errRes != nil {
		return errRes, nil
	}
	src, err := t.core.Sources.Get(ref)
	if err != nil {
		return fail("not_found", err), nil
	}
	if err := t.core.Sources.Remove(ref); err != nil {
		return fail("remove_failed", err), nil
	}
	t.core.forgetPipelines(src.ID)
	return ok(map[string]interface{}{"removed": src.Name, "sourceId": src.ID}), nil
}

type disconnectSourceTool struct {
	baseTool
	core *Core
}

func newDisconnectSourceTool(c *Core) *disconnectSourceTool {
	return &disconnectSourceTool{
		baseTool: baseTool{
			name:        "disconnect_source",
			description: "Close the live connection to a source but keep it registered. The next query reconnects lazily.",
			schema:      tool.NewObjectSchema("", withSourceRef(map[string]*tool.JSONSchema{}), nil),
		},
		core: c,
	}
}

func (t *disconnectSourceTool) Execute(_ context.Context, params map[string]interface{}) (*tool.Result, error) {
	ref, errRes := requiredSource(params)
	if errRes != nil {
		return errRes, nil
	}
	src, err := t.core.Sources.Get(ref)
	if err != nil {
		return fail("not_found", err), nil
	}
	if err := t.core.Sources.Disconnect(ref); err != nil {
		return fail("disconnect_failed", err), nil
	}
	t.core.forgetPipelines(src.ID)
	return ok(map[string]interface{}{"disconnected": src.Name, "sourceId": src.ID}), nil
}
