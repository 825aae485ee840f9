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
	"time"

	"github.com/dolex-labs/dolex/internal/version"
	"github.com/dolex-labs/dolex/pkg/dsl"
	"github.com/dolex-labs/dolex/pkg/tool"
)

type querySourceTool struct {
	baseTool
	core *Core
}

func newQuerySourceTool(c *Core) *querySourceTool {
	return &querySourceTool{
		baseTool: baseTool{
			name: "query_source",
			description: "Run read-only SQL against a source. Only SELECT and WITH statements are " +
				"accepted; results are row-capped and cached under a resultId for later reuse.",
			schema: tool.NewObjectSchema("", withSourceRef(map[string]*tool.JSONSchema{
				"sql":     tool.NewStringSchema("The SELECT or WITH statement to run."),
				"maxRows": tool.NewNumberSchema("Row cap for this query. Bounded by the server limit."),
			}), []string{"sql"}),
		},
		core: c,
	}
}

func (t *querySourceTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	ref, errRes := requiredSource(params)
	if errRes != nil {
		return errRes, nil
	}
	res := t.core.Sources.QuerySQL(ctx, ref, strArg(params, "sql"), t.core.maxRows(intArg(params, "maxRows")))
	if !res.OK {
		return fail("query_failed", fmt.Errorf("%s", res.Error)), nil
	}
	resultID := t.core.cacheResult(res.Rows, res.Columns, res.Truncated)
	return ok(map[string]interface{}{
		"resultId":  resultID,
		"rows":      res.Rows,
		"columns":   res.Columns,
		"totalRows": res.TotalRows,
		"truncated": res.Truncated,
	}), nil
}

type queryDSLTool struct {
	baseTool
	core *Core
}

func newQueryDSLTool(c *Core) *queryDSLTool {
	return &queryDSLTool{
		baseTool: baseTool{
			name: "query_dsl",
			description: "Run a structured query against one table of a source: select with " +
				"aggregates and window functions, joins, filters, time-bucketed grouping, having, " +
				"ordering, and a limit. Features the backend lacks run in-process.",
			schema: tool.NewObjectSchema("", withSourceRef(map[string]*tool.JSONSchema{
				"table": tool.NewStringSchema("Base table for the query."),
				"query": tool.NewObjectSchema("The structured query. Select is required; join, groupBy, "+
					"filter, having, orderBy, and limit are optional.", nil, nil),
			}), []string{"table", "query"}),
		},
		core: c,
	}
}

func (t *queryDSLTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	ref, errRes := requiredSource(params)
	if errRes != nil {
		return errRes, nil
	}
	var q dsl.Query
	if err := decodeInto(params["query"], &q); err != nil {
		return fail("invalid_query", fmt.Errorf("parsing query: %w", err)), nil
	}

	src, conn, err := t.core.Sources.Connection(ctx, ref)
	if err != nil {
		return fail("not_found", err), nil
	}
	dataSchema, err := conn.Schema(ctx)
	if err != nil {
		return fail("schema_failed", err), nil
	}

	table := strArg(params, "table")
	if dataSchema.Table(table) == nil {
		return fail("not_found", fmt.Errorf("table %q not found in source %q", table, src.Name)), nil
	}
	schema := make(dsl.Schema, len(dataSchema.Tables))
	for _, dt := range dataSchema.Tables {
		schema[dt.Name] = dt.ColumnNames()
	}

	result, err := t.core.Executor.Execute(ctx, conn, table, &q, schema)
	if err != nil {
		return fail("query_failed", err), nil
	}

	resultID := t.core.cacheResult(result.Rows, result.Columns, result.Truncated)
	return ok(map[string]interface{}{
		"resultId":  resultID,
		"rows":      result.Rows,
		"columns":   result.Columns,
		"totalRows": len(result.Rows),
		"truncated": result.Truncated,
		"sql":       result.SQL,
		"pushdown":  result.Pushdown,
	}), nil
}

type getResultTool struct {
	baseTool
	core *Core
}

func newGetResultTool(c *Core) *getResultTool {
	return &getResultTool{
		baseTool: baseTool{
			name: "get_result",
			description: "Fetch a cached query result by its resultId. Evicted or unknown ids " +
				"return a null result rather than an error.",
			schema: tool.NewObjectSchema("", map[string]*tool.JSONSchema{
				"resultId": tool.NewStringSchema("The qr- handle returned by a query tool."),
			}, []string{"resultId"}),
		},
		core: c,
	}
}

func (t *getResultTool) Execute(_ context.Context, params map[string]interface{}) (*tool.Result, error) {
	id := strArg(params, "resultId")
	body := map[string]interface{}{"resultId": id, "result": nil, "found": false}
	if res, found := t.core.Results.Get(id); found {
		body["result"] = res
		body["found"] = true
	}
	return ok(body), nil
}

type clearCacheTool struct {
	baseTool
	core *Core
}

func newClearCacheTool(c *Core) *clearCacheTool {
	return &clearCacheTool{
		baseTool: baseTool{
			name:        "clear_cache",
			description: "Empty the result cache, the spec store, the operation log, or all three.",
			schema: tool.NewObjectSchema("", map[string]*tool.JSONSchema{
				"scope": tool.NewStringSchema("What to clear.").
					WithEnum("results", "specs", "ops", "all").WithDefault("all"),
			}, nil),
		},
		core: c,
	}
}

func (t *clearCacheTool) Execute(_ context.Context, params map[string]interface{}) (*tool.Result, error) {
	scope := strArg(params, "scope")
	if scope == "" {
		scope = "all"
	}
	var cleared []string
	if scope == "results" || scope == "all" {
		t.core.Results.Clear()
		cleared = append(cleared, "results")
	}
	if scope == "specs" || scope == "all" {
		t.core.Specs.Clear()
		cleared = append(cleared, "specs")
	}
	if scope == "ops" || scope == "all" {
		t.core.Ops.Clear()
		cleared = append(cleared, "ops")
	}
	return ok(map[string]interface{}{"cleared": cleared}), nil
}

type serverStatusTool struct {
	baseTool
	core *Core
}

func newServerStatusTool(c *Core) *serverStatusTool {
	return &serverStatusTool{
		baseTool: baseTool{
			name: "server_status",
			description: "Report the server version, uptime, registered sources, store occupancy, " +
				"and the recent operation log.",
			schema: tool.NewObjectSchema("", map[string]*tool.JSONSchema{}, nil),
		},
		core: c,
	}
}

func (t *serverStatusTool) Execute(_ context.Context, _ map[string]interface{}) (*tool.Result, error) {
	return ok(map[string]interface{}{
		"version":          version.Version,
		"commit":           version.Commit,
		"uptimeSeconds":    int64(time.Since(t.core.StartedAt).Seconds()),
		"sources":          len(t.core.Sources.List()),
		"cachedResults":    t.core.Results.Len(),
		"storedSpecs":      t.core.Specs.Len(),
		"recentOperations": t.core.Ops.Recent(),
	}), nil
}
