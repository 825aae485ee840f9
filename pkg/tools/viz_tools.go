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

	"github.com/dolex-labs/dolex/pkg/dsl"
	"github.com/dolex-labs/dolex/pkg/source"
	"github.com/dolex-labs/dolex/pkg/tool"
	"github.com/dolex-labs/dolex/pkg/viz"
)

// colorsSchema is shared by every tool that accepts color preferences.
func colorsSchema() *tool.JSONSchema {
	return tool.NewObjectSchema("Color preferences.", map[string]*tool.JSONSchema{
		"palette":    tool.NewStringSchema("Named palette: default, vibrant, pastel, sequential, or diverging."),
		"highlight":  tool.NewStringSchema("Category value to emphasize."),
		"colorField": tool.NewStringSchema("Column to color by."),
	}, nil)
}

// visualizeRows runs the shared selection-color-render flow and shapes the
// response. extra keys are merged into the body.
func visualizeRows(c *Core, rows []map[string]interface{}, cols []source.DataColumn, params map[string]interface{}, extra map[string]interface{}) (*tool.Result, error) {
	if cols == nil {
		cols = source.InferColumns(rows, nil)
	}
	maxAlt := intArg(params, "maxAlternativeChartTypes")
	if maxAlt == 0 {
		maxAlt = intArg(params, "maxAlternatives")
	}
	opts := viz.Options{
		ForcePattern:     strArg(params, "pattern"),
		MaxAlternatives:  maxAlt,
		ExcludePatterns:  strListArg(params, "excludePatterns"),
		FilterCategories: strListArg(params, "categories"),
	}
	sel, err := c.Selector.Select(rows, cols, strArg(params, "intent"), opts)
	if err != nil {
		return fail("selection_failed", err), nil
	}
	spec := sel.Spec
	if title := strArg(params, "title"); title != "" {
		spec.Title = title
	}

	var prefs viz.ColorPrefs
	var notes []string
	if params["colors"] != nil {
		if err := decodeInto(params["colors"], &prefs); err != nil {
			return fail("invalid_colors", err), nil
		}
	}
	spec, notes = viz.ApplyColorPrefs(spec, prefs, cols)

	if boolArg(params, "includeDataTable") {
		if spec.Options == nil {
			spec.Options = map[string]interface{}{}
		}
		spec.Options["dataTable"] = true
	}

	html, err := c.Renderer.Render(spec)
	if err != nil {
		return fail("render_failed", err), nil
	}

	specID := c.storeSpec(&specPayload{
		Spec:      spec,
		Selection: sel,
		Data:      rows,
		Columns:   cols,
		Intent:    sel.Intent,
	})

	colNames := make([]string, 0, len(cols))
	for _, col := range cols {
		colNames = append(colNames, col.Name)
	}
	body := map[string]interface{}{
		"specId":       specID,
		"recommended":  sel.Recommended,
		"alternatives": sel.Alternatives,
		"intent":       sel.Intent,
		"spec":         spec,
		"dataShape": map[string]interface{}{
			"rows":    len(rows),
			"columns": colNames,
		},
	}
	if len(notes) > 0 {
		body["notes"] = notes
	}
	for k, v := range extra {
		body[k] = v
	}
	return &tool.Result{
		Success:  true,
		Data:     body,
		Metadata: map[string]interface{}{"html": html, "specId": specID},
	}, nil
}

type visualizeTool struct {
	baseTool
	core *Core
}

func newVisualizeTool(c *Core) *visualizeTool {
	return &visualizeTool{
		baseTool: baseTool{
			name: "visualize",
			description: "Pick the best chart for data and render it. Data comes inline, from a " +
				"cached resultId, or from SQL against a source. The recommendation explains itself " +
				"and lists scored alternatives; pattern forces a specific chart when it fits.",
			schema: tool.NewObjectSchema("", withSourceRef(map[string]*tool.JSONSchema{
				"data":                     tool.NewArraySchema("Inline rows to plot.", tool.NewObjectSchema("", nil, nil)),
				"resultId":                 tool.NewStringSchema("Cached query result to plot."),
				"sql":                      tool.NewStringSchema("SELECT statement to run against sourceId."),
				"intent":                   tool.NewStringSchema("What the chart should show, in plain words."),
				"pattern":                  tool.NewStringSchema("Force a specific pattern id."),
				"title":                    tool.NewStringSchema("Chart title override."),
				"colors":                   colorsSchema(),
				"categories":               tool.NewArraySchema("Restrict selection to these pattern categories.", tool.NewStringSchema("")),
				"excludePatterns":          tool.NewArraySchema("Pattern ids to never recommend.", tool.NewStringSchema("")),
				"includeDataTable":         tool.NewBooleanSchema("Append the plotted rows as an HTML table under the chart."),
				"maxAlternativeChartTypes": tool.NewNumberSchema("How many alternative chart types to report."),
				"maxAlternatives":          tool.NewNumberSchema("Shorthand for maxAlternativeChartTypes."),
			}), nil),
		},
		core: c,
	}
}

func (t *visualizeTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	rows, cols, extra, errResult := t.resolveData(ctx, params)
	if errResult != nil {
		return errResult, nil
	}
	return visualizeRows(t.core, rows, cols, params, extra)
}

// resolveData picks the one data input the call provided, in precedence
// order: inline data, then resultId, then source+sql.
func (t *visualizeTool) resolveData(ctx context.Context, params map[string]interface{}) ([]map[string]interface{}, []source.DataColumn, map[string]interface{}, *tool.Result) {
	if params["data"] != nil {
		var rows []map[string]interface{}
		if err := decodeInto(params["data"], &rows); err != nil {
			return nil, nil, nil, fail("invalid_data", fmt.Errorf("parsing data: %w", err))
		}
		return rows, nil, nil, nil
	}

	if id := strArg(params, "resultId"); id != "" {
		res, found := t.core.Results.Get(id)
		if !found {
			return nil, nil, nil, fail("not_found", fmt.Errorf("result %q not found; it may have been evicted from the cache", id))
		}
		return res.Rows, source.InferColumns(res.Rows, res.Columns), nil, nil
	}

	if src := sourceArg(params); src != "" {
		sqlText := strArg(params, "sql")
		if sqlText == "" {
			return nil, nil, nil, fail("invalid_arguments", fmt.Errorf("sourceId requires sql"))
		}
		res := t.core.Sources.QuerySQL(ctx, src, sqlText, t.core.maxRows(0))
		if !res.OK {
			return nil, nil, nil, fail("query_failed", fmt.Errorf("%s", res.Error))
		}
		resultID := t.core.cacheResult(res.Rows, res.Columns, res.Truncated)
		return res.Rows, source.InferColumns(res.Rows, res.Columns), map[string]interface{}{"resultId": resultID}, nil
	}

	return nil, nil, nil, fail("invalid_arguments", fmt.Errorf("provide data, resultId, or sourceId with sql"))
}

type visualizeFromSourceTool struct {
	baseTool
	core *Core
}

func newVisualizeFromSourceTool(c *Core) *visualizeFromSourceTool {
	return &visualizeFromSourceTool{
		baseTool: baseTool{
			name: "visualize_from_source",
			description: "Query a source table with the structured query language and chart the " +
				"result in one step. Without a query, a representative sample of the table is plotted.",
			schema: tool.NewObjectSchema("", withSourceRef(map[string]*tool.JSONSchema{
				"table":                    tool.NewStringSchema("Table to query."),
				"query":                    tool.NewObjectSchema("Optional structured query, as in query_dsl.", nil, nil),
				"intent":                   tool.NewStringSchema("What the chart should show, in plain words."),
				"pattern":                  tool.NewStringSchema("Force a specific pattern id."),
				"title":                    tool.NewStringSchema("Chart title override."),
				"colors":                   colorsSchema(),
				"includeDataTable":         tool.NewBooleanSchema("Append the plotted rows as an HTML table under the chart."),
				"maxAlternativeChartTypes": tool.NewNumberSchema("How many alternative chart types to report."),
				"maxAlternatives":          tool.NewNumberSchema("Shorthand for maxAlternativeChartTypes."),
			}), []string{"table"}),
		},
		core: c,
	}
}

func (t *visualizeFromSourceTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	ref, errRes := requiredSource(params)
	if errRes != nil {
		return errRes, nil
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

	extra := map[string]interface{}{}
	var rows []map[string]interface{}
	var columns []string

	if params["query"] != nil {
		var q dsl.Query
		if err := decodeInto(params["query"], &q); err != nil {
			return fail("invalid_query", fmt.Errorf("parsing query: %w", err)), nil
		}
		schema := make(dsl.Schema, len(dataSchema.Tables))
		for _, dt := range dataSchema.Tables {
			schema[dt.Name] = dt.ColumnNames()
		}
		result, err := t.core.Executor.Execute(ctx, conn, table, &q, schema)
		if err != nil {
			return fail("query_failed", err), nil
		}
		rows, columns = result.Rows, result.Columns
		extra["resultId"] = t.core.cacheResult(result.Rows, result.Columns, result.Truncated)
		extra["sql"] = result.SQL
	} else {
		sample, err := conn.SampleRows(ctx, table, sampleChartRows)
		if err != nil {
			return fail("query_failed", err), nil
		}
		rows = sample
		columns = dataSchema.Table(table).ColumnNames()
		extra["sampled"] = true
	}

	return visualizeRows(t.core, rows, source.InferColumns(rows, columns), params, extra)
}

// sampleChartRows bounds a no-query table chart; more points than this stop
// reading as a chart anyway.
const sampleChartRows = 500

type refineVisualizationTool struct {
	baseTool
	core *Core
}

func newRefineVisualizationTool(c *Core) *refineVisualizationTool {
	return &refineVisualizationTool{
		baseTool: baseTool{
			name: "refine_visualization",
			description: "Adjust a stored visualization: switch the pattern, restate the intent, " +
				"change colors or title. The original data is reused; a new specId is minted.",
			schema: tool.NewObjectSchema("", map[string]*tool.JSONSchema{
				"specId":  tool.NewStringSchema("The spec- handle to refine."),
				"pattern": tool.NewStringSchema("Switch to this pattern id."),
				"intent":  tool.NewStringSchema("Re-run selection with a new intent."),
				"title":   tool.NewStringSchema("New chart title."),
				"colors":  colorsSchema(),
			}, []string{"specId"}),
		},
		core: c,
	}
}

func (t *refineVisualizationTool) Execute(_ context.Context, params map[string]interface{}) (*tool.Result, error) {
	prev, err := t.core.loadSpec(strArg(params, "specId"))
	if err != nil {
		return fail("not_found", err), nil
	}

	var changes []string
	forwarded := map[string]interface{}{}
	if p := strArg(params, "pattern"); p != "" {
		forwarded["pattern"] = p
		changes = append(changes, fmt.Sprintf("pattern: %s -> %s", prev.Spec.Pattern, p))
	} else if strArg(params, "intent") == "" {
		// Style-only refinement keeps the current chart.
		forwarded["pattern"] = prev.Spec.Pattern
	}
	if intent := strArg(params, "intent"); intent != "" {
		forwarded["intent"] = intent
		changes = append(changes, fmt.Sprintf("intent: %s", intent))
	} else {
		forwarded["intent"] = prev.Intent
	}
	if title := strArg(params, "title"); title != "" {
		forwarded["title"] = title
		changes = append(changes, "title")
	}
	if params["colors"] != nil {
		forwarded["colors"] = params["colors"]
		changes = append(changes, "colors")
	}
	if len(changes) == 0 {
		return fail("invalid_arguments", fmt.Errorf("nothing to refine; pass pattern, intent, title, or colors")), nil
	}

	return visualizeRows(t.core, prev.Data, prev.Columns, forwarded, map[string]interface{}{
		"basedOn": strArg(params, "specId"),
		"changes": changes,
	})
}

type listPatternsTool struct {
	baseTool
	core *Core
}

func newListPatternsTool(c *Core) *listPatternsTool {
	return &listPatternsTool{
		baseTool: baseTool{
			name: "list_patterns",
			description: "List the visualization pattern catalog with data requirements, plus the " +
				"available color palettes.",
			schema: tool.NewObjectSchema("", map[string]*tool.JSONSchema{
				"category": tool.NewStringSchema("Limit to one category.").
					WithEnum("comparison", "distribution", "composition", "time", "relationship", "flow", "geo"),
			}, nil),
		},
		core: c,
	}
}

func (t *listPatternsTool) Execute(_ context.Context, params map[string]interface{}) (*tool.Result, error) {
	category := strArg(params, "category")
	var patterns []*viz.Pattern
	categories := make(map[string]int)
	for _, p := range t.core.Registry.All() {
		categories[p.Category]++
		if category == "" || p.Category == category {
			patterns = append(patterns, p)
		}
	}
	return ok(map[string]interface{}{
		"patterns":    patterns,
		"count":       len(patterns),
		"categories":  categories,
		"colorSystem": viz.ColorSystem(),
	}), nil
}
