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

	"github.com/dolex-labs/dolex/pkg/tool"
	"github.com/dolex-labs/dolex/pkg/transform"
)

type transformDataTool struct {
	baseTool
	core *Core
}

func newTransformDataTool(c *Core) *transformDataTool {
	return &transformDataTool{
		baseTool: baseTool{
			name: "transform_data",
			description: "Create derived columns on a CSV-backed table from expressions over " +
				"existing columns, with optional partitioned aggregates and row filters. New columns " +
				"land in the session-scoped working layer; a failing batch changes nothing.",
			schema: tool.NewObjectSchema("", withSourceRef(map[string]*tool.JSONSchema{
				"table": tool.NewStringSchema("Table to transform."),
				"transforms": tool.NewArraySchema("Columns to create.", tool.NewObjectSchema("", map[string]*tool.JSONSchema{
					"create":      tool.NewStringSchema("Name of the new column."),
					"expr":        tool.NewStringSchema("Expression over existing columns."),
					"partitionBy": tool.NewStringSchema("Column to partition aggregate functions by."),
					"filter": tool.NewObjectSchema("Only evaluate rows matching this condition: field, op, value.", map[string]*tool.JSONSchema{
						"field": tool.NewStringSchema("Column the condition tests."),
						"op":    tool.NewStringSchema("Comparison operator."),
					}, nil),
				}, []string{"create", "expr"})),
			}), []string{"table", "transforms"}),
		},
		core: c,
	}
}

func (t *transformDataTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	var specs []transform.Spec
	if err := decodeInto(params["transforms"], &specs); err != nil {
		return fail("invalid_transforms", fmt.Errorf("parsing transforms: %w", err)), nil
	}
	if len(specs) == 0 {
		return fail("invalid_transforms", fmt.Errorf("transforms must not be empty")), nil
	}

	ref, errRes := requiredSource(params)
	if errRes != nil {
		return errRes, nil
	}
	table := strArg(params, "table")
	p, conn, err := t.core.pipeline(ctx, ref, table)
	if err != nil {
		return fail("not_supported", err), nil
	}
	outcomes, err := p.Apply(ctx, specs)
	if err != nil {
		return fail("transform_failed", err), nil
	}
	t.core.refreshSchema(ctx, conn)

	return ok(map[string]interface{}{
		"table":   table,
		"applied": outcomes,
	}), nil
}

type listTransformsTool struct {
	baseTool
	core *Core
}

func newListTransformsTool(c *Core) *listTransformsTool {
	return &listTransformsTool{
		baseTool: baseTool{
			name: "list_transforms",
			description: "List the derived columns of a table by layer: session-scoped working " +
				"columns and manifest-persisted derived columns.",
			schema: tool.NewObjectSchema("", withSourceRef(map[string]*tool.JSONSchema{
				"table": tool.NewStringSchema("Table whose transforms to list."),
			}), []string{"table"}),
		},
		core: c,
	}
}

func (t *listTransformsTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	ref, errRes := requiredSource(params)
	if errRes != nil {
		return errRes, nil
	}
	table := strArg(params, "table")
	p, _, err := t.core.pipeline(ctx, ref, table)
	if err != nil {
		return fail("not_supported", err), nil
	}

	working := transformRecords(p.Metadata().List(table, transform.LayerWorking))
	derived := transformRecords(p.Metadata().List(table, transform.LayerDerived))
	return ok(map[string]interface{}{
		"table":   table,
		"working": working,
		"derived": derived,
		"counts": map[string]int{
			"working": len(working),
			"derived": len(derived),
		},
	}), nil
}

// transformRecords shapes metadata records for output. Layer is implied by
// the list the record appears in.
func transformRecords(records []*transform.Record) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		entry := map[string]interface{}{
			"column":     rec.Column,
			"expression": rec.Expression,
			"type":       rec.Type,
		}
		if rec.PartitionBy != "" {
			entry["partitionBy"] = rec.PartitionBy
		}
		if rec.Filter != nil {
			entry["filter"] = rec.Filter
		}
		out = append(out, entry)
	}
	return out
}

type promoteColumnsTool struct {
	baseTool
	core *Core
}

func newPromoteColumnsTool(c *Core) *promoteColumnsTool {
	return &promoteColumnsTool{
		baseTool: baseTool{
			name: "promote_columns",
			description: "Move working columns to the derived layer so they persist in the " +
				"manifest and survive reloads. Pass [\"*\"] to promote every working column.",
			schema: tool.NewObjectSchema("", withSourceRef(map[string]*tool.JSONSchema{
				"table":   tool.NewStringSchema("Table whose columns to promote."),
				"columns": tool.NewArraySchema("Working columns to promote, or [\"*\"].", tool.NewStringSchema("")),
			}), []string{"table", "columns"}),
		},
		core: c,
	}
}

func (t *promoteColumnsTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	ref, errRes := requiredSource(params)
	if errRes != nil {
		return errRes, nil
	}
	table := strArg(params, "table")
	p, _, err := t.core.pipeline(ctx, ref, table)
	if err != nil {
		return fail("not_supported", err), nil
	}
	promoted, err := p.Promote(ctx, strListArg(params, "columns"))
	if err != nil {
		return fail("promote_failed", err), nil
	}
	return ok(map[string]interface{}{
		"table":    table,
		"promoted": promoted,
	}), nil
}

type dropColumnsTool struct {
	baseTool
	core *Core
}

func newDropColumnsTool(c *Core) *dropColumnsTool {
	return &dropColumnsTool{
		baseTool: baseTool{
			name: "drop_columns",
			description: "Remove derived columns from one layer. Source columns are never " +
				"droppable; dropping a working column that shadows a derived one restores the " +
				"derived values.",
			schema: tool.NewObjectSchema("", withSourceRef(map[string]*tool.JSONSchema{
				"table":   tool.NewStringSchema("Table whose columns to drop."),
				"columns": tool.NewArraySchema("Columns to drop, or [\"*\"] for the whole layer.", tool.NewStringSchema("")),
				"layer": tool.NewStringSchema("Layer to drop from.").
					WithEnum("working", "derived").WithDefault("working"),
			}), []string{"table", "columns"}),
		},
		core: c,
	}
}

func (t *dropColumnsTool) Execute(ctx context.Context, params map[string]interface{}) (*tool.Result, error) {
	layer := transform.Layer(strArg(params, "layer"))
	if layer == "" {
		layer = transform.LayerWorking
	}

	ref, errRes := requiredSource(params)
	if errRes != nil {
		return errRes, nil
	}
	table := strArg(params, "table")
	p, conn, err := t.core.pipeline(ctx, ref, table)
	if err != nil {
		return fail("not_supported", err), nil
	}
	outcome, err := p.Drop(ctx, strListArg(params, "columns"), layer)
	if err != nil {
		return fail("drop_failed", err), nil
	}
	t.core.refreshSchema(ctx, conn)

	body := map[string]interface{}{
		"table":   table,
		"dropped": outcome.Dropped,
	}
	if len(outcome.Restored) > 0 {
		body["restored"] = outcome.Restored
	}
	return ok(body), nil
}
