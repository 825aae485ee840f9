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

// Package tools implements the dolex tool surface: thin, stateless handlers
// that validate input, call into the source manager, query engines,
// transform pipeline, and visualization selector, and shape JSON responses.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dolex-labs/dolex/internal/home"
	"github.com/dolex-labs/dolex/pkg/dsl"
	"github.com/dolex-labs/dolex/pkg/source"
	"github.com/dolex-labs/dolex/pkg/store"
	"github.com/dolex-labs/dolex/pkg/tool"
	"github.com/dolex-labs/dolex/pkg/transform"
	"github.com/dolex-labs/dolex/pkg/viz"
)

// Core bundles the server-wide state every tool operates on. Tools
// themselves stay stateless; everything mutable lives here or behind the
// source manager.
type Core struct {
	Sources  *source.Manager
	Results  *store.Store[*store.QueryResult]
	Specs    *store.Store[*store.SpecEntry]
	Ops      *store.OpLog
	Registry *viz.Registry
	Selector *viz.Selector
	Renderer viz.Renderer
	Executor *dsl.Executor

	// SandboxPrefix rejects paths under a host-managed upload area that the
	// server process cannot read.
	SandboxPrefix string

	// MaxRows caps query results below the engine's hard limit when set.
	MaxRows int

	StartedAt time.Time

	mu        sync.Mutex
	pipelines map[string]*transform.Pipeline
	metadata  map[string]*transform.Metadata
}

// NewCore wires the stores, selector, and renderer around a source manager.
func NewCore(sources *source.Manager, sandboxPrefix string, maxRows int) *Core {
	registry := viz.NewRegistry()
	return &Core{
		Sources:       sources,
		Results:       store.NewResultCache(),
		Specs:         store.NewSpecStore(),
		Ops:           store.NewOpLog(),
		Registry:      registry,
		Selector:      viz.NewSelector(registry),
		Renderer:      viz.NewHTMLRenderer(),
		Executor:      dsl.NewExecutor(dsl.SQLite),
		SandboxPrefix: sandboxPrefix,
		MaxRows:       maxRows,
		StartedAt:     time.Now(),
		pipelines:     make(map[string]*transform.Pipeline),
		metadata:      make(map[string]*transform.Metadata),
	}
}

// ResolvePath expands a tilde and applies the path safety rules.
func (c *Core) ResolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path is required")
	}
	expanded := home.Expand(path)
	if c.SandboxPrefix != "" && strings.HasPrefix(expanded, c.SandboxPrefix) {
		return "", fmt.Errorf("paths under %s are managed by the host and cannot be read directly; copy the file to a local directory first", c.SandboxPrefix)
	}
	if _, err := os.Stat(expanded); err != nil {
		return "", fmt.Errorf("Path not found: %s", path)
	}
	return expanded, nil
}

// maxRows clamps a requested row limit to the configured cap.
func (c *Core) maxRows(requested int) int {
	limit := c.MaxRows
	if limit <= 0 || limit > source.MaxQueryRows {
		limit = source.MaxQueryRows
	}
	if requested > 0 && requested < limit {
		return requested
	}
	return limit
}

// cacheResult stores query rows and returns the minted qr- handle.
func (c *Core) cacheResult(rows []map[string]interface{}, columns []string, truncated bool) string {
	return c.Results.Put(&store.QueryResult{
		Rows:      rows,
		Columns:   columns,
		TotalRows: len(rows),
		Truncated: truncated,
		CreatedAt: time.Now(),
	})
}

// specPayload is what the spec store holds for one visualization: enough
// context to refine it later without the original call's inputs.
type specPayload struct {
	Spec      *viz.Spec
	Selection *viz.Selection
	Data      []map[string]interface{}
	Columns   []source.DataColumn
	Intent    string
}

func (c *Core) storeSpec(p *specPayload) string {
	alts := make([]interface{}, 0, len(p.Selection.Alternatives))
	for _, a := range p.Selection.Alternatives {
		alts = append(alts, a)
	}
	return c.Specs.Put(&store.SpecEntry{
		Spec:         p,
		Alternatives: alts,
		CreatedAt:    time.Now(),
	})
}

func (c *Core) loadSpec(specID string) (*specPayload, error) {
	entry, ok := c.Specs.Get(specID)
	if !ok {
		return nil, fmt.Errorf("spec %q not found; it may have been evicted from the store", specID)
	}
	p, ok := entry.Spec.(*specPayload)
	if !ok {
		return nil, fmt.Errorf("spec %q has an unexpected shape", specID)
	}
	return p, nil
}

// pipeline returns the transform pipeline for one table of a source,
// creating it on first use. Sources whose connector does not expose an
// embedded database (read-only SQLite) cannot be transformed.
func (c *Core) pipeline(ctx context.Context, idOrName, table string) (*transform.Pipeline, source.ConnectedSource, error) {
	src, conn, err := c.Sources.Connection(ctx, idOrName)
	if err != nil {
		return nil, nil, err
	}
	db := conn.DB()
	if db == nil {
		return nil, nil, fmt.Errorf("source %q does not support column transforms; only CSV-backed sources can be modified", src.Name)
	}

	schema, err := conn.Schema(ctx)
	if err != nil {
		return nil, nil, err
	}
	dt := schema.Table(table)
	if dt == nil {
		return nil, nil, fmt.Errorf("table %q not found in source %q", table, src.Name)
	}

	key := src.ID + "\x00" + strings.ToLower(dt.Name)
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pipelines[key]; ok {
		return p, conn, nil
	}

	meta, ok := c.metadata[src.ID]
	if !ok {
		meta = transform.NewMetadata()
		c.metadata[src.ID] = meta
	}

	manifestPath := ""
	if tf, ok := conn.(interface{ TableFile(string) string }); ok {
		if f := tf.TableFile(dt.Name); f != "" {
			manifestPath = transform.ManifestPath(f)
		}
	}

	// Source columns are the table's current columns minus anything a
	// previous manifest replay already derived.
	p := transform.NewPipeline(transform.NewColumnManager(db, dt.Name), meta, manifestPath, dt.ColumnNames())
	c.pipelines[key] = p
	return p, conn, nil
}

// replayManifests re-applies persisted derived columns for every table of a
// freshly connected source, returning per-column warnings.
func (c *Core) replayManifests(ctx context.Context, idOrName string) []string {
	_, conn, err := c.Sources.Connection(ctx, idOrName)
	if err != nil || conn.DB() == nil {
		return nil
	}
	schema, err := conn.Schema(ctx)
	if err != nil {
		return nil
	}

	var warnings []string
	for _, t := range schema.Tables {
		p, _, err := c.pipeline(ctx, idOrName, t.Name)
		if err != nil {
			continue
		}
		warnings = append(warnings, p.Replay(ctx)...)
	}
	// Replay may have re-created derived columns; re-profile so the schema
	// reflects them.
	c.refreshSchema(ctx, conn)
	return warnings
}

// forgetPipelines drops cached pipelines and working metadata for a source
// whose connection went away. Derived columns survive in manifests;
// working-layer transforms are session-scoped and end with the connection.
func (c *Core) forgetPipelines(sourceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.pipelines {
		if strings.HasPrefix(key, sourceID+"\x00") {
			delete(c.pipelines, key)
		}
	}
	delete(c.metadata, sourceID)
}

// refreshSchema re-profiles a source after the transform engine changed its
// columns. Connectors without mutable storage ignore this.
func (c *Core) refreshSchema(ctx context.Context, conn source.ConnectedSource) {
	if r, ok := conn.(interface{ RefreshSchema(context.Context) error }); ok {
		_ = r.RefreshSchema(ctx)
	}
}

// baseTool carries the identity shared by every tool implementation.
type baseTool struct {
	name        string
	description string
	schema      *tool.JSONSchema
}

func (b *baseTool) Name() string                  { return b.name }
func (b *baseTool) Description() string           { return b.description }
func (b *baseTool) InputSchema() *tool.JSONSchema { return b.schema }

// ok wraps a response body in a successful result.
func ok(body interface{}) *tool.Result {
	return &tool.Result{Success: true, Data: body}
}

// fail builds an error result with a machine-readable code.
func fail(code string, err error) *tool.Result {
	return tool.Errorf(code, err.Error())
}

// Argument extraction helpers. Tool input has already passed schema
// validation; these tolerate the JSON number/string unions that remain.

func strArg(params map[string]interface{}, key string) string {
	s, _ := params[key].(string)
	return strings.TrimSpace(s)
}

func intArg(params map[string]interface{}, key string) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

func boolArg(params map[string]interface{}, key string) bool {
	b, _ := params[key].(bool)
	return b
}

// sourceArg reads the source reference. sourceId is the documented key;
// source is accepted as a shorthand.
func sourceArg(params map[string]interface{}) string {
	if id := strArg(params, "sourceId"); id != "" {
		return id
	}
	return strArg(params, "source")
}

// requiredSource resolves the source reference for tools that cannot work
// without one. Requiredness lives here rather than in the schema so either
// key satisfies it.
func requiredSource(params map[string]interface{}) (string, *tool.Result) {
	ref := sourceArg(params)
	if ref == "" {
		return "", fail("invalid_arguments", fmt.Errorf("sourceId is required"))
	}
	return ref, nil
}

// withSourceRef adds the sourceId property and its source shorthand to a
// tool schema's properties.
func withSourceRef(props map[string]*tool.JSONSchema) map[string]*tool.JSONSchema {
	props["sourceId"] = tool.NewStringSchema("Source id or name.")
	props["source"] = tool.NewStringSchema("Shorthand for sourceId.")
	return props
}

func strListArg(params map[string]interface{}, key string) []string {
	raw, ok := params[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// decodeInto round-trips a params value through JSON into a typed struct.
func decodeInto(v interface{}, out interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
