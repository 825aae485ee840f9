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
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dolex-labs/dolex/internal/log"
	"github.com/dolex-labs/dolex/pkg/mcp/protocol"
	"github.com/dolex-labs/dolex/pkg/store"
	"github.com/dolex-labs/dolex/pkg/tool"
)

// Provider bridges the tool registry to the MCP server: it lists tools,
// validates arguments against their schemas, executes, records each call in
// the operation log, and shapes wire results. Tool failures become in-band
// isError results, never protocol errors.
type Provider struct {
	registry *tool.Registry
	core     *Core
}

// NewProvider builds the full dolex tool surface over a core.
func NewProvider(core *Core) *Provider {
	registry := tool.NewRegistry()
	registerAll(registry, core)
	return &Provider{registry: registry, core: core}
}

// registerAll wires every tool. load_csv is a convenience alias for
// add_source with identical behavior.
func registerAll(r *tool.Registry, c *Core) {
	r.Register(newAddSourceTool(c, "add_source"))
	r.Register(newAddSourceTool(c, "load_csv"))
	r.Register(newDescribeSourceTool(c))
	r.Register(newListSourcesTool(c))
	r.Register(newRemoveSourceTool(c))
	r.Register(newDisconnectSourceTool(c))
	r.Register(newQuerySourceTool(c))
	r.Register(newQueryDSLTool(c))
	r.Register(newGetResultTool(c))
	r.Register(newClearCacheTool(c))
	r.Register(newServerStatusTool(c))
	r.Register(newVisualizeTool(c))
	r.Register(newVisualizeFromSourceTool(c))
	r.Register(newRefineVisualizationTool(c))
	r.Register(newListPatternsTool(c))
	r.Register(newTransformDataTool(c))
	r.Register(newListTransformsTool(c))
	r.Register(newPromoteColumnsTool(c))
	r.Register(newDropColumnsTool(c))
}

// Registry exposes the underlying tool registry.
func (p *Provider) Registry() *tool.Registry { return p.registry }

// ListTools implements server.ToolProvider.
func (p *Provider) ListTools(_ context.Context) ([]protocol.Tool, error) {
	tools := p.registry.ListTools()
	out := make([]protocol.Tool, 0, len(tools))
	for _, t := range tools {
		schema, err := t.InputSchema().ToMap()
		if err != nil {
			return nil, fmt.Errorf("serializing schema for %s: %w", t.Name(), err)
		}
		out = append(out, protocol.Tool{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: schema,
		})
	}
	return out, nil
}

// CallTool implements server.ToolProvider.
func (p *Provider) CallTool(ctx context.Context, name string, args map[string]interface{}) (*protocol.CallToolResult, error) {
	t, ok := p.registry.Get(name)
	if !ok {
		return errorResult(fmt.Sprintf("unknown tool %q", name)), nil
	}

	schema, err := t.InputSchema().ToMap()
	if err == nil {
		wire := protocol.Tool{Name: name, InputSchema: schema}
		if verr := protocol.ValidateToolArguments(wire, args); verr != nil {
			p.record(name, "invalid_arguments", 0)
			return errorResult(verr.Error()), nil
		}
	}

	start := time.Now()
	res, err := t.Execute(ctx, args)
	elapsed := time.Since(start).Milliseconds()

	switch {
	case err != nil:
		p.record(name, "error", elapsed)
		log.Warn("tool execution failed", zap.String("tool", name), zap.Error(err))
		return errorResult(err.Error()), nil
	case res == nil:
		p.record(name, "error", elapsed)
		return errorResult(fmt.Sprintf("tool %q returned no result", name)), nil
	case !res.Success:
		code := "error"
		msg := "tool failed"
		if res.Error != nil {
			code, msg = res.Error.Code, res.Error.Message
		}
		p.record(name, code, elapsed)
		return errorResult(msg), nil
	}

	p.record(name, "ok", elapsed)

	body, err := json.Marshal(res.Data)
	if err != nil {
		return errorResult(fmt.Sprintf("serializing %s result: %v", name, err)), nil
	}
	out := &protocol.CallToolResult{
		Content: []protocol.Content{protocol.TextContent(string(body))},
	}

	// Bulky extras travel in structuredContent so the text body stays a
	// compact summary the assistant can read.
	structured := make(map[string]interface{})
	for _, key := range []string{"html", "specId"} {
		if v, ok := res.Metadata[key]; ok {
			structured[key] = v
		}
	}
	if len(structured) > 0 {
		out.StructuredContent = structured
	}
	return out, nil
}

// record logs one call. The log holds tool names, outcomes, and timings
// only; arguments and data never reach it.
func (p *Provider) record(toolName, outcome string, elapsedMs int64) {
	p.core.Ops.Record(store.Op{
		Tool:       toolName,
		Outcome:    outcome,
		DurationMs: elapsedMs,
		At:         time.Now(),
	})
}

// errorResult wraps a message in the in-band error shape.
func errorResult(msg string) *protocol.CallToolResult {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return &protocol.CallToolResult{
		Content: []protocol.Content{protocol.TextContent(string(body))},
		IsError: true,
	}
}
