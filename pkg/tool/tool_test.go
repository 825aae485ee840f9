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
package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoTool struct{ name string }

func (t *echoTool) Name() string             { return t.name }
func (t *echoTool) Description() string      { return "echoes params" }
func (t *echoTool) InputSchema() *JSONSchema { return NewObjectSchema("params", nil, nil) }
func (t *echoTool) Execute(_ context.Context, params map[string]interface{}) (*Result, error) {
	return &Result{Success: true, Data: params}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&echoTool{name: "query_source"})
	r.Register(&echoTool{name: "add_source"})

	got, ok := r.Get("query_source")
	require.True(t, ok)
	assert.Equal(t, "query_source", got.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, []string{"add_source", "query_source"}, r.List())

	tools := r.ListTools()
	require.Len(t, tools, 2)
	assert.Equal(t, "add_source", tools[0].Name())

	r.Unregister("add_source")
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_MustGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&echoTool{name: "list_sources"})

	assert.NotPanics(t, func() { r.MustGet("list_sources") })
	assert.Panics(t, func() { r.MustGet("nope") })
}

func TestRegistry_ReplaceOnReRegister(t *testing.T) {
	r := NewRegistry()
	first := &echoTool{name: "visualize"}
	second := &echoTool{name: "visualize"}

	r.Register(first)
	r.Register(second)

	got, ok := r.Get("visualize")
	require.True(t, ok)
	assert.Same(t, second, got.(*echoTool))
	assert.Equal(t, 1, r.Count())
}

func TestJSONSchema_Builders(t *testing.T) {
	maxRows := 10000.0
	one := 1.0
	schema := NewObjectSchema("query a source", map[string]*JSONSchema{
		"sourceId": NewStringSchema("source ID or name"),
		"sql":      NewStringSchema("SELECT statement"),
		"maxRows":  NewNumberSchema("row cap").WithRange(&one, &maxRows).WithDefault(1000),
		"detail":   NewStringSchema("verbosity").WithEnum("compact", "full"),
		"columns":  NewArraySchema("column names", NewStringSchema("name")),
		"dryRun":   NewBooleanSchema("compile only"),
	}, []string{"sourceId", "sql"})

	assert.Equal(t, "object", schema.Type)
	assert.Len(t, schema.Properties, 6)
	assert.Equal(t, []string{"sourceId", "sql"}, schema.Required)
	assert.Equal(t, "array", schema.Properties["columns"].Type)
	assert.Equal(t, []interface{}{"compact", "full"}, schema.Properties["detail"].Enum)

	m, err := schema.ToMap()
	require.NoError(t, err)
	assert.Equal(t, "object", m["type"])
	props, ok := m["properties"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, props, "maxRows")
}

func TestError_Error(t *testing.T) {
	e := &Error{Code: "SOURCE_NOT_FOUND", Message: "no source named orders"}
	assert.Equal(t, "no source named orders", e.Error())

	res := Errorf("INVALID_PARAMS", "sql is required")
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, "INVALID_PARAMS", res.Error.Code)
}
