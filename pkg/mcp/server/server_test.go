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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dolex-labs/dolex/pkg/mcp/protocol"
)

type stubToolProvider struct {
	tools   []protocol.Tool
	callErr error
}

func (p *stubToolProvider) ListTools(_ context.Context) ([]protocol.Tool, error) {
	return p.tools, nil
}

func (p *stubToolProvider) CallTool(_ context.Context, name string, _ map[string]interface{}) (*protocol.CallToolResult, error) {
	if p.callErr != nil {
		return nil, p.callErr
	}
	return &protocol.CallToolResult{
		Content: []protocol.Content{protocol.TextContent(`{"tool":"` + name + `"}`)},
	}, nil
}

func TestNew(t *testing.T) {
	logger := zaptest.NewLogger(t)
	s := New("dolex", "0.1.0", logger)

	require.NotNil(t, s)
	assert.Equal(t, "dolex", s.info.Name)

	s.mu.RLock()
	_, hasInit := s.handlers["initialize"]
	_, hasNotif := s.handlers["notifications/initialized"]
	_, hasPing := s.handlers["ping"]
	s.mu.RUnlock()

	assert.True(t, hasInit)
	assert.True(t, hasNotif)
	assert.True(t, hasPing)
}

func TestNew_NilLogger(t *testing.T) {
	s := New("dolex", "0.1.0", nil)
	require.NotNil(t, s)
	require.NotNil(t, s.logger)
}

func handle(t *testing.T, s *Server, req protocol.Request) *protocol.Response {
	t.Helper()
	reqBytes, err := json.Marshal(req)
	require.NoError(t, err)

	respBytes, err := s.HandleMessage(context.Background(), reqBytes)
	require.NoError(t, err)
	if respBytes == nil {
		return nil
	}

	var resp protocol.Response
	require.NoError(t, json.Unmarshal(respBytes, &resp))
	return &resp
}

func TestServer_HandleInitialize(t *testing.T) {
	s := New("dolex", "0.1.0", zaptest.NewLogger(t), WithToolProvider(&stubToolProvider{}))

	resp := handle(t, s, protocol.Request{
		JSONRPC: "2.0",
		ID:      protocol.NewNumericRequestID(1),
		Method:  "initialize",
		Params:  json.RawMessage(`{"protocolVersion":"2024-11-05","clientInfo":{"name":"client","version":"1.0"}}`),
	})
	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)

	var result protocol.InitializeResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, protocol.ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "dolex", result.ServerInfo.Name)
	assert.NotNil(t, result.Capabilities.Tools)

	info := s.ClientInfo()
	require.NotNil(t, info)
	assert.Equal(t, "client", info.Name)
}

func TestServer_HandlePing(t *testing.T) {
	s := New("dolex", "0.1.0", zaptest.NewLogger(t))

	resp := handle(t, s, protocol.Request{
		JSONRPC: "2.0",
		ID:      protocol.NewNumericRequestID(1),
		Method:  "ping",
	})
	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)
}

func TestServer_NotificationsReturnNothing(t *testing.T) {
	s := New("dolex", "0.1.0", zaptest.NewLogger(t))

	resp := handle(t, s, protocol.Request{
		JSONRPC: "2.0",
		Method:  "notifications/initialized",
	})
	assert.Nil(t, resp)
}

func TestServer_UnknownMethod(t *testing.T) {
	s := New("dolex", "0.1.0", zaptest.NewLogger(t))

	resp := handle(t, s, protocol.Request{
		JSONRPC: "2.0",
		ID:      protocol.NewNumericRequestID(1),
		Method:  "unknown/method",
	})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.MethodNotFound, resp.Error.Code)
}

func TestServer_UnknownNotificationIgnored(t *testing.T) {
	s := New("dolex", "0.1.0", zaptest.NewLogger(t))

	resp := handle(t, s, protocol.Request{
		JSONRPC: "2.0",
		Method:  "unknown/notification",
	})
	assert.Nil(t, resp)
}

func TestServer_InvalidJSON(t *testing.T) {
	s := New("dolex", "0.1.0", zaptest.NewLogger(t))

	respBytes, err := s.HandleMessage(context.Background(), []byte(`{not json`))
	require.NoError(t, err)

	var resp protocol.Response
	require.NoError(t, json.Unmarshal(respBytes, &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.ParseError, resp.Error.Code)
}

func TestServer_HandlerErrorPreservesProtocolError(t *testing.T) {
	s := New("dolex", "0.1.0", zaptest.NewLogger(t))
	s.RegisterHandler("fail/params", func(_ context.Context, _ json.RawMessage, _ json.RawMessage) (interface{}, error) {
		return nil, protocol.NewError(protocol.InvalidParams, "bad params", nil)
	})

	resp := handle(t, s, protocol.Request{
		JSONRPC: "2.0",
		ID:      protocol.NewNumericRequestID(2),
		Method:  "fail/params",
	})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
}

func TestServer_ToolsList(t *testing.T) {
	provider := &stubToolProvider{
		tools: []protocol.Tool{{Name: "list_sources", Description: "List registered sources"}},
	}
	s := New("dolex", "0.1.0", zaptest.NewLogger(t), WithToolProvider(provider))

	resp := handle(t, s, protocol.Request{
		JSONRPC: "2.0",
		ID:      protocol.NewNumericRequestID(1),
		Method:  "tools/list",
	})
	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)

	var result protocol.ToolListResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Tools, 1)
	assert.Equal(t, "list_sources", result.Tools[0].Name)
}

func TestServer_ToolsCall(t *testing.T) {
	s := New("dolex", "0.1.0", zaptest.NewLogger(t), WithToolProvider(&stubToolProvider{}))

	resp := handle(t, s, protocol.Request{
		JSONRPC: "2.0",
		ID:      protocol.NewNumericRequestID(1),
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":"server_status","arguments":{}}`),
	})
	require.NotNil(t, resp)
	assert.Nil(t, resp.Error)

	var result protocol.CallToolResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "server_status")
	assert.False(t, result.IsError)
}

func TestServer_ToolsCall_ErrorBecomesToolError(t *testing.T) {
	provider := &stubToolProvider{callErr: fmt.Errorf("source not found: src-missing")}
	s := New("dolex", "0.1.0", zaptest.NewLogger(t), WithToolProvider(provider))

	resp := handle(t, s, protocol.Request{
		JSONRPC: "2.0",
		ID:      protocol.NewNumericRequestID(1),
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name":"describe_source","arguments":{}}`),
	})
	require.NotNil(t, resp)
	// Tool failures are in-band results, not protocol errors.
	assert.Nil(t, resp.Error)

	var result protocol.CallToolResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "src-missing")
}

func TestServer_ToolsCall_MissingName(t *testing.T) {
	s := New("dolex", "0.1.0", zaptest.NewLogger(t), WithToolProvider(&stubToolProvider{}))

	resp := handle(t, s, protocol.Request{
		JSONRPC: "2.0",
		ID:      protocol.NewNumericRequestID(1),
		Method:  "tools/call",
		Params:  json.RawMessage(`{"arguments":{}}`),
	})
	require.NotNil(t, resp)
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
}
