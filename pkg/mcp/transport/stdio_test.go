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

package transport

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdio_SendReceive(t *testing.T) {
	clientToServer := strings.NewReader(`{"jsonrpc":"2.0","method":"ping","id":1}` + "\n")
	var serverToClient bytes.Buffer

	tr := NewStdio(clientToServer, &serverToClient)

	msg, err := tr.Receive(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"method":"ping"`)

	resp := []byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)
	err = tr.Send(context.Background(), resp)
	require.NoError(t, err)

	assert.Equal(t, `{"jsonrpc":"2.0","id":1,"result":{}}`+"\n", serverToClient.String())
}

func TestStdio_ReceiveEOF(t *testing.T) {
	tr := NewStdio(strings.NewReader(""), &bytes.Buffer{})

	_, err := tr.Receive(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestStdio_ReceiveContextCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	tr := NewStdio(pr, &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Receive(ctx)
	assert.Error(t, err)
}

func TestStdio_SkipsEmptyLines(t *testing.T) {
	input := "\n\r\n" + `{"method":"ping"}` + "\n"
	tr := NewStdio(strings.NewReader(input), &bytes.Buffer{})

	msg, err := tr.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"method":"ping"}`, string(msg))
}

func TestStdio_ReceiveMultipleMessages(t *testing.T) {
	input := `{"method":"initialize"}` + "\n" + `{"method":"ping"}` + "\n"
	tr := NewStdio(strings.NewReader(input), &bytes.Buffer{})

	first, err := tr.Receive(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(first), "initialize")

	second, err := tr.Receive(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(second), "ping")

	_, err = tr.Receive(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestStdio_TrimsCarriageReturn(t *testing.T) {
	input := `{"method":"ping"}` + "\r\n"
	tr := NewStdio(strings.NewReader(input), &bytes.Buffer{})

	msg, err := tr.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"method":"ping"}`, string(msg))
}

func TestStdio_SendAfterClose(t *testing.T) {
	tr := NewStdio(strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, tr.Close())

	err := tr.Send(context.Background(), []byte(`{}`))
	assert.Error(t, err)
}
