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
package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func toolWithSchema() Tool {
	return Tool{
		Name:        "describe_source",
		Description: "Describe a registered source",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"sourceId": map[string]interface{}{"type": "string"},
				"table":    map[string]interface{}{"type": "string"},
				"detail": map[string]interface{}{
					"type": "string",
					"enum": []interface{}{"compact", "full"},
				},
			},
			"required": []interface{}{"sourceId"},
		},
	}
}

func TestValidateToolArguments(t *testing.T) {
	tool := toolWithSchema()

	err := ValidateToolArguments(tool, map[string]interface{}{
		"sourceId": "src-abc123def456",
		"table":    "orders",
	})
	assert.NoError(t, err)

	err = ValidateToolArguments(tool, map[string]interface{}{
		"table": "orders",
	})
	assert.Error(t, err, "missing required sourceId should fail")

	err = ValidateToolArguments(tool, map[string]interface{}{
		"sourceId": "src-abc",
		"detail":   "verbose",
	})
	assert.Error(t, err, "enum violation should fail")

	err = ValidateToolArguments(tool, map[string]interface{}{
		"sourceId": 42,
	})
	assert.Error(t, err, "type mismatch should fail")
}

func TestValidateToolArguments_NoSchema(t *testing.T) {
	tool := Tool{Name: "server_status", Description: "status"}
	assert.NoError(t, ValidateToolArguments(tool, map[string]interface{}{"anything": true}))
}
