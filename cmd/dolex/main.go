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

// dolex is an MCP (Model Context Protocol) server that lets an AI assistant
// analyze local CSV files and SQLite databases: load sources, run safe SQL
// and structured queries, derive columns, and build visualizations.
//
// It speaks JSON-RPC over stdio. Logs go to stderr or a file, never stdout.
//
// Claude Desktop configuration (claude_desktop_config.json):
//
//	{
//	  "mcpServers": {
//	    "dolex": {
//	      "command": "/path/to/dolex",
//	      "args": ["serve"]
//	    }
//	  }
//	}
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
