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
package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dolex-labs/dolex/internal/version"
)

var rootCmd = &cobra.Command{
	Use:     "dolex",
	Short:   "Data analysis MCP server for local CSV and SQLite data",
	Long:    `Dolex bridges an AI assistant and your local data over the Model Context Protocol: register CSV files and SQLite databases, query them with safe SQL or a structured query language, derive new columns, and get chart recommendations rendered to HTML.`,
	Version: version.Get(),
	// Running the bare binary serves; MCP client configs often cannot pass
	// a subcommand.
	RunE: runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-file", "", "Log file path (default stderr)")
	pf.String("registry", "", "Source registry file (default ~/.dolex/sources.json)")
	pf.String("sandbox-prefix", "", "Reject data paths under this prefix")
	pf.Int("max-rows", 0, "Row cap for query results (default 10000)")

	viper.SetEnvPrefix("DOLEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, name := range []string{"log-level", "log-file", "registry", "sandbox-prefix", "max-rows"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
