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
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dolex-labs/dolex/internal/home"
	"github.com/dolex-labs/dolex/internal/log"
	"github.com/dolex-labs/dolex/internal/version"
	"github.com/dolex-labs/dolex/pkg/mcp/server"
	"github.com/dolex-labs/dolex/pkg/mcp/transport"
	"github.com/dolex-labs/dolex/pkg/source"
	"github.com/dolex-labs/dolex/pkg/tools"
)

const serverName = "dolex"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP over stdio",
	Long:  `Run the MCP server on stdin/stdout until the client disconnects or the process receives SIGINT/SIGTERM.`,
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	logger, err := buildLogger(viper.GetString("log-level"), viper.GetString("log-file"))
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log.SetLogger(logger)

	registry := viper.GetString("registry")
	if registry == "" {
		registry = defaultRegistryPath()
	}

	mgr := source.NewManager(registry)
	defer mgr.Close()
	core := tools.NewCore(mgr, viper.GetString("sandbox-prefix"), viper.GetInt("max-rows"))
	provider := tools.NewProvider(core)

	logger.Info("starting dolex",
		zap.String("version", version.Get()),
		zap.String("registry", home.Short(registry)),
		zap.Int("tools", provider.Registry().Count()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	srv := server.New(serverName, version.Get(), logger, server.WithToolProvider(provider))
	err = srv.Serve(ctx, transport.NewStdio(os.Stdin, os.Stdout))
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		logger.Info("dolex stopped")
		return nil
	default:
		return err
	}
}

// defaultRegistryPath places the registry in the dolex home directory. An
// unavailable home disables persistence rather than failing startup.
func defaultRegistryPath() string {
	if err := home.EnsureDir(); err != nil {
		return ""
	}
	dir, err := home.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sources.json")
}

// buildLogger configures zap. Stdout carries the MCP transport, so logs go
// to stderr or a file only.
func buildLogger(level, file string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if file != "" {
		cfg.OutputPaths = []string{file}
		cfg.ErrorOutputPaths = []string{file}
	}
	return cfg.Build()
}
