// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mcpserver implements the mcp-server command that runs the MCP
// server over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tombee/meta-ads-mcp/internal/commands/shared"
	"github.com/tombee/meta-ads-mcp/internal/config"
	"github.com/tombee/meta-ads-mcp/internal/log"
	"github.com/tombee/meta-ads-mcp/internal/media"
	"github.com/tombee/meta-ads-mcp/internal/server"
	"github.com/tombee/meta-ads-mcp/pkg/graph"
)

// NewCommand creates the mcp-server command
func NewCommand() *cobra.Command {
	var (
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Start the Meta Ads MCP server",
		Long: `Start the Meta Ads MCP (Model Context Protocol) server.

The server exposes Meta Marketing API operations as tools that AI assistants
(Claude Code, Cursor, Gemini CLI) can use to manage campaigns, ad sets, ads,
audiences, and catalogs, and to pull insights reports.

The server runs in stdio mode, which is suitable for integration with AI
assistants via their MCP configuration.

Configuration example for Claude Code (~/.config/claude/config.json):
  {
    "mcpServers": {
      "meta-ads": {
        "command": "meta-ads-mcp",
        "args": ["mcp-server"],
        "env": {
          "META_ACCESS_TOKEN": "<token>"
        }
      }
    }
  }

META_ACCESS_TOKEN must be set in the environment or a .env file. Set
AWS_REGION (with AWS credentials) to enable the S3 media tools.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, logLevel)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Logging verbosity (debug, info, warn, error; overrides LOG_LEVEL)")

	return cmd
}

func runServer(cmd *cobra.Command, logLevel string) error {
	settings, err := config.Load()
	if err != nil {
		return shared.NewConfigError("loading configuration", err)
	}
	if logLevel == "" {
		logLevel = settings.LogLevel
	}

	// Graph API request logging goes through the process logger; the MCP
	// layer creates its own stderr logger from LogLevel.
	logCfg := log.FromEnv()
	logCfg.Level = logLevel
	processLogger := log.WithComponent(log.New(logCfg), "graph")

	graphCfg := graph.DefaultConfig()
	graphCfg.Logger = processLogger
	graphCfg.AccessToken = settings.AccessToken
	if settings.APIVersion != "" {
		graphCfg.APIVersion = settings.APIVersion
	}
	if settings.MaxAttempts > 0 {
		graphCfg.MaxAttempts = settings.MaxAttempts
	}

	client, err := graph.New(graphCfg)
	if err != nil {
		return shared.NewConfigError("creating Graph API client", err)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The media tools need AWS credentials; skip them unless a region is set.
	var mediaSource *media.Source
	if settings.AWSRegion != "" {
		mediaSource, err = media.NewSource(ctx, settings.AWSRegion)
		if err != nil {
			return shared.NewConfigError("creating S3 media source", err)
		}
	}

	versionStr, _, _ := shared.GetVersion()

	srv, err := server.NewServer(server.ServerConfig{
		Name:     "meta-ads",
		Version:  versionStr,
		LogLevel: logLevel,
		Graph:    client,
		Media:    mediaSource,
	})
	if err != nil {
		return shared.NewConfigError("creating MCP server", err)
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived shutdown signal, shutting down gracefully...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}

		cancel()
	}()

	// Run the server (blocks until shutdown)
	if err := srv.Run(ctx); err != nil {
		return shared.NewServerError("MCP server error", err)
	}

	return nil
}
