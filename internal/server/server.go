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

// Package server implements an MCP server that exposes Meta Marketing API
// operations as tools.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tombee/meta-ads-mcp/internal/media"
	"github.com/tombee/meta-ads-mcp/pkg/graph"
)

// Server wraps the MCP server and provides Meta Ads tools
type Server struct {
	mcpServer *server.MCPServer
	graph     *graph.Client
	media     *media.Source
	name      string
	version   string
	logger    *slog.Logger
}

// ServerConfig configures the MCP server
type ServerConfig struct {
	// Name is the server name (default: "meta-ads")
	Name string

	// Version is the meta-ads-mcp version
	Version string

	// LogLevel controls logging verbosity (debug, info, warn, error)
	LogLevel string

	// Graph is the Marketing API client used by every tool.
	Graph *graph.Client

	// Media optionally provides S3-backed media assets. If nil, the media
	// tools are not registered.
	Media *media.Source
}

// createLogger creates a logger with the specified log level.
// Writes to stderr to avoid interfering with MCP stdio protocol.
func createLogger(levelStr string) (*slog.Logger, error) {
	var level slog.Level

	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", levelStr)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler), nil
}

// NewServer creates a new MCP server instance
func NewServer(config ServerConfig) (*Server, error) {
	if config.Name == "" {
		config.Name = "meta-ads"
	}
	if config.Version == "" {
		config.Version = "dev"
	}
	if config.Graph == nil {
		return nil, fmt.Errorf("graph client is required")
	}

	logger, err := createLogger(config.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	mcpServer := server.NewMCPServer(config.Name, config.Version)

	s := &Server{
		mcpServer: mcpServer,
		graph:     config.Graph,
		media:     config.Media,
		name:      config.Name,
		version:   config.Version,
		logger:    logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all Meta Ads tools with the MCP server
func (s *Server) registerTools() {
	s.registerAccountTools()
	s.registerCampaignTools()
	s.registerAdsetTools()
	s.registerAdTools()
	s.registerAudienceTools()
	s.registerReportingTools()
	s.registerCatalogTools()
	s.registerUtilityTools()
	s.registerBatchTools()

	if s.media != nil {
		s.registerMediaTools()
	}
}

// Run starts the MCP server using stdio transport
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting Meta Ads MCP server", slog.String("version", s.version))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down Meta Ads MCP server")
	// The mcp-go server doesn't have an explicit shutdown method
	// Returning from ServeStdio() is sufficient
	return nil
}

// Helper function to create error response
func errorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// Helper function to create success response
func textResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// jsonResponse pretty-prints v the way the Graph API explorer does.
func jsonResponse(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResponse(fmt.Sprintf("Failed to encode result: %v", err))
	}
	return textResponse(string(out))
}
