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

// Package cli builds the root command for the meta-ads-mcp binary.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/tombee/meta-ads-mcp/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for meta-ads-mcp
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta-ads-mcp",
		Short: "MCP server for the Meta Marketing API",
		Long: `meta-ads-mcp exposes Meta Marketing API operations as MCP tools so AI
assistants can manage ad accounts, campaigns, ad sets, ads, audiences,
catalogs, and insights reporting.

Run 'meta-ads-mcp mcp-server' to start the stdio server. Configuration comes from
the environment (META_ACCESS_TOKEN is required); a .env file in the working
directory is honored.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	// Get flag pointers from shared package
	verbose, json := shared.RegisterFlagPointers()

	// Add global flags
	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Output in JSON format")

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
