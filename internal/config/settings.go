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

// Package config loads process settings from the environment. A .env file in
// the working directory is honored when present; real environment variables
// win over it.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Settings holds the process configuration for the MCP server.
type Settings struct {
	// AccessToken is the Meta Marketing API credential (META_ACCESS_TOKEN).
	// Required.
	AccessToken string

	// APIVersion overrides the Graph API version (GRAPH_API_VERSION).
	// Empty means the client default.
	APIVersion string

	// LogLevel controls logging verbosity (LOG_LEVEL). Default: info.
	LogLevel string

	// MaxAttempts is the total attempt count for Graph calls (MAX_RETRIES,
	// kept for compatibility with earlier deployments). 0 means the client
	// default.
	MaxAttempts int

	// AWSRegion is used by the S3 media source (AWS_REGION). Empty falls
	// back to the AWS SDK's own resolution chain.
	AWSRegion string
}

// Load reads settings from the environment, after loading a .env file if one
// exists. Returns an error when the access token is missing or a numeric
// variable does not parse.
func Load() (*Settings, error) {
	// Missing .env is fine; explicit environment is the source of truth.
	_ = godotenv.Load()

	s := &Settings{
		AccessToken: os.Getenv("META_ACCESS_TOKEN"),
		APIVersion:  os.Getenv("GRAPH_API_VERSION"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		AWSRegion:   os.Getenv("AWS_REGION"),
	}

	if s.LogLevel == "" {
		s.LogLevel = "info"
	}

	if raw := os.Getenv("MAX_RETRIES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing MAX_RETRIES: %w", err)
		}
		if n < 1 {
			return nil, fmt.Errorf("MAX_RETRIES must be >= 1, got %d", n)
		}
		s.MaxAttempts = n
	}

	if s.AccessToken == "" {
		return nil, fmt.Errorf("META_ACCESS_TOKEN is required")
	}

	return s, nil
}
