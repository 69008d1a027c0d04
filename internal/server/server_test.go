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

package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/meta-ads-mcp/pkg/graph"
)

// newTestServer builds a Server whose graph client points at the given
// handler.
func newTestServer(t *testing.T, handler http.Handler) *Server {
	t.Helper()

	backend := httptest.NewServer(handler)
	t.Cleanup(backend.Close)

	cfg := graph.DefaultConfig()
	cfg.BaseURL = backend.URL
	cfg.AccessToken = "test-token"
	cfg.BackoffFloor = time.Millisecond
	cfg.BackoffCeil = 2 * time.Millisecond
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	client, err := graph.New(cfg)
	if err != nil {
		t.Fatalf("creating graph client: %v", err)
	}

	srv, err := NewServer(ServerConfig{Graph: client, LogLevel: "error"})
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}
	return srv
}

// toolRequest builds a CallToolRequest with the given arguments.
func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func TestCreateLogger(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"info", false},
		{"warn", false},
		{"error", false},
		{"", false},
		{"verbose", true},
		{"INFO", true},
	}

	for _, tt := range tests {
		_, err := createLogger(tt.level)
		if (err != nil) != tt.wantErr {
			t.Errorf("createLogger(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
		}
	}
}

func TestNewServer_RequiresGraphClient(t *testing.T) {
	if _, err := NewServer(ServerConfig{}); err == nil {
		t.Fatal("expected error for missing graph client")
	}
}

func TestNewServer_Defaults(t *testing.T) {
	srv := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	if srv.name != "meta-ads" {
		t.Errorf("expected default name, got %q", srv.name)
	}
	if srv.version != "dev" {
		t.Errorf("expected default version, got %q", srv.version)
	}
	if srv.media != nil {
		t.Error("media source should be nil unless configured")
	}
}

func TestNewServer_InvalidLogLevel(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer backend.Close()

	cfg := graph.DefaultConfig()
	cfg.BaseURL = backend.URL
	cfg.AccessToken = "test-token"
	client, err := graph.New(cfg)
	if err != nil {
		t.Fatalf("creating graph client: %v", err)
	}

	if _, err := NewServer(ServerConfig{Graph: client, LogLevel: "loud"}); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}
