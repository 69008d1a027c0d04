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

package shared

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitError_Error(t *testing.T) {
	err := NewConfigError("loading configuration", errors.New("META_ACCESS_TOKEN is required"))

	if err.Code != ExitConfigError {
		t.Errorf("expected config exit code, got %d", err.Code)
	}
	want := "loading configuration: META_ACCESS_TOKEN is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestExitError_NoCause(t *testing.T) {
	err := NewServerError("MCP server error", nil)

	if err.Error() != "MCP server error" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestExitError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewAPIError("graph call failed", cause)

	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through the error chain")
	}

	wrapped := fmt.Errorf("outer: %w", err)
	var exitErr *ExitError
	if !errors.As(wrapped, &exitErr) {
		t.Fatal("ExitError should be recoverable from a wrapped chain")
	}
	if exitErr.Code != ExitAPIError {
		t.Errorf("expected API exit code, got %d", exitErr.Code)
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2026-08-31")
	defer SetVersion("dev", "unknown", "unknown")

	v, c, b := GetVersion()
	if v != "1.2.3" || c != "abc123" || b != "2026-08-31" {
		t.Errorf("GetVersion() = %q, %q, %q", v, c, b)
	}
}
