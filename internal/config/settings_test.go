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

package config

import (
	"strings"
	"testing"
)

func TestLoad_RequiresAccessToken(t *testing.T) {
	t.Setenv("META_ACCESS_TOKEN", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing META_ACCESS_TOKEN")
	}
	if !strings.Contains(err.Error(), "META_ACCESS_TOKEN") {
		t.Errorf("error should name the missing variable: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("META_ACCESS_TOKEN", "tok")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("MAX_RETRIES", "")
	t.Setenv("GRAPH_API_VERSION", "")

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.AccessToken != "tok" {
		t.Errorf("unexpected token: %q", s.AccessToken)
	}
	if s.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", s.LogLevel)
	}
	if s.MaxAttempts != 0 {
		t.Errorf("expected zero max attempts (client default), got %d", s.MaxAttempts)
	}
}

func TestLoad_ParsesMaxRetries(t *testing.T) {
	t.Setenv("META_ACCESS_TOKEN", "tok")
	t.Setenv("MAX_RETRIES", "3")

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.MaxAttempts != 3 {
		t.Errorf("expected 3, got %d", s.MaxAttempts)
	}
}

func TestLoad_RejectsBadMaxRetries(t *testing.T) {
	t.Setenv("META_ACCESS_TOKEN", "tok")

	for _, bad := range []string{"abc", "0", "-1"} {
		t.Setenv("MAX_RETRIES", bad)
		if _, err := Load(); err == nil {
			t.Errorf("expected error for MAX_RETRIES=%q", bad)
		}
	}
}

func TestLoad_ReadsOverrides(t *testing.T) {
	t.Setenv("META_ACCESS_TOKEN", "tok")
	t.Setenv("GRAPH_API_VERSION", "v23.0")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AWS_REGION", "sa-east-1")
	t.Setenv("MAX_RETRIES", "")

	s, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.APIVersion != "v23.0" {
		t.Errorf("unexpected API version: %q", s.APIVersion)
	}
	if s.LogLevel != "debug" {
		t.Errorf("unexpected log level: %q", s.LogLevel)
	}
	if s.AWSRegion != "sa-east-1" {
		t.Errorf("unexpected region: %q", s.AWSRegion)
	}
}
