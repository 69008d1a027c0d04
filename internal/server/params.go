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
	"encoding/json"
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/meta-ads-mcp/pkg/graph"
)

// Tool arguments arrive as decoded JSON, so numbers are float64 and arrays
// are []any. These helpers normalize them into the shapes the Graph API
// parameters want. Missing or mistyped values come back as zero values;
// required-field checks happen in the handlers.

func argString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func argStringOr(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

func argBool(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// argStringSlice accepts either a JSON array of strings or a single
// comma-separated string.
func argStringSlice(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func argMap(args map[string]any, key string) map[string]any {
	v, _ := args[key].(map[string]any)
	return v
}

// argMapSlice returns a list of objects, used for filtering clauses and
// tracking specs.
func argMapSlice(args map[string]any, key string) []map[string]any {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// jsonArg JSON-encodes a compound value for the form-encoded Graph API
// surface. Compound fields (targeting, filtering, promoted_object, ...)
// always travel as JSON strings inside the urlencoded body.
func jsonArg(v any) string {
	out, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(out)
}

func setIfNotEmpty(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

// failureEnvelope is the uniform error payload returned by every tool when a
// Graph call fails: what was attempted, what the provider said, and what was
// sent (minus the credential, which never reaches this layer).
type failureEnvelope struct {
	Error      string            `json:"error"`
	Details    string            `json:"details"`
	Response   map[string]any    `json:"response,omitempty"`
	ParamsSent map[string]string `json:"params_sent,omitempty"`
}

// failureResponse renders a failed Graph call as tool output rather than a
// protocol error, so the model can read the provider's diagnosis and adjust.
func failureResponse(action string, err error, params url.Values) *mcp.CallToolResult {
	env := failureEnvelope{
		Error:   action,
		Details: err.Error(),
	}

	var apiErr *graph.Error
	if errors.As(err, &apiErr) && apiErr.Body != nil {
		env.Response = apiErr.Body
	}

	if len(params) > 0 {
		sent := make(map[string]string, len(params))
		for key := range params {
			sent[key] = params.Get(key)
		}
		env.ParamsSent = sent
	}

	out, merr := json.MarshalIndent(env, "", "  ")
	if merr != nil {
		return errorResponse(err.Error())
	}
	return textResponse(string(out))
}

var datePresets = map[string]bool{
	"today":        true,
	"yesterday":    true,
	"last_7d":      true,
	"last_14d":     true,
	"last_28d":     true,
	"last_30d":     true,
	"last_90d":     true,
	"this_month":   true,
	"last_month":   true,
	"this_quarter": true,
	"last_quarter": true,
	"this_year":    true,
	"last_year":    true,
	"lifetime":     true,
}

var dateFormatRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func validDatePreset(preset string) bool {
	return datePresets[preset]
}

func validDateFormat(date string) bool {
	return dateFormatRE.MatchString(date)
}

// decodeUnicodeEscapes recursively turns literal \uXXXX sequences in strings
// into real UTF-8 characters. The interest search endpoint returns accented
// names escaped this way.
func decodeUnicodeEscapes(v any) any {
	switch val := v.(type) {
	case string:
		if !strings.Contains(val, `\u`) {
			return val
		}
		quoted := `"` + strings.ReplaceAll(strings.ReplaceAll(val, `\`, `\\`), `"`, `\"`) + `"`
		quoted = strings.ReplaceAll(quoted, `\\u`, `\u`)
		if decoded, err := strconv.Unquote(quoted); err == nil {
			return decoded
		}
		return val
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = decodeUnicodeEscapes(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = decodeUnicodeEscapes(item)
		}
		return out
	}
	return v
}
