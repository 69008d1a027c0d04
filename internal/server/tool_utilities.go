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
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var tokenSplitRE = regexp.MustCompile(`[,|]`)

func (s *Server) registerUtilityTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_region_keys",
		Description: "Resolve state/region geo keys for ad set targeting. Accepts tokens separated by comma or pipe and returns the top match per token.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Region tokens separated by comma or pipe, e.g. \"sao, rio de janeiro\". Case-insensitive, accents optional.",
				},
				"country_code": map[string]interface{}{
					"type":        "string",
					"description": "Two-letter country code to search within (default: BR)",
					"default":     "BR",
				},
			},
			Required: []string{"query"},
		},
	}, s.handleGetRegionKeys)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_pixels",
		Description: "List datasets/pixels associated with an ad account or business.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"account_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account (act_<ID>) or business ID",
				},
			},
			Required: []string{"account_id"},
		},
	}, s.handleListPixels)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "search_ad_interests",
		Description: "Search Meta's adinterest catalog. Accepts one or two search terms and returns up to 5 interest objects with readable accented text.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"keywords": map[string]interface{}{
					"type":        "string",
					"description": "A single term (\"futebol\") or up to two terms separated by comma or pipe (\"futebol, esportes\")",
				},
			},
			Required: []string{"keywords"},
		},
	}, s.handleSearchAdInterests)
}

// splitTokens splits on comma or pipe and deduplicates case-insensitively,
// keeping first occurrence order.
func splitTokens(query string) []string {
	raw := tokenSplitRE.Split(query, -1)
	seen := map[string]bool{}
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		lower := strings.ToLower(tok)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		tokens = append(tokens, tok)
	}
	return tokens
}

func (s *Server) handleGetRegionKeys(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	countryCode := argStringOr(request.GetArguments(), "country_code", "BR")

	titler := cases.Title(language.Und)
	regions := make([]map[string]any, 0)

	for _, token := range splitTokens(query) {
		params := url.Values{}
		params.Set("type", "adgeolocation")
		params.Set("location_types", `["region"]`)
		params.Set("country_code", countryCode)
		params.Set("q", token)
		params.Set("limit", "5")

		data, err := s.graph.Get(ctx, "search", params)
		if err != nil {
			regions = append(regions, map[string]any{
				"name":  titler.String(token),
				"key":   nil,
				"error": err.Error(),
			})
			continue
		}

		entry := map[string]any{"name": titler.String(token), "key": nil}
		if body, ok := data.(map[string]any); ok {
			if items, ok := body["data"].([]any); ok && len(items) > 0 {
				if top, ok := items[0].(map[string]any); ok {
					entry["name"] = top["name"]
					entry["key"] = top["key"]
				}
			}
		}
		regions = append(regions, entry)
	}

	return jsonResponse(map[string]any{"regions": regions}), nil
}

func (s *Server) handleListPixels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accountID, err := request.RequireString("account_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	params := url.Values{}
	params.Set("fields", "id,name")

	data, err := s.graph.Get(ctx, accountID+"/adspixels", params)
	if err != nil {
		return failureResponse("Failed to list pixels", err, params), nil
	}

	// unwrap the data envelope; callers only care about the pixel list
	if body, ok := data.(map[string]any); ok {
		if items, ok := body["data"]; ok {
			return jsonResponse(items), nil
		}
	}
	return jsonResponse(data), nil
}

func (s *Server) handleSearchAdInterests(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keywords, err := request.RequireString("keywords")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	tokens := splitTokens(keywords)
	if len(tokens) == 0 {
		return errorResponse("No search terms provided"), nil
	}
	if len(tokens) > 2 {
		return jsonResponse(map[string]any{
			"error":          "You can search at most two interest terms.",
			"received_terms": tokens,
		}), nil
	}

	params := url.Values{}
	params.Set("type", "adinterest")
	params.Set("limit", "5")
	if len(tokens) == 1 {
		params.Set("q", tokens[0])
	} else {
		params.Set("q", jsonArg(tokens))
	}

	data, err := s.graph.Get(ctx, "search", params)
	if err != nil {
		return failureResponse("Failed to search ad interests", err, params), nil
	}

	return jsonResponse(decodeUnicodeEscapes(data)), nil
}
