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
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/meta-ads-mcp/pkg/graph"
)

var batchObjectEndpoints = map[string]string{
	"campaign": "campaigns",
	"adset":    "adsets",
	"ad":       "ads",
}

func batchQueryProperties(namesKey, namesDescription string) map[string]interface{} {
	return map[string]interface{}{
		"act_id": map[string]interface{}{
			"type":        "string",
			"description": "Ad account ID with the act_ prefix",
		},
		namesKey: map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": namesDescription,
		},
		"metrics": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "Insights metrics to retrieve: impressions, clicks, spend, reach, ctr, cpc, cpm, frequency and more",
		},
		"date_preset": map[string]interface{}{
			"type":        "string",
			"description": "Preset date range (today, yesterday, last_7d, last_30d, ...). Ignored when time_range is set.",
		},
		"time_range": map[string]interface{}{
			"type":        "object",
			"description": "Custom range {\"since\": \"YYYY-MM-DD\", \"until\": \"YYYY-MM-DD\"}. Takes precedence over date_preset.",
		},
	}
}

func (s *Server) registerBatchTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "fetch_campaigns_by_name",
		Description: "Fetch multiple campaigns by exact name together with their insights. Lookups and insight reads are sent as batched Graph API requests rather than one call per campaign.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: batchQueryProperties("campaign_names", "Campaign names to fetch, exact match only"),
			Required:   []string{"act_id", "campaign_names", "metrics"},
		},
	}, s.makeBatchQueryHandler("campaign_names", "campaign"))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "fetch_adsets_by_name",
		Description: "Fetch multiple ad sets by exact name together with their insights, using batched Graph API requests.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: batchQueryProperties("adset_names", "Ad set names to fetch, exact match only"),
			Required:   []string{"act_id", "adset_names", "metrics"},
		},
	}, s.makeBatchQueryHandler("adset_names", "adset"))

	objectProps := batchQueryProperties("object_names", "Object names to fetch, exact match only")
	objectProps["object_type"] = map[string]interface{}{
		"type":        "string",
		"description": "Type of object to fetch: campaign, adset or ad",
	}
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "fetch_objects_by_name",
		Description: "Fetch campaigns, ad sets or ads by exact name together with their insights, using batched Graph API requests.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: objectProps,
			Required:   []string{"act_id", "object_names", "object_type", "metrics"},
		},
	}, s.handleFetchObjectsByName)
}

func (s *Server) makeBatchQueryHandler(namesKey, objectType string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.runBatchQuery(ctx, request, namesKey, objectType)
	}
}

func (s *Server) handleFetchObjectsByName(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	objectType, err := request.RequireString("object_type")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	if _, ok := batchObjectEndpoints[objectType]; !ok {
		return errorResponse(fmt.Sprintf("Invalid object_type: %s. Must be 'campaign', 'adset' or 'ad'.", objectType)), nil
	}
	return s.runBatchQuery(ctx, request, "object_names", objectType)
}

// matchedObject is one name-lookup hit plus, later, its insights rows.
type matchedObject struct {
	object        map[string]any
	requestedName string
}

// runBatchQuery performs the two-phase lookup behind the by-name tools: a
// batched name search across the account edge, then a batched insights read
// for every hit.
func (s *Server) runBatchQuery(ctx context.Context, request mcp.CallToolRequest, namesKey, objectType string) (*mcp.CallToolResult, error) {
	actID, err := request.RequireString("act_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()
	names := argStringSlice(args, namesKey)
	metrics := argStringSlice(args, "metrics")
	if len(metrics) == 0 {
		return errorResponse("No metrics provided"), nil
	}

	endpoint := batchObjectEndpoints[objectType]

	matched, err := s.lookupObjectsByName(ctx, actID, endpoint, names)
	if err != nil {
		return failureResponse("Failed to fetch "+endpoint, err, nil), nil
	}

	withInsights, err := s.attachInsights(ctx, matched, metrics, objectType, args)
	if err != nil {
		return failureResponse("Failed to fetch insights", err, nil), nil
	}

	nameMappings := map[string]string{}
	matchedNames := map[string]bool{}
	insightsOK := 0
	for i, m := range matched {
		nameMappings[m.requestedName] = m.requestedName
		matchedNames[m.requestedName] = true
		if _, failed := withInsights[i]["insights_error"]; !failed {
			insightsOK++
		}
	}

	unmatched := []string{}
	for _, name := range names {
		if !matchedNames[name] {
			unmatched = append(unmatched, name)
		}
	}

	return jsonResponse(map[string]any{
		"data": withInsights,
		"summary": map[string]any{
			"requested_names":           names,
			"object_type":               objectType,
			"total_matched_" + endpoint: len(matched),
			endpoint + "_with_insights": insightsOK,
			"unmatched_requests":        unmatched,
			"name_mappings":             nameMappings,
		},
	}), nil
}

// lookupObjectsByName issues one batched name-filtered read per requested
// name against the account's {endpoint} edge.
func (s *Server) lookupObjectsByName(ctx context.Context, actID, endpoint string, names []string) ([]matchedObject, error) {
	if len(names) == 0 {
		return nil, nil
	}

	items := make([]graph.BatchItem, 0, len(names))
	for _, name := range names {
		params := url.Values{}
		params.Set("fields", "id,name,effective_status")
		params.Set("limit", "500")
		params.Set("filtering", jsonArg([]map[string]string{
			{"field": "name", "operator": "EQUAL", "value": name},
		}))
		items = append(items, graph.BatchItem{
			Method:      http.MethodGet,
			RelativeURL: graph.BuildRelativePath(actID, endpoint, params),
		})
	}

	responses, err := s.graph.ExecuteBatch(ctx, items)
	if err != nil {
		return nil, err
	}

	var matched []matchedObject
	for i, resp := range responses {
		if resp.Code != http.StatusOK {
			s.logger.Warn("name lookup failed",
				"name", names[i],
				"status", resp.Code)
			continue
		}
		body, ok := resp.Body.(map[string]any)
		if !ok {
			continue
		}
		rows, _ := body["data"].([]any)
		for _, row := range rows {
			obj, ok := row.(map[string]any)
			if !ok {
				continue
			}
			obj["requested_name"] = names[i]
			obj["matched_name"] = names[i]
			matched = append(matched, matchedObject{object: obj, requestedName: names[i]})
		}
	}
	return matched, nil
}

// attachInsights batches one insights read per matched object and merges the
// rows into each object. Per-object failures are recorded in-place.
func (s *Server) attachInsights(ctx context.Context, matched []matchedObject, metrics []string, level string, args map[string]any) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(matched))
	if len(matched) == 0 {
		return out, nil
	}

	items := make([]graph.BatchItem, 0, len(matched))
	for _, m := range matched {
		params := url.Values{}
		params.Set("fields", strings.Join(metrics, ","))
		params.Set("level", level)
		if timeRange := argMap(args, "time_range"); timeRange != nil {
			params.Set("time_range", jsonArg(timeRange))
		} else if preset := argString(args, "date_preset"); preset != "" {
			params.Set("date_preset", preset)
		}
		objectID, _ := m.object["id"].(string)
		items = append(items, graph.BatchItem{
			Method:      http.MethodGet,
			RelativeURL: graph.BuildRelativePath(objectID, "insights", params),
		})
	}

	responses, err := s.graph.ExecuteBatch(ctx, items)
	if err != nil {
		return nil, err
	}

	for i, m := range matched {
		entry := m.object
		resp := responses[i]
		if resp.Code == http.StatusOK {
			if body, ok := resp.Body.(map[string]any); ok {
				if rows, ok := body["data"]; ok {
					entry["insights"] = rows
					out = append(out, entry)
					continue
				}
			}
		}
		entry["insights"] = []any{}
		entry["insights_error"] = fmt.Sprintf("insights request returned status %d", resp.Code)
		out = append(out, entry)
	}
	return out, nil
}
