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
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// defaultAdAccountFields is what get_adaccount_details returns when the
// caller does not narrow the field list.
var defaultAdAccountFields = []string{
	"name",
	"business_name",
	"age",
	"account_status",
	"balance",
	"amount_spent",
	"attribution_spec",
	"account_id",
	"business",
	"business_city",
	"brand_safety_content_filter_levels",
	"currency",
	"created_time",
	"id",
}

func (s *Server) registerAccountTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_ad_accounts",
		Description: "List ad accounts associated with the authenticated user, with their names and IDs.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListAdAccounts)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_adaccount_details",
		Description: "Get details of a specific ad account: status, balance, spend, currency and more.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"act_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account ID with the act_ prefix (e.g. act_1234567890)",
				},
				"fields": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Specific fields to retrieve. Defaults to a standard set including name, account_status, balance, amount_spent and currency.",
				},
			},
			Required: []string{"act_id"},
		},
	}, s.handleAdAccountDetails)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_adaccount_activities",
		Description: "Retrieve the activity log for an ad account: status changes, budget updates, targeting edits and more. Returns one week of data by default.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"act_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account ID with the act_ prefix",
				},
				"fields": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Fields to retrieve, e.g. event_type, event_time, actor_name, object_name, extra_data",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of activities per page",
				},
				"after": map[string]interface{}{
					"type":        "string",
					"description": "Pagination cursor for the next page",
				},
				"before": map[string]interface{}{
					"type":        "string",
					"description": "Pagination cursor for the previous page",
				},
				"time_range": map[string]interface{}{
					"type":        "object",
					"description": "Custom range {\"since\": \"YYYY-MM-DD\", \"until\": \"YYYY-MM-DD\"}. Overrides since/until.",
				},
				"since": map[string]interface{}{
					"type":        "string",
					"description": "Start date in YYYY-MM-DD format. Ignored when time_range is set.",
				},
				"until": map[string]interface{}{
					"type":        "string",
					"description": "End date in YYYY-MM-DD format. Ignored when time_range is set.",
				},
			},
			Required: []string{"act_id"},
		},
	}, s.makeActivitiesHandler("act_id"))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_adset_activities",
		Description: "Retrieve the activity log for a single ad set.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"adset_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad set ID",
				},
				"fields": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Fields to retrieve, e.g. event_type, event_time, actor_name, extra_data",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of activities per page",
				},
				"after": map[string]interface{}{
					"type":        "string",
					"description": "Pagination cursor for the next page",
				},
				"before": map[string]interface{}{
					"type":        "string",
					"description": "Pagination cursor for the previous page",
				},
				"time_range": map[string]interface{}{
					"type":        "object",
					"description": "Custom range {\"since\": \"YYYY-MM-DD\", \"until\": \"YYYY-MM-DD\"}. Overrides since/until.",
				},
				"since": map[string]interface{}{
					"type":        "string",
					"description": "Start date in YYYY-MM-DD format",
				},
				"until": map[string]interface{}{
					"type":        "string",
					"description": "End date in YYYY-MM-DD format",
				},
			},
			Required: []string{"adset_id"},
		},
	}, s.makeActivitiesHandler("adset_id"))
}

func (s *Server) handleListAdAccounts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := url.Values{}
	params.Set("fields", "adaccounts{name,account_id}")

	data, err := s.graph.Get(ctx, "me", params)
	if err != nil {
		return failureResponse("Failed to list ad accounts", err, params), nil
	}
	return jsonResponse(data), nil
}

func (s *Server) handleAdAccountDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actID, err := request.RequireString("act_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	fields := argStringSlice(request.GetArguments(), "fields")
	if len(fields) == 0 {
		fields = defaultAdAccountFields
	}

	params := url.Values{}
	params.Set("fields", strings.Join(fields, ","))

	data, err := s.graph.Get(ctx, actID, params)
	if err != nil {
		return failureResponse("Failed to fetch ad account details", err, params), nil
	}
	return jsonResponse(data), nil
}

// makeActivitiesHandler builds the shared handler for account and ad set
// activity logs; only the name of the ID argument differs.
func (s *Server) makeActivitiesHandler(idKey string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objectID, err := request.RequireString(idKey)
		if err != nil {
			return errorResponse(err.Error()), nil
		}

		args := request.GetArguments()
		params := url.Values{}

		if fields := argStringSlice(args, "fields"); len(fields) > 0 {
			params.Set("fields", strings.Join(fields, ","))
		}
		if limit := argInt(args, "limit", 0); limit > 0 {
			params.Set("limit", strconv.Itoa(limit))
		}
		setIfNotEmpty(params, "after", argString(args, "after"))
		setIfNotEmpty(params, "before", argString(args, "before"))

		// time_range takes precedence over since/until
		if timeRange := argMap(args, "time_range"); timeRange != nil {
			params.Set("time_range", jsonArg(timeRange))
		} else {
			setIfNotEmpty(params, "since", argString(args, "since"))
			setIfNotEmpty(params, "until", argString(args, "until"))
		}

		data, err := s.graph.Get(ctx, objectID+"/activities", params)
		if err != nil {
			return failureResponse("Failed to fetch activities", err, params), nil
		}
		return jsonResponse(data), nil
	}
}
