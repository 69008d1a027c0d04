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

func (s *Server) registerAudienceTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_custom_audience",
		Description: "Create a custom audience in an ad account.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"account_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account ID with the act_ prefix",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Audience name",
				},
				"subtype": map[string]interface{}{
					"type":        "string",
					"description": "Audience subtype: CUSTOM, WEBSITE, APP, OFFLINE_CONVERSION, ENGAGEMENT, VIDEO, LOOKALIKE and others",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Optional audience description",
				},
				"customer_file_source": map[string]interface{}{
					"type":        "string",
					"description": "USER_PROVIDED_ONLY, PARTNER_PROVIDED_ONLY or BOTH_USER_AND_PARTNER_PROVIDED",
				},
			},
			Required: []string{"account_id", "name", "subtype"},
		},
	}, s.handleCreateCustomAudience)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_lookalike_audience",
		Description: "Create a lookalike audience from an existing custom audience. lookalike_spec must include country and ratio (0.01 to 0.20).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"account_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account ID with the act_ prefix",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Audience name",
				},
				"origin_audience_id": map[string]interface{}{
					"type":        "string",
					"description": "Source custom audience ID",
				},
				"lookalike_spec": map[string]interface{}{
					"type":        "object",
					"description": "Spec such as {\"country\": \"US\", \"ratio\": 0.01}",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Optional audience description",
				},
			},
			Required: []string{"account_id", "name", "origin_audience_id", "lookalike_spec"},
		},
	}, s.handleCreateLookalikeAudience)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "add_users_to_custom_audience",
		Description: "Add users to a custom audience from SHA256-hashed customer data. Schema names the columns (EMAIL, PHONE, FN, LN, ZIP, ...); data holds one row per user in the same order.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"audience_id": map[string]interface{}{
					"type":        "string",
					"description": "Custom audience ID",
				},
				"schema": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Column types, e.g. [\"EMAIL\", \"PHONE\"]",
				},
				"data": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					"description": "Pre-hashed rows matching the schema order",
				},
			},
			Required: []string{"audience_id", "schema", "data"},
		},
	}, s.makeAudienceUsersHandler(false))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "remove_users_from_custom_audience",
		Description: "Remove users from a custom audience. Same schema/data contract as add_users_to_custom_audience.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"audience_id": map[string]interface{}{
					"type":        "string",
					"description": "Custom audience ID",
				},
				"schema": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Column types, e.g. [\"EMAIL\", \"PHONE\"]",
				},
				"data": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
					"description": "Pre-hashed rows matching the schema order",
				},
			},
			Required: []string{"audience_id", "schema", "data"},
		},
	}, s.makeAudienceUsersHandler(true))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_custom_audience",
		Description: "Get details of a custom audience: size, subtype, delivery status and more.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"audience_id": map[string]interface{}{
					"type":        "string",
					"description": "Custom audience ID",
				},
				"fields": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Fields to retrieve, e.g. name, subtype, approximate_count, delivery_status, time_created",
				},
			},
			Required: []string{"audience_id"},
		},
	}, s.makeObjectGetHandler("audience_id", "Failed to fetch custom audience"))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_custom_audiences",
		Description: "List custom audiences in an ad account, with optional filtering.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"account_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account ID with the act_ prefix",
				},
				"fields": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Fields to retrieve for each audience",
				},
				"filtering": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "object"},
					"description": "Filter clauses, e.g. [{\"field\": \"subtype\", \"operator\": \"EQUAL\", \"value\": \"LOOKALIKE\"}]",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of audiences to return (default: 100)",
				},
			},
			Required: []string{"account_id"},
		},
	}, s.handleListCustomAudiences)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "update_custom_audience",
		Description: "Update the name or description of a custom audience.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"audience_id": map[string]interface{}{
					"type":        "string",
					"description": "Custom audience ID",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "New audience name",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "New audience description",
				},
			},
			Required: []string{"audience_id"},
		},
	}, s.handleUpdateCustomAudience)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_custom_audience",
		Description: "Delete a custom audience.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"audience_id": map[string]interface{}{
					"type":        "string",
					"description": "Custom audience ID to delete",
				},
			},
			Required: []string{"audience_id"},
		},
	}, s.makeObjectDeleteHandler("audience_id", "Failed to delete custom audience"))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_saved_audience",
		Description: "Create a saved audience from a targeting spec (geo_locations, age range, genders, interests, behaviors, platforms).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"account_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account ID with the act_ prefix",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Audience name",
				},
				"targeting": map[string]interface{}{
					"type":        "object",
					"description": "Targeting spec, e.g. {\"geo_locations\": {\"countries\": [\"US\"]}, \"age_min\": 18, \"age_max\": 65}",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Optional audience description",
				},
			},
			Required: []string{"account_id", "name", "targeting"},
		},
	}, s.handleCreateSavedAudience)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_saved_audience",
		Description: "Get details of a saved audience.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"audience_id": map[string]interface{}{
					"type":        "string",
					"description": "Saved audience ID",
				},
				"fields": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Fields to retrieve, e.g. name, targeting, time_created",
				},
			},
			Required: []string{"audience_id"},
		},
	}, s.makeObjectGetHandler("audience_id", "Failed to fetch saved audience"))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_saved_audiences",
		Description: "List saved audiences in an ad account.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"account_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account ID with the act_ prefix",
				},
				"fields": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Fields to retrieve for each audience",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of audiences to return (default: 100)",
				},
			},
			Required: []string{"account_id"},
		},
	}, s.handleListSavedAudiences)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_saved_audience",
		Description: "Delete a saved audience.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"audience_id": map[string]interface{}{
					"type":        "string",
					"description": "Saved audience ID to delete",
				},
			},
			Required: []string{"audience_id"},
		},
	}, s.makeObjectDeleteHandler("audience_id", "Failed to delete saved audience"))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "share_custom_audience",
		Description: "Share a custom audience with other ad accounts.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"audience_id": map[string]interface{}{
					"type":        "string",
					"description": "Custom audience ID to share",
				},
				"account_ids": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Ad account IDs to share the audience with",
				},
			},
			Required: []string{"audience_id", "account_ids"},
		},
	}, s.handleShareCustomAudience)
}

func (s *Server) handleCreateCustomAudience(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accountID, err := request.RequireString("account_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	subtype, err := request.RequireString("subtype")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()

	params := url.Values{}
	params.Set("name", name)
	params.Set("subtype", subtype)
	setIfNotEmpty(params, "description", argString(args, "description"))
	setIfNotEmpty(params, "customer_file_source", argString(args, "customer_file_source"))

	data, err := s.graph.Post(ctx, accountID+"/customaudiences", params)
	if err != nil {
		return failureResponse("Failed to create custom audience", err, params), nil
	}
	return jsonResponse(data), nil
}

func (s *Server) handleCreateLookalikeAudience(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accountID, err := request.RequireString("account_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	originID, err := request.RequireString("origin_audience_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()
	spec := argMap(args, "lookalike_spec")
	if spec == nil {
		return errorResponse("lookalike_spec is required"), nil
	}
	if _, ok := spec["country"]; !ok {
		return errorResponse("lookalike_spec must include 'country' and 'ratio'"), nil
	}
	if _, ok := spec["ratio"]; !ok {
		return errorResponse("lookalike_spec must include 'country' and 'ratio'"), nil
	}

	params := url.Values{}
	params.Set("name", name)
	params.Set("subtype", "LOOKALIKE")
	params.Set("origin_audience_id", originID)
	params.Set("lookalike_spec", jsonArg(spec))
	setIfNotEmpty(params, "description", argString(args, "description"))

	data, err := s.graph.Post(ctx, accountID+"/customaudiences", params)
	if err != nil {
		return failureResponse("Failed to create lookalike audience", err, params), nil
	}
	return jsonResponse(data), nil
}

// makeAudienceUsersHandler builds the add/remove users handler. Both
// endpoints post the same payload shape; removal sets is_remove.
func (s *Server) makeAudienceUsersHandler(remove bool) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action := "Failed to add users to custom audience"
	if remove {
		action = "Failed to remove users from custom audience"
	}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		audienceID, err := request.RequireString("audience_id")
		if err != nil {
			return errorResponse(err.Error()), nil
		}

		args := request.GetArguments()
		schema := argStringSlice(args, "schema")
		if len(schema) == 0 {
			return errorResponse("No schema provided"), nil
		}
		rows, ok := args["data"].([]any)
		if !ok || len(rows) == 0 {
			return errorResponse("No user data provided"), nil
		}

		payload := map[string]any{
			"schema": schema,
			"data":   rows,
		}
		if remove {
			payload["is_remove"] = true
		}

		params := url.Values{}
		params.Set("payload", jsonArg(payload))

		data, err := s.graph.Post(ctx, audienceID+"/users", params)
		if err != nil {
			return failureResponse(action, err, nil), nil
		}
		return jsonResponse(data), nil
	}
}

// makeObjectGetHandler builds a handler that reads a single Graph object by
// ID with an optional field list.
func (s *Server) makeObjectGetHandler(idKey, action string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objectID, err := request.RequireString(idKey)
		if err != nil {
			return errorResponse(err.Error()), nil
		}

		params := url.Values{}
		if fields := argStringSlice(request.GetArguments(), "fields"); len(fields) > 0 {
			params.Set("fields", strings.Join(fields, ","))
		}

		data, err := s.graph.Get(ctx, objectID, params)
		if err != nil {
			return failureResponse(action, err, params), nil
		}
		return jsonResponse(data), nil
	}
}

// makeObjectDeleteHandler builds a handler that deletes a Graph object by ID.
func (s *Server) makeObjectDeleteHandler(idKey, action string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objectID, err := request.RequireString(idKey)
		if err != nil {
			return errorResponse(err.Error()), nil
		}

		data, err := s.graph.Delete(ctx, objectID, nil)
		if err != nil {
			return failureResponse(action, err, nil), nil
		}
		return jsonResponse(data), nil
	}
}

func (s *Server) handleListCustomAudiences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accountID, err := request.RequireString("account_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()

	params := url.Values{}
	params.Set("limit", strconv.Itoa(argInt(args, "limit", 100)))
	if fields := argStringSlice(args, "fields"); len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}
	if filtering := argMapSlice(args, "filtering"); filtering != nil {
		params.Set("filtering", jsonArg(filtering))
	}

	data, err := s.graph.Get(ctx, accountID+"/customaudiences", params)
	if err != nil {
		return failureResponse("Failed to list custom audiences", err, params), nil
	}
	return jsonResponse(data), nil
}

func (s *Server) handleUpdateCustomAudience(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	audienceID, err := request.RequireString("audience_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()
	params := url.Values{}
	setIfNotEmpty(params, "name", argString(args, "name"))
	setIfNotEmpty(params, "description", argString(args, "description"))

	if len(params) == 0 {
		return errorResponse("At least one field (name or description) must be provided"), nil
	}

	data, err := s.graph.Post(ctx, audienceID, params)
	if err != nil {
		return failureResponse("Failed to update custom audience", err, params), nil
	}
	return jsonResponse(data), nil
}

func (s *Server) handleCreateSavedAudience(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accountID, err := request.RequireString("account_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()
	targeting := argMap(args, "targeting")
	if targeting == nil {
		return errorResponse("No targeting specification provided"), nil
	}

	params := url.Values{}
	params.Set("name", name)
	params.Set("targeting", jsonArg(targeting))
	setIfNotEmpty(params, "description", argString(args, "description"))

	data, err := s.graph.Post(ctx, accountID+"/saved_audiences", params)
	if err != nil {
		return failureResponse("Failed to create saved audience", err, params), nil
	}
	return jsonResponse(data), nil
}

func (s *Server) handleListSavedAudiences(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	accountID, err := request.RequireString("account_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()

	params := url.Values{}
	params.Set("limit", strconv.Itoa(argInt(args, "limit", 100)))
	if fields := argStringSlice(args, "fields"); len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}

	data, err := s.graph.Get(ctx, accountID+"/saved_audiences", params)
	if err != nil {
		return failureResponse("Failed to list saved audiences", err, params), nil
	}
	return jsonResponse(data), nil
}

func (s *Server) handleShareCustomAudience(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	audienceID, err := request.RequireString("audience_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	accountIDs := argStringSlice(request.GetArguments(), "account_ids")
	if len(accountIDs) == 0 {
		return errorResponse("No account IDs provided"), nil
	}

	params := url.Values{}
	params.Set("adaccounts", jsonArg(accountIDs))

	data, err := s.graph.Post(ctx, audienceID+"/adaccounts", params)
	if err != nil {
		return failureResponse("Failed to share custom audience", err, params), nil
	}
	return jsonResponse(data), nil
}
