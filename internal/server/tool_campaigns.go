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
	"net/url"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerCampaignTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_cbo_campaign",
		Description: "Create a CBO (Campaign Budget Optimization) campaign. Budget and bid strategy live at the campaign level and Meta distributes spend across ad sets automatically. Requires daily_budget or lifetime_budget.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"act_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account ID with the act_ prefix",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Campaign name",
				},
				"objective": map[string]interface{}{
					"type":        "string",
					"description": "Campaign objective: OUTCOME_APP_PROMOTION, OUTCOME_AWARENESS, OUTCOME_ENGAGEMENT, OUTCOME_LEADS, OUTCOME_SALES or OUTCOME_TRAFFIC",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "Initial campaign status (default: PAUSED)",
					"default":     "PAUSED",
				},
				"daily_budget": map[string]interface{}{
					"type":        "string",
					"description": "Daily budget in minor currency units (cents). Either daily_budget or lifetime_budget is required.",
				},
				"lifetime_budget": map[string]interface{}{
					"type":        "string",
					"description": "Lifetime budget in minor currency units (cents)",
				},
				"buying_type": map[string]interface{}{
					"type":        "string",
					"description": "Buying type, e.g. AUCTION",
				},
				"bid_strategy": map[string]interface{}{
					"type":        "string",
					"description": "LOWEST_COST_WITHOUT_CAP (default), LOWEST_COST_WITH_BID_CAP or COST_CAP",
				},
				"bid_amount": map[string]interface{}{
					"type":        "string",
					"description": "Bid amount in cents. Required for LOWEST_COST_WITH_BID_CAP and COST_CAP.",
				},
				"spend_cap": map[string]interface{}{
					"type":        "string",
					"description": "Optional campaign spending limit in cents",
				},
			},
			Required: []string{"act_id", "name", "objective"},
		},
	}, s.handleCreateCBOCampaign)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_abo_campaign",
		Description: "Create an ABO (Ad Set Budget Optimization) campaign. Budget and bidding are set per ad set, so no budget parameters are accepted at the campaign level.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"act_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account ID with the act_ prefix",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Campaign name",
				},
				"objective": map[string]interface{}{
					"type":        "string",
					"description": "Campaign objective (default: OUTCOME_SALES)",
					"default":     "OUTCOME_SALES",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "Initial campaign status (default: PAUSED)",
					"default":     "PAUSED",
				},
				"buying_type": map[string]interface{}{
					"type":        "string",
					"description": "Buying type (default: AUCTION)",
					"default":     "AUCTION",
				},
			},
			Required: []string{"act_id", "name"},
		},
	}, s.handleCreateABOCampaign)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "set_campaign_status",
		Description: "Pause, archive or reactivate a campaign by setting its status.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"campaign_id": map[string]interface{}{
					"type":        "string",
					"description": "Campaign ID",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "New status: ACTIVE, PAUSED, DELETED or ARCHIVED",
				},
			},
			Required: []string{"campaign_id", "status"},
		},
	}, s.handleSetCampaignStatus)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "update_campaign_budget",
		Description: "Update the daily or lifetime budget of a campaign.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"campaign_id": map[string]interface{}{
					"type":        "string",
					"description": "Campaign ID",
				},
				"daily_budget": map[string]interface{}{
					"type":        "string",
					"description": "Daily budget in minor currency units (cents)",
				},
				"lifetime_budget": map[string]interface{}{
					"type":        "string",
					"description": "Lifetime budget in minor currency units (cents)",
				},
			},
			Required: []string{"campaign_id"},
		},
	}, s.handleUpdateCampaignBudget)
}

func (s *Server) handleCreateCBOCampaign(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actID, err := request.RequireString("act_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	objective, err := request.RequireString("objective")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()
	dailyBudget := argString(args, "daily_budget")
	lifetimeBudget := argString(args, "lifetime_budget")
	if dailyBudget == "" && lifetimeBudget == "" {
		return errorResponse("CBO campaigns require either daily_budget or lifetime_budget"), nil
	}

	bidStrategy := argStringOr(args, "bid_strategy", "LOWEST_COST_WITHOUT_CAP")
	bidAmount := argString(args, "bid_amount")
	if (bidStrategy == "LOWEST_COST_WITH_BID_CAP" || bidStrategy == "COST_CAP") && bidAmount == "" {
		return errorResponse(fmt.Sprintf("bid_amount is required when bid_strategy is %s", bidStrategy)), nil
	}

	params := url.Values{}
	params.Set("name", name)
	params.Set("objective", objective)
	params.Set("status", argStringOr(args, "status", "PAUSED"))
	params.Set("campaign_budget_optimization", "true")
	params.Set("bid_strategy", bidStrategy)
	// required by the API even when empty
	params.Set("special_ad_categories", "[]")

	setIfNotEmpty(params, "daily_budget", dailyBudget)
	setIfNotEmpty(params, "lifetime_budget", lifetimeBudget)
	setIfNotEmpty(params, "buying_type", argString(args, "buying_type"))
	setIfNotEmpty(params, "bid_amount", bidAmount)
	setIfNotEmpty(params, "spend_cap", argString(args, "spend_cap"))

	data, err := s.graph.Post(ctx, actID+"/campaigns", params)
	if err != nil {
		return failureResponse("Failed to create CBO campaign", err, params), nil
	}
	return jsonResponse(data), nil
}

func (s *Server) handleCreateABOCampaign(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actID, err := request.RequireString("act_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()

	params := url.Values{}
	params.Set("name", name)
	params.Set("objective", argStringOr(args, "objective", "OUTCOME_SALES"))
	params.Set("status", argStringOr(args, "status", "PAUSED"))
	params.Set("campaign_budget_optimization", "false")
	params.Set("buying_type", argStringOr(args, "buying_type", "AUCTION"))
	params.Set("special_ad_categories", "[]")

	data, err := s.graph.Post(ctx, actID+"/campaigns", params)
	if err != nil {
		return failureResponse("Failed to create ABO campaign", err, params), nil
	}
	return jsonResponse(data), nil
}

func (s *Server) handleSetCampaignStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	campaignID, err := request.RequireString("campaign_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	status, err := request.RequireString("status")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	params := url.Values{}
	params.Set("status", status)

	data, err := s.graph.Post(ctx, campaignID, params)
	if err != nil {
		return failureResponse("Failed to update campaign status", err, params), nil
	}
	return jsonResponse(data), nil
}

func (s *Server) handleUpdateCampaignBudget(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	campaignID, err := request.RequireString("campaign_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()
	dailyBudget := argString(args, "daily_budget")
	lifetimeBudget := argString(args, "lifetime_budget")
	if dailyBudget == "" && lifetimeBudget == "" {
		return errorResponse("Provide daily_budget or lifetime_budget"), nil
	}

	params := url.Values{}
	setIfNotEmpty(params, "daily_budget", dailyBudget)
	setIfNotEmpty(params, "lifetime_budget", lifetimeBudget)

	data, err := s.graph.Post(ctx, campaignID, params)
	if err != nil {
		return failureResponse("Failed to update campaign budget", err, params), nil
	}
	return jsonResponse(data), nil
}
