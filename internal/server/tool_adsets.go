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

	"github.com/mark3labs/mcp-go/mcp"
)

// conversionGoals are the optimization goals that require a promoted object
// (pixel plus standard event) on the ad set.
var conversionGoals = map[string]bool{
	"OFFSITE_CONVERSIONS":                  true,
	"VALUE":                                true,
	"APP_INSTALLS":                         true,
	"APP_INSTALLS_AND_OFFSITE_CONVERSIONS": true,
	"IN_APP_VALUE":                         true,
	"LEAD_GENERATION":                      true,
	"QUALITY_LEAD":                         true,
}

func (s *Server) registerAdsetTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name: "create_adset",
		Description: "Create an ad set in a campaign. For ABO campaigns provide exactly one of daily_budget or lifetime_budget plus a bid_strategy; for CBO campaigns omit all budget and bid parameters. " +
			"Conversion optimization goals (OFFSITE_CONVERSIONS, VALUE, APP_INSTALLS, LEAD_GENERATION, ...) additionally require pixel_id and custom_event_type.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"act_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account ID with the act_ prefix",
				},
				"campaign_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the parent campaign",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Ad set name",
				},
				"optimization_goal": map[string]interface{}{
					"type":        "string",
					"description": "Optimization goal matching the campaign objective, e.g. LINK_CLICKS, LANDING_PAGE_VIEWS, OFFSITE_CONVERSIONS, LEAD_GENERATION, IMPRESSIONS, REACH",
				},
				"billing_event": map[string]interface{}{
					"type":        "string",
					"description": "What you pay for, e.g. IMPRESSIONS or LINK_CLICKS. Must be valid for the optimization goal.",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "Initial delivery status (default: PAUSED)",
					"default":     "PAUSED",
				},
				"daily_budget": map[string]interface{}{
					"type":        "string",
					"description": "Daily budget in cents. ABO only; do not set when the parent campaign carries the budget.",
				},
				"lifetime_budget": map[string]interface{}{
					"type":        "string",
					"description": "Lifetime budget in cents. Requires start_time and end_time.",
				},
				"targeting": map[string]interface{}{
					"type":        "object",
					"description": "Targeting spec: geo_locations, age_min, age_max, genders, interests, targeting_automation. With advantage_audience=1 set age_max to 65.",
				},
				"bid_strategy": map[string]interface{}{
					"type":        "string",
					"description": "LOWEST_COST_WITHOUT_CAP (default), LOWEST_COST_WITH_BID_CAP, COST_CAP or LOWEST_COST_WITH_MIN_ROAS",
				},
				"bid_amount": map[string]interface{}{
					"type":        "string",
					"description": "Bid cap or cost cap in cents, required for the cap strategies",
				},
				"roas_average_floor": map[string]interface{}{
					"type":        "string",
					"description": "Minimum ROAS floor, required for LOWEST_COST_WITH_MIN_ROAS",
				},
				"start_time": map[string]interface{}{
					"type":        "string",
					"description": "ISO-8601 start timestamp, required for lifetime budgets",
				},
				"end_time": map[string]interface{}{
					"type":        "string",
					"description": "ISO-8601 end timestamp, required for lifetime budgets",
				},
				"pixel_id": map[string]interface{}{
					"type":        "string",
					"description": "Pixel ID, required for conversion optimization goals",
				},
				"custom_event_type": map[string]interface{}{
					"type":        "string",
					"description": "Standard event for conversion goals: PURCHASE, VIEW_CONTENT, ADD_TO_CART, ADD_TO_WISHLIST, INITIATE_CHECKOUT, SUBSCRIBE or START_TRIAL",
				},
				"destination_type": map[string]interface{}{
					"type":        "string",
					"description": "Conversion destination: WEBSITE (default), APP, INSTAGRAM_DIRECT or INSTAGRAM_PROFILE",
					"default":     "WEBSITE",
				},
				"website_domain": map[string]interface{}{
					"type":        "string",
					"description": "Conversion domain for website destinations",
				},
			},
			Required: []string{"act_id", "campaign_id", "name", "optimization_goal", "billing_event"},
		},
	}, s.handleCreateAdset)

	s.mcpServer.AddTool(mcp.Tool{
		Name: "update_adset",
		Description: "Update an ad set: status, bidding, optimization goal, frequency caps or targeting. " +
			"Passing only {\"targeting_automation\": ...} in targeting preserves the existing targeting rules and toggles Advantage+ Audience.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"adset_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad set ID",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "New status: ACTIVE, PAUSED, DELETED or ARCHIVED",
				},
				"bid_strategy": map[string]interface{}{
					"type":        "string",
					"description": "LOWEST_COST_WITHOUT_CAP, LOWEST_COST_WITH_BID_CAP, COST_CAP or LOWEST_COST_WITH_MIN_ROAS",
				},
				"bid_amount": map[string]interface{}{
					"type":        "integer",
					"description": "Bid amount in account currency cents",
				},
				"optimization_goal": map[string]interface{}{
					"type":        "string",
					"description": "New optimization goal",
				},
				"frequency_control_specs": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "object"},
					"description": "Frequency caps, e.g. [{\"event\": \"IMPRESSIONS\", \"interval_days\": 7, \"max_frequency\": 3}]",
				},
				"targeting": map[string]interface{}{
					"type":        "object",
					"description": "Full targeting spec, or a targeting_automation-only block to keep existing rules",
				},
			},
			Required: []string{"adset_id"},
		},
	}, s.handleUpdateAdset)
}

func (s *Server) handleCreateAdset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actID, err := request.RequireString("act_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	campaignID, err := request.RequireString("campaign_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	optimizationGoal, err := request.RequireString("optimization_goal")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	billingEvent, err := request.RequireString("billing_event")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()

	bidStrategy := argString(args, "bid_strategy")
	if bidStrategy == "LOWEST_COST_WITH_MIN_ROAS" && argString(args, "roas_average_floor") == "" {
		return errorResponse("roas_average_floor is required for LOWEST_COST_WITH_MIN_ROAS strategy"), nil
	}

	params := url.Values{}
	params.Set("name", name)
	params.Set("campaign_id", campaignID)
	params.Set("status", argStringOr(args, "status", "PAUSED"))
	params.Set("optimization_goal", optimizationGoal)
	params.Set("billing_event", billingEvent)

	if conversionGoals[optimizationGoal] {
		pixelID := argString(args, "pixel_id")
		eventType := argString(args, "custom_event_type")
		if pixelID == "" {
			return errorResponse("pixel_id is required for conversion optimization goals"), nil
		}
		if eventType == "" {
			return errorResponse("custom_event_type is required for conversion optimization goals"), nil
		}
		params.Set("promoted_object", jsonArg(map[string]string{
			"pixel_id":          pixelID,
			"custom_event_type": eventType,
		}))
		params.Set("destination_type", argStringOr(args, "destination_type", "WEBSITE"))
		setIfNotEmpty(params, "conversion_domain", argString(args, "website_domain"))
	}

	if targeting := argMap(args, "targeting"); targeting != nil {
		params.Set("targeting", jsonArg(targeting))
	}

	setIfNotEmpty(params, "daily_budget", argString(args, "daily_budget"))
	setIfNotEmpty(params, "lifetime_budget", argString(args, "lifetime_budget"))
	setIfNotEmpty(params, "bid_strategy", bidStrategy)
	setIfNotEmpty(params, "bid_amount", argString(args, "bid_amount"))
	setIfNotEmpty(params, "roas_average_floor", argString(args, "roas_average_floor"))
	setIfNotEmpty(params, "start_time", argString(args, "start_time"))
	setIfNotEmpty(params, "end_time", argString(args, "end_time"))

	data, err := s.graph.Post(ctx, actID+"/adsets", params)
	if err != nil {
		return failureResponse("Failed to create ad set", err, params), nil
	}
	return jsonResponse(data), nil
}

func (s *Server) handleUpdateAdset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	adsetID, err := request.RequireString("adset_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()
	params := url.Values{}

	if specs := argMapSlice(args, "frequency_control_specs"); specs != nil {
		params.Set("frequency_control_specs", jsonArg(specs))
	}
	setIfNotEmpty(params, "bid_strategy", argString(args, "bid_strategy"))
	if bidAmount := argInt(args, "bid_amount", -1); bidAmount >= 0 {
		params.Set("bid_amount", strconv.Itoa(bidAmount))
	}
	setIfNotEmpty(params, "status", argString(args, "status"))
	setIfNotEmpty(params, "optimization_goal", argString(args, "optimization_goal"))

	if targeting := argMap(args, "targeting"); targeting != nil {
		merged, err := s.mergeTargeting(ctx, adsetID, targeting)
		if err != nil {
			return failureResponse("Failed to read current ad set targeting", err, nil), nil
		}
		params.Set("targeting", jsonArg(merged))
	}

	if len(params) == 0 {
		return errorResponse("No update parameters provided"), nil
	}

	data, err := s.graph.Post(ctx, adsetID, params)
	if err != nil {
		return failureResponse("Failed to update ad set", err, params), nil
	}
	return jsonResponse(data), nil
}

// mergeTargeting preserves the ad set's existing targeting when the caller
// only wants to flip targeting_automation. A full spec replaces targeting
// outright.
func (s *Server) mergeTargeting(ctx context.Context, adsetID string, targeting map[string]any) (map[string]any, error) {
	automation, ok := targeting["targeting_automation"]
	if !ok || len(targeting) > 1 {
		return targeting, nil
	}

	params := url.Values{}
	params.Set("fields", "targeting")

	data, err := s.graph.Get(ctx, adsetID, params)
	if err != nil {
		return nil, err
	}

	current := map[string]any{}
	if details, ok := data.(map[string]any); ok {
		if t, ok := details["targeting"].(map[string]any); ok {
			current = t
		}
	}

	if len(current) == 0 {
		// Meta requires at least geo_locations on a fresh spec
		return map[string]any{
			"targeting_automation": automation,
			"geo_locations":        map[string]any{"countries": []string{"BR"}},
		}, nil
	}

	merged := make(map[string]any, len(current)+1)
	for k, v := range current {
		merged[k] = v
	}
	merged["targeting_automation"] = automation
	return merged, nil
}
