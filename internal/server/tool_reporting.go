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
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// defaultComparisonFields are the metrics compare_campaign_performance pulls
// when the caller does not name any.
var defaultComparisonFields = []string{
	"campaign_name",
	"impressions",
	"clicks",
	"spend",
	"ctr",
	"cpc",
	"cpm",
}

func insightsProperties(idKey, idDescription, defaultLevel string) map[string]interface{} {
	return map[string]interface{}{
		idKey: map[string]interface{}{
			"type":        "string",
			"description": idDescription,
		},
		"date_preset": map[string]interface{}{
			"type":        "string",
			"description": "Preset range: today, yesterday, last_7d, last_14d, last_28d, last_30d, last_90d, this_month, last_month, this_quarter, last_quarter, this_year, last_year, lifetime (default: last_30d)",
			"default":     "last_30d",
		},
		"time_range_start": map[string]interface{}{
			"type":        "string",
			"description": "Custom start date (YYYY-MM-DD). Requires time_range_end; overrides date_preset.",
		},
		"time_range_end": map[string]interface{}{
			"type":        "string",
			"description": "Custom end date (YYYY-MM-DD)",
		},
		"level": map[string]interface{}{
			"type":        "string",
			"description": "Aggregation level (default: " + defaultLevel + ")",
			"default":     defaultLevel,
		},
		"fields": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "Metrics to retrieve: impressions, clicks, spend, reach, frequency, cpm, cpc, ctr, conversions, actions, action_values and more",
		},
		"breakdowns": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "Breakdown dimensions: age, gender, country, region, placement, device_platform, publisher_platform",
		},
		"time_increment": map[string]interface{}{
			"type":        "string",
			"description": "1 (daily), 7 (weekly), monthly or all_days",
		},
	}
}

func (s *Server) registerReportingTools() {
	campaignProps := insightsProperties("campaign_id", "Campaign ID to report on", "campaign")
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_campaign_insights",
		Description: "Get performance metrics for a campaign: impressions, clicks, spend, conversions and more.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: campaignProps,
			Required:   []string{"campaign_id"},
		},
	}, s.makeInsightsHandler("campaign_id", "campaign", "Failed to fetch campaign insights"))

	accountProps := insightsProperties("account_id", "Ad account ID with the act_ prefix", "account")
	accountProps["filtering"] = map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "object"},
		"description": "Filter clauses, e.g. [{\"field\": \"campaign.name\", \"operator\": \"CONTAIN\", \"value\": \"Holiday\"}]",
	}
	accountProps["limit"] = map[string]interface{}{
		"type":        "integer",
		"description": "Maximum number of result rows (default: 100)",
	}
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_account_insights",
		Description: "Get aggregated performance metrics for an entire ad account, optionally broken down by campaign, ad set or ad.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: accountProps,
			Required:   []string{"account_id"},
		},
	}, s.makeInsightsHandler("account_id", "account", "Failed to fetch account insights"))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_adset_insights",
		Description: "Get performance metrics for an ad set.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: insightsProperties("adset_id", "Ad set ID to report on", "adset"),
			Required:   []string{"adset_id"},
		},
	}, s.makeInsightsHandler("adset_id", "adset", "Failed to fetch ad set insights"))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_ad_insights",
		Description: "Get performance metrics for an individual ad.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: insightsProperties("ad_id", "Ad ID to report on", "ad"),
			Required:   []string{"ad_id"},
		},
	}, s.makeInsightsHandler("ad_id", "ad", "Failed to fetch ad insights"))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "compare_campaign_performance",
		Description: "Compare performance metrics across multiple campaigns side by side.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"campaign_ids": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Campaign IDs to compare (max 10 recommended)",
				},
				"date_preset": map[string]interface{}{
					"type":        "string",
					"description": "Preset date range (default: last_30d)",
					"default":     "last_30d",
				},
				"time_range_start": map[string]interface{}{
					"type":        "string",
					"description": "Custom start date (YYYY-MM-DD)",
				},
				"time_range_end": map[string]interface{}{
					"type":        "string",
					"description": "Custom end date (YYYY-MM-DD)",
				},
				"fields": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Metrics to compare. Defaults to campaign_name, impressions, clicks, spend, ctr, cpc, cpm.",
				},
			},
			Required: []string{"campaign_ids"},
		},
	}, s.handleCompareCampaignPerformance)
}

// resolveDateRange validates and applies date_preset or the custom
// time_range_start/time_range_end pair to params. A custom range overrides
// the preset.
func resolveDateRange(args map[string]any, params url.Values) error {
	start := argString(args, "time_range_start")
	end := argString(args, "time_range_end")

	if start != "" || end != "" {
		if start == "" || end == "" {
			return fmt.Errorf("both time_range_start and time_range_end must be provided when using a custom date range")
		}
		if !validDateFormat(start) || !validDateFormat(end) {
			return fmt.Errorf("dates must be in YYYY-MM-DD format")
		}
		params.Set("time_range", jsonArg(map[string]string{"since": start, "until": end}))
		return nil
	}

	preset := argStringOr(args, "date_preset", "last_30d")
	if !validDatePreset(preset) {
		return fmt.Errorf("invalid date_preset: %s", preset)
	}
	params.Set("date_preset", preset)
	return nil
}

// makeInsightsHandler builds a handler for the {object}/insights edge; the
// four reporting tools differ only in the ID argument and the default level.
func (s *Server) makeInsightsHandler(idKey, defaultLevel, action string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objectID, err := request.RequireString(idKey)
		if err != nil {
			return errorResponse(err.Error()), nil
		}

		args := request.GetArguments()
		params := url.Values{}
		params.Set("level", argStringOr(args, "level", defaultLevel))

		if err := resolveDateRange(args, params); err != nil {
			return errorResponse(err.Error()), nil
		}

		if fields := argStringSlice(args, "fields"); len(fields) > 0 {
			params.Set("fields", strings.Join(fields, ","))
		}
		if breakdowns := argStringSlice(args, "breakdowns"); len(breakdowns) > 0 {
			params.Set("breakdowns", strings.Join(breakdowns, ","))
		}
		setIfNotEmpty(params, "time_increment", argString(args, "time_increment"))

		if filtering := argMapSlice(args, "filtering"); filtering != nil {
			params.Set("filtering", jsonArg(filtering))
		}
		if limit := argInt(args, "limit", 0); limit > 0 {
			params.Set("limit", strconv.Itoa(limit))
		}

		data, err := s.graph.Get(ctx, objectID+"/insights", params)
		if err != nil {
			return failureResponse(action, err, params), nil
		}
		return jsonResponse(data), nil
	}
}

func (s *Server) handleCompareCampaignPerformance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	campaignIDs := argStringSlice(args, "campaign_ids")
	if len(campaignIDs) == 0 {
		return errorResponse("At least one campaign_id must be provided"), nil
	}

	fields := argStringSlice(args, "fields")
	if len(fields) == 0 {
		fields = defaultComparisonFields
	}

	baseParams := url.Values{}
	baseParams.Set("level", "campaign")
	baseParams.Set("fields", strings.Join(fields, ","))
	if err := resolveDateRange(args, baseParams); err != nil {
		return errorResponse(err.Error()), nil
	}

	comparison := make([]map[string]any, 0, len(campaignIDs))
	for _, campaignID := range campaignIDs {
		data, err := s.graph.Get(ctx, campaignID+"/insights", baseParams)
		if err != nil {
			comparison = append(comparison, map[string]any{
				"campaign_id": campaignID,
				"error":       fmt.Sprintf("Failed to fetch insights: %v", err),
			})
			continue
		}
		comparison = append(comparison, map[string]any{
			"campaign_id": campaignID,
			"insights":    data,
		})
	}

	return jsonResponse(map[string]any{
		"comparison": comparison,
		"date_range": argStringOr(args, "date_preset", "last_30d"),
	}), nil
}
