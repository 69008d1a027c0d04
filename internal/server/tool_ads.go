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
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

var (
	bulkObjectTypes = []string{"ads", "adsets", "campaigns"}
	bulkStatuses    = []string{"ACTIVE", "PAUSED", "DELETED", "ARCHIVED"}
)

func (s *Server) registerAdTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_ad_with_catalog_creative",
		Description: "Create an ad that reuses an existing catalog creative (usually produced by create_catalog_creative). The ad inherits pixel mappings from its ad set unless tracking_specs is given.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"act_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account ID with the act_ prefix",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Ad name",
				},
				"adset_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad set that will contain this ad",
				},
				"creative_id": map[string]interface{}{
					"type":        "string",
					"description": "Existing template creative ID",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "Initial delivery status (default: PAUSED)",
					"default":     "PAUSED",
				},
				"tracking_specs": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "object"},
					"description": "Optional custom pixel/app/offline tracking specs",
				},
			},
			Required: []string{"act_id", "name", "adset_id", "creative_id"},
		},
	}, s.handleCreateAdWithCatalogCreative)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_catalog_creative",
		Description: "Create a catalog template creative for dynamic ads. Posts an object_story_spec built from the product set, copy and CTA; optionally attaches an Advantage+ degrees_of_freedom_spec.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"act_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account ID with the act_ prefix",
				},
				"facebook_page_id": map[string]interface{}{
					"type":        "string",
					"description": "Facebook Page that owns the ad",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Internal creative name",
				},
				"product_set_id": map[string]interface{}{
					"type":        "string",
					"description": "Catalog product set to advertise",
				},
				"link": map[string]interface{}{
					"type":        "string",
					"description": "Destination URL",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Primary (body) text",
				},
				"headline": map[string]interface{}{
					"type":        "string",
					"description": "Headline text",
				},
				"caption": map[string]interface{}{
					"type":        "string",
					"description": "Link caption",
				},
				"instagram_user_id": map[string]interface{}{
					"type":        "string",
					"description": "Optional Instagram professional account ID for cross-posting",
				},
				"call_to_action": map[string]interface{}{
					"type":        "string",
					"description": "CTA enum: SHOP_NOW (default), LEARN_MORE, SIGN_UP, SUBSCRIBE, INSTALL_APP, DOWNLOAD, GET_OFFER, CONTACT_US and others",
					"default":     "SHOP_NOW",
				},
				"template_format": map[string]interface{}{
					"type":        "string",
					"description": "Layout: carousel_images_multi_items (default), carousel_images_single_item, collection, single_image, single_video, slideshow, carousel_videos_multi_items",
					"default":     "carousel_images_multi_items",
				},
				"multi_share_end_card": map[string]interface{}{
					"type":        "boolean",
					"description": "Append a multi-share end card",
					"default":     false,
				},
				"enable_dco": map[string]interface{}{
					"type":        "boolean",
					"description": "Opt in to Advantage+ automatic creative modifications",
					"default":     false,
				},
				"adv_image_template": map[string]interface{}{
					"type":        "boolean",
					"description": "Advantage+ image template feature (default: true)",
					"default":     true,
				},
				"adv_image_touchups": map[string]interface{}{
					"type":        "boolean",
					"description": "Advantage+ image touch-ups feature (default: true)",
					"default":     true,
				},
				"adv_text_optimizations": map[string]interface{}{
					"type":        "boolean",
					"description": "Advantage+ text optimizations feature (default: true)",
					"default":     true,
				},
				"adv_inline_comment": map[string]interface{}{
					"type":        "boolean",
					"description": "Advantage+ inline comment feature (default: true)",
					"default":     true,
				},
				"adv_video_auto_crop": map[string]interface{}{
					"type":        "boolean",
					"description": "Advantage+ video auto-crop feature (default: true)",
					"default":     true,
				},
			},
			Required: []string{"act_id", "facebook_page_id", "name", "product_set_id", "link", "message", "headline", "caption"},
		},
	}, s.handleCreateCatalogCreative)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "edit_ad",
		Description: "Edit an existing ad: rename it, change its status, move it to another ad set, swap its creative or replace its tracking specs.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"ad_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad ID to edit",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "New ad name",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "New status: ACTIVE, PAUSED, DELETED or ARCHIVED",
				},
				"adset_id": map[string]interface{}{
					"type":        "string",
					"description": "Move the ad to a different ad set",
				},
				"creative_id": map[string]interface{}{
					"type":        "string",
					"description": "Replace the ad creative",
				},
				"tracking_specs": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "object"},
					"description": "Replace tracking specifications",
				},
			},
			Required: []string{"ad_id"},
		},
	}, s.handleEditAd)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_update_status",
		Description: "Set the status of multiple ads, ad sets or campaigns at once. Returns a per-object success/failure summary.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"object_ids": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "IDs of the objects to update",
				},
				"object_type": map[string]interface{}{
					"type":        "string",
					"description": "Type of the objects: ads, adsets or campaigns",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "New status for every object: ACTIVE, PAUSED, DELETED or ARCHIVED",
				},
			},
			Required: []string{"object_ids", "object_type", "status"},
		},
	}, s.handleBulkUpdateStatus)
}

func (s *Server) handleCreateAdWithCatalogCreative(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actID, err := request.RequireString("act_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	adsetID, err := request.RequireString("adset_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	creativeID, err := request.RequireString("creative_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()

	params := url.Values{}
	params.Set("name", name)
	params.Set("adset_id", adsetID)
	params.Set("status", argStringOr(args, "status", "PAUSED"))
	// compound field, always JSON-encoded
	params.Set("creative", jsonArg(map[string]string{"creative_id": creativeID}))

	if specs := argMapSlice(args, "tracking_specs"); specs != nil {
		params.Set("tracking_specs", jsonArg(specs))
	}

	data, err := s.graph.Post(ctx, actID+"/ads", params)
	if err != nil {
		return failureResponse("Failed to create ad", err, params), nil
	}
	return jsonResponse(data), nil
}

// dfoSpec builds a degrees_of_freedom_spec from the Advantage+ feature flags.
func dfoSpec(args map[string]any) map[string]any {
	enroll := func(key string) map[string]string {
		if argBool(args, key, true) {
			return map[string]string{"enroll_status": "OPT_IN"}
		}
		return map[string]string{"enroll_status": "OPT_OUT"}
	}
	return map[string]any{
		"creative_features_spec": map[string]any{
			"image_template":     enroll("adv_image_template"),
			"image_touchups":     enroll("adv_image_touchups"),
			"text_optimizations": enroll("adv_text_optimizations"),
			"inline_comment":     enroll("adv_inline_comment"),
			"video_auto_crop":    enroll("adv_video_auto_crop"),
		},
	}
}

func (s *Server) handleCreateCatalogCreative(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	actID, err := request.RequireString("act_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	pageID, err := request.RequireString("facebook_page_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	name, err := request.RequireString("name")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	productSetID, err := request.RequireString("product_set_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	link, err := request.RequireString("link")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()

	templateData := map[string]any{
		"link":                 link,
		"call_to_action":       map[string]string{"type": argStringOr(args, "call_to_action", "SHOP_NOW")},
		"format_option":        argStringOr(args, "template_format", "carousel_images_multi_items"),
		"multi_share_end_card": argBool(args, "multi_share_end_card", false),
	}
	if message := argString(args, "message"); message != "" {
		templateData["message"] = message
	}
	if headline := argString(args, "headline"); headline != "" {
		templateData["name"] = headline
	}
	if caption := argString(args, "caption"); caption != "" {
		templateData["caption"] = caption
	}

	objectStorySpec := map[string]any{
		"page_id":       pageID,
		"template_data": templateData,
	}
	if igID := argString(args, "instagram_user_id"); igID != "" {
		objectStorySpec["instagram_user_id"] = igID
	}

	params := url.Values{}
	params.Set("name", name)
	params.Set("object_story_spec", jsonArg(objectStorySpec))
	params.Set("product_set_id", productSetID)

	if argBool(args, "enable_dco", false) {
		params.Set("degrees_of_freedom_spec", jsonArg(dfoSpec(args)))
	}

	data, err := s.graph.Post(ctx, actID+"/adcreatives", params)
	if err != nil {
		return failureResponse("Failed to create catalog creative", err, params), nil
	}
	return jsonResponse(data), nil
}

func (s *Server) handleEditAd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	adID, err := request.RequireString("ad_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()
	params := url.Values{}

	setIfNotEmpty(params, "name", argString(args, "name"))
	setIfNotEmpty(params, "status", argString(args, "status"))
	setIfNotEmpty(params, "adset_id", argString(args, "adset_id"))
	if creativeID := argString(args, "creative_id"); creativeID != "" {
		params.Set("creative", jsonArg(map[string]string{"creative_id": creativeID}))
	}
	if specs := argMapSlice(args, "tracking_specs"); specs != nil {
		params.Set("tracking_specs", jsonArg(specs))
	}

	if len(params) == 0 {
		return errorResponse("No fields provided to update. Please specify at least one field to edit."), nil
	}

	data, err := s.graph.Post(ctx, adID, params)
	if err != nil {
		return failureResponse("Failed to edit ad", err, params), nil
	}
	return jsonResponse(data), nil
}

// bulkUpdateResult is the per-call summary returned by bulk_update_status.
type bulkUpdateResult struct {
	Summary struct {
		TotalObjects      int    `json:"total_objects"`
		SuccessfulUpdates int    `json:"successful_updates"`
		FailedUpdates     int    `json:"failed_updates"`
		ObjectType        string `json:"object_type"`
		StatusSet         string `json:"status_set"`
	} `json:"summary"`
	Successful []map[string]any `json:"successful_updates"`
	Failed     []map[string]any `json:"failed_updates"`
}

func (s *Server) handleBulkUpdateStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	objectType, err := request.RequireString("object_type")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	status, err := request.RequireString("status")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	if !contains(bulkObjectTypes, objectType) {
		return errorResponse(fmt.Sprintf("Invalid object_type %q. Must be one of: %s", objectType, strings.Join(bulkObjectTypes, ", "))), nil
	}
	if !contains(bulkStatuses, status) {
		return errorResponse(fmt.Sprintf("Invalid status %q. Must be one of: %s", status, strings.Join(bulkStatuses, ", "))), nil
	}

	objectIDs := argStringSlice(request.GetArguments(), "object_ids")
	if len(objectIDs) == 0 {
		return errorResponse("object_ids list cannot be empty"), nil
	}

	result := bulkUpdateResult{
		Successful: []map[string]any{},
		Failed:     []map[string]any{},
	}
	result.Summary.TotalObjects = len(objectIDs)
	result.Summary.ObjectType = objectType
	result.Summary.StatusSet = status

	for _, objectID := range objectIDs {
		params := url.Values{}
		params.Set("status", status)

		if _, err := s.graph.Post(ctx, objectID, params); err != nil {
			result.Failed = append(result.Failed, map[string]any{
				"id":    objectID,
				"error": err.Error(),
				"type":  objectType,
			})
			continue
		}
		result.Successful = append(result.Successful, map[string]any{
			"id":         objectID,
			"type":       objectType,
			"new_status": status,
		})
	}

	result.Summary.SuccessfulUpdates = len(result.Successful)
	result.Summary.FailedUpdates = len(result.Failed)

	return jsonResponse(result), nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
