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
	"path"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tombee/meta-ads-mcp/internal/media"
)

const maxCaptionLength = 30

func (s *Server) registerMediaTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name: "create_ads_from_media_folder",
		Description: "Create ads from every media file in an S3 folder. A single image becomes one image ad, multiple images become one carousel ad, and each video becomes its own video ad. " +
			"Requires AWS credentials in the environment and an S3 URL such as s3://bucket/prefix/ or https://bucket.s3.us-east-1.amazonaws.com/prefix/.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"act_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad account ID with the act_ prefix",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Name for the created ad(s)",
				},
				"adset_id": map[string]interface{}{
					"type":        "string",
					"description": "Ad set that will contain the ad(s)",
				},
				"s3_folder_url": map[string]interface{}{
					"type":        "string",
					"description": "S3 folder holding the media files",
				},
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Primary ad text shown above the creative",
				},
				"headline": map[string]interface{}{
					"type":        "string",
					"description": "Headline text (max ~40 chars for Instagram, 60 for Facebook)",
				},
				"page_id": map[string]interface{}{
					"type":        "string",
					"description": "Facebook Page ID for the ad",
				},
				"link_url": map[string]interface{}{
					"type":        "string",
					"description": "Destination URL",
				},
				"caption": map[string]interface{}{
					"type":        "string",
					"description": "Short link caption (e.g. example.com). Auto-extracted from link_url when empty or too long.",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Longer description text; may not display on all placements",
				},
				"call_to_action": map[string]interface{}{
					"type":        "string",
					"description": "CTA button type (default: LEARN_MORE)",
					"default":     "LEARN_MORE",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "Initial delivery status (default: PAUSED)",
					"default":     "PAUSED",
				},
				"instagram_user_id": map[string]interface{}{
					"type":        "string",
					"description": "Optional Instagram account ID for Instagram placement",
				},
				"tracking_specs": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "object"},
					"description": "Optional custom tracking specifications",
				},
				"max_files": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of files to process (default: 20)",
					"default":     20,
				},
			},
			Required: []string{"act_id", "name", "adset_id", "s3_folder_url", "message", "headline", "page_id"},
		},
	}, s.handleCreateAdsFromMediaFolder)
}

// extractDomain pulls a short link caption out of a destination URL.
func extractDomain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// uploadedImage is an ad image registered with the account's image library.
type uploadedImage struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

func (s *Server) handleCreateAdsFromMediaFolder(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	folderURL, err := request.RequireString("s3_folder_url")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	message, err := request.RequireString("message")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	headline, err := request.RequireString("headline")
	if err != nil {
		return errorResponse(err.Error()), nil
	}
	pageID, err := request.RequireString("page_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()
	linkURL := argString(args, "link_url")
	callToAction := argStringOr(args, "call_to_action", "LEARN_MORE")
	status := argStringOr(args, "status", "PAUSED")
	igID := argString(args, "instagram_user_id")
	trackingSpecs := argMapSlice(args, "tracking_specs")
	maxFiles := argInt(args, "max_files", 20)
	description := argString(args, "description")

	var warnings []string
	caption := argString(args, "caption")
	if len(caption) > maxCaptionLength {
		auto := extractDomain(linkURL)
		warnings = append(warnings, fmt.Sprintf(
			"Caption too long (%d chars); using auto-extracted domain %q instead. Use the description parameter for longer text.",
			len(caption), auto))
		caption = auto
	} else if caption == "" {
		caption = extractDomain(linkURL)
	}

	objects, err := s.media.ListFolder(ctx, folderURL)
	if err != nil {
		return failureResponse("Failed to list media folder", err, nil), nil
	}
	if len(objects) == 0 {
		return errorResponse("No media files found in folder"), nil
	}
	if len(objects) > maxFiles {
		warnings = append(warnings, fmt.Sprintf("Folder holds %d files; processing the first %d", len(objects), maxFiles))
		objects = objects[:maxFiles]
	}

	var images []uploadedImage
	var videoObjects []media.Object
	var failures []map[string]any

	for _, obj := range objects {
		switch {
		case strings.HasPrefix(obj.MimeType, "image/"):
			img, err := s.uploadImage(ctx, actID, obj)
			if err != nil {
				failures = append(failures, map[string]any{"file": obj.Name, "error": err.Error()})
				continue
			}
			images = append(images, img)
		case strings.HasPrefix(obj.MimeType, "video/"):
			videoObjects = append(videoObjects, obj)
		}
	}

	storyBase := linkData{
		Message:      message,
		Headline:     headline,
		Caption:      caption,
		Description:  description,
		CallToAction: callToAction,
		LinkURL:      linkURL,
		PageID:       pageID,
		InstagramID:  igID,
	}

	var createdAds []map[string]any

	// images: one single-image ad, or one carousel ad when there are several
	if len(images) > 0 {
		var creativeID string
		var cerr error
		if len(images) == 1 {
			creativeID, cerr = s.createImageCreative(ctx, actID, images[0], storyBase)
		} else {
			creativeID, cerr = s.createCarouselCreative(ctx, actID, images, name, storyBase)
		}
		if cerr != nil {
			failures = append(failures, map[string]any{"creative": "image", "error": cerr.Error()})
		} else {
			ad, aerr := s.createAd(ctx, actID, name, adsetID, creativeID, status, trackingSpecs)
			if aerr != nil {
				failures = append(failures, map[string]any{"creative_id": creativeID, "error": aerr.Error()})
			} else {
				createdAds = append(createdAds, ad)
			}
		}
	}

	// videos: one ad each, reusing the first image as thumbnail
	var thumbnailHash string
	if len(images) > 0 {
		thumbnailHash = images[0].Hash
	}
	for _, obj := range videoObjects {
		if thumbnailHash == "" {
			failures = append(failures, map[string]any{
				"file":  obj.Name,
				"error": "video ads require a thumbnail; include at least one image in the folder",
			})
			continue
		}
		videoID, verr := s.uploadVideo(ctx, actID, obj)
		if verr != nil {
			failures = append(failures, map[string]any{"file": obj.Name, "error": verr.Error()})
			continue
		}
		creativeID, cerr := s.createVideoCreative(ctx, actID, videoID, thumbnailHash, storyBase)
		if cerr != nil {
			failures = append(failures, map[string]any{"file": obj.Name, "error": cerr.Error()})
			continue
		}
		adName := fmt.Sprintf("%s - %s", name, strings.TrimSuffix(obj.Name, path.Ext(obj.Name)))
		ad, aerr := s.createAd(ctx, actID, adName, adsetID, creativeID, status, trackingSpecs)
		if aerr != nil {
			failures = append(failures, map[string]any{"file": obj.Name, "error": aerr.Error()})
			continue
		}
		createdAds = append(createdAds, ad)
	}

	result := map[string]any{
		"created_ads": createdAds,
		"summary": map[string]any{
			"files_processed": len(objects),
			"images_uploaded": len(images),
			"videos_found":    len(videoObjects),
			"ads_created":     len(createdAds),
			"failures":        len(failures),
		},
	}
	if len(failures) > 0 {
		result["failed"] = failures
	}
	if len(warnings) > 0 {
		result["warnings"] = warnings
	}
	return jsonResponse(result), nil
}

// linkData carries the shared creative copy for the media ads.
type linkData struct {
	Message      string
	Headline     string
	Caption      string
	Description  string
	CallToAction string
	LinkURL      string
	PageID       string
	InstagramID  string
}

// uploadImage fetches an S3 object and registers it with the account's ad
// image library, returning the image hash.
func (s *Server) uploadImage(ctx context.Context, actID string, obj media.Object) (uploadedImage, error) {
	data, err := s.media.Fetch(ctx, obj.URL)
	if err != nil {
		return uploadedImage{}, fmt.Errorf("fetching %s: %w", obj.Name, err)
	}

	resp, err := s.graph.Upload(ctx, actID+"/adimages", nil, "filename", obj.Name, data)
	if err != nil {
		return uploadedImage{}, fmt.Errorf("uploading %s: %w", obj.Name, err)
	}

	// response shape: {"images": {"<name>": {"hash": "..."}}}
	if body, ok := resp.(map[string]any); ok {
		if imgs, ok := body["images"].(map[string]any); ok {
			for _, entry := range imgs {
				if img, ok := entry.(map[string]any); ok {
					if hash, ok := img["hash"].(string); ok {
						return uploadedImage{Name: obj.Name, Hash: hash}, nil
					}
				}
			}
		}
	}
	return uploadedImage{}, fmt.Errorf("upload response for %s missing image hash", obj.Name)
}

// uploadVideo fetches an S3 object and uploads it to the account's ad video
// library, returning the video ID.
func (s *Server) uploadVideo(ctx context.Context, actID string, obj media.Object) (string, error) {
	data, err := s.media.Fetch(ctx, obj.URL)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", obj.Name, err)
	}

	resp, err := s.graph.Upload(ctx, actID+"/advideos", nil, "source", obj.Name, data)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", obj.Name, err)
	}

	if body, ok := resp.(map[string]any); ok {
		if id, ok := body["id"].(string); ok {
			return id, nil
		}
	}
	return "", fmt.Errorf("upload response for %s missing video id", obj.Name)
}

func (s *Server) postCreative(ctx context.Context, actID, name string, objectStorySpec map[string]any) (string, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("object_story_spec", jsonArg(objectStorySpec))

	resp, err := s.graph.Post(ctx, actID+"/adcreatives", params)
	if err != nil {
		return "", err
	}
	if body, ok := resp.(map[string]any); ok {
		if id, ok := body["id"].(string); ok {
			return id, nil
		}
	}
	return "", fmt.Errorf("creative response missing id")
}

func (s *Server) createImageCreative(ctx context.Context, actID string, img uploadedImage, story linkData) (string, error) {
	ld := map[string]any{
		"message":        story.Message,
		"name":           story.Headline,
		"link":           story.LinkURL,
		"image_hash":     img.Hash,
		"call_to_action": map[string]any{"type": story.CallToAction, "value": map[string]string{"link": story.LinkURL}},
	}
	if story.Caption != "" {
		ld["caption"] = story.Caption
	}
	if story.Description != "" {
		ld["description"] = story.Description
	}

	spec := map[string]any{"page_id": story.PageID, "link_data": ld}
	if story.InstagramID != "" {
		spec["instagram_user_id"] = story.InstagramID
	}
	return s.postCreative(ctx, actID, img.Name+" - Single Image Creative", spec)
}

func (s *Server) createCarouselCreative(ctx context.Context, actID string, images []uploadedImage, folderName string, story linkData) (string, error) {
	children := make([]map[string]any, 0, len(images))
	for _, img := range images {
		child := map[string]any{
			"image_hash": img.Hash,
			"link":       story.LinkURL,
			"name":       story.Headline,
		}
		if story.Caption != "" {
			child["caption"] = story.Caption
		}
		if story.Description != "" {
			child["description"] = story.Description
		}
		children = append(children, child)
	}

	ld := map[string]any{
		"message":           story.Message,
		"link":              story.LinkURL,
		"child_attachments": children,
		"call_to_action":    map[string]any{"type": story.CallToAction, "value": map[string]string{"link": story.LinkURL}},
	}

	spec := map[string]any{"page_id": story.PageID, "link_data": ld}
	if story.InstagramID != "" {
		spec["instagram_user_id"] = story.InstagramID
	}
	return s.postCreative(ctx, actID, folderName+" - Carousel Creative", spec)
}

func (s *Server) createVideoCreative(ctx context.Context, actID, videoID, thumbnailHash string, story linkData) (string, error) {
	vd := map[string]any{
		"message":        story.Message,
		"title":          story.Headline,
		"video_id":       videoID,
		"image_hash":     thumbnailHash,
		"call_to_action": map[string]any{"type": story.CallToAction, "value": map[string]string{"link": story.LinkURL}},
	}
	if story.Caption != "" {
		vd["caption"] = story.Caption
	}

	spec := map[string]any{"page_id": story.PageID, "video_data": vd}
	if story.InstagramID != "" {
		spec["instagram_user_id"] = story.InstagramID
	}
	return s.postCreative(ctx, actID, story.Headline+" - Video Creative", spec)
}

// createAd wires a creative into the ad set and returns the new ad object.
func (s *Server) createAd(ctx context.Context, actID, name, adsetID, creativeID, status string, trackingSpecs []map[string]any) (map[string]any, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("adset_id", adsetID)
	params.Set("status", status)
	params.Set("creative", jsonArg(map[string]string{"creative_id": creativeID}))
	if trackingSpecs != nil {
		params.Set("tracking_specs", jsonArg(trackingSpecs))
	}

	resp, err := s.graph.Post(ctx, actID+"/ads", params)
	if err != nil {
		return nil, err
	}
	ad := map[string]any{"name": name, "creative_id": creativeID}
	if body, ok := resp.(map[string]any); ok {
		if id, ok := body["id"].(string); ok {
			ad["ad_id"] = id
		}
	}
	return ad, nil
}
