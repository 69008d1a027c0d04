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

// Default field sets for the commerce catalog tools.
var (
	defaultCatalogListFields = []string{"id", "name", "product_count", "vertical"}
	defaultCatalogFields     = []string{"id", "name", "business", "product_count", "vertical"}
	defaultProductFields     = []string{"id", "name", "description", "price", "url", "image_url", "brand", "availability", "retailer_id"}
	defaultProductSetFields  = []string{"id", "name", "filter", "product_count"}
)

func catalogListProperties(idKey, idDescription string) map[string]interface{} {
	return map[string]interface{}{
		idKey: map[string]interface{}{
			"type":        "string",
			"description": idDescription,
		},
		"fields": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string"},
			"description": "Fields to retrieve for each result",
		},
		"limit": map[string]interface{}{
			"type":        "integer",
			"description": "Maximum results per page (default: 25, max: 100)",
		},
		"after": map[string]interface{}{
			"type":        "string",
			"description": "Pagination cursor for the next page",
		},
		"before": map[string]interface{}{
			"type":        "string",
			"description": "Pagination cursor for the previous page",
		},
	}
}

func (s *Server) registerCatalogTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_catalogs",
		Description: "List product catalogs owned by a business.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: catalogListProperties("business_id", "Business ID that owns the catalogs"),
			Required:   []string{"business_id"},
		},
	}, s.handleListCatalogs)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_catalog_details",
		Description: "Get details of a product catalog: name, vertical, product count and more.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"catalog_id": map[string]interface{}{
					"type":        "string",
					"description": "Product catalog ID",
				},
				"fields": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Fields to retrieve. Defaults to id, name, business, product_count, vertical.",
				},
			},
			Required: []string{"catalog_id"},
		},
	}, s.makeCatalogDetailsHandler("catalog_id", defaultCatalogFields, "Failed to fetch catalog details"))

	productProps := catalogListProperties("catalog_id", "Product catalog ID")
	productProps["filtering"] = map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "object"},
		"description": "Product filters, e.g. [{\"field\": \"availability\", \"operator\": \"EQUAL\", \"value\": \"in stock\"}]",
	}
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "fetch_products",
		Description: "Fetch products from a commerce catalog with optional filtering and pagination.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: productProps,
			Required:   []string{"catalog_id"},
		},
	}, s.handleFetchProducts)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_product_details",
		Description: "Get details of a single catalog product.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"product_id": map[string]interface{}{
					"type":        "string",
					"description": "Product ID",
				},
				"fields": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Fields to retrieve: name, price, availability, inventory, sale_price, brand and more",
				},
			},
			Required: []string{"product_id"},
		},
	}, s.makeCatalogDetailsHandler("product_id", append(defaultProductFields, "condition", "product_type", "inventory", "sale_price"), "Failed to fetch product details"))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "fetch_product_sets",
		Description: "Fetch product sets from a catalog. Product sets are the targeting unit for dynamic ads.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: catalogListProperties("catalog_id", "Product catalog ID"),
			Required:   []string{"catalog_id"},
		},
	}, s.makeCatalogEdgeHandler("catalog_id", "product_sets", defaultProductSetFields, "Failed to fetch product sets"))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_product_set_details",
		Description: "Get details of a product set.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"product_set_id": map[string]interface{}{
					"type":        "string",
					"description": "Product set ID",
				},
				"fields": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Fields to retrieve. Defaults to id, name, filter, product_count.",
				},
			},
			Required: []string{"product_set_id"},
		},
	}, s.makeCatalogDetailsHandler("product_set_id", defaultProductSetFields, "Failed to fetch product set details"))

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "fetch_products_in_product_set",
		Description: "Fetch the products that belong to a product set.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: catalogListProperties("product_set_id", "Product set ID"),
			Required:   []string{"product_set_id"},
		},
	}, s.makeCatalogEdgeHandler("product_set_id", "products", defaultProductFields[:8], "Failed to fetch products in product set"))
}

// makeCatalogDetailsHandler reads a single commerce object with a default
// field list.
func (s *Server) makeCatalogDetailsHandler(idKey string, defaults []string, action string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objectID, err := request.RequireString(idKey)
		if err != nil {
			return errorResponse(err.Error()), nil
		}

		fields := argStringSlice(request.GetArguments(), "fields")
		if len(fields) == 0 {
			fields = defaults
		}

		params := url.Values{}
		params.Set("fields", strings.Join(fields, ","))

		data, err := s.graph.Get(ctx, objectID, params)
		if err != nil {
			return failureResponse(action, err, params), nil
		}
		return jsonResponse(data), nil
	}
}

// makeCatalogEdgeHandler lists a paginated commerce edge ({id}/{edge}) with a
// default field list and cursor support.
func (s *Server) makeCatalogEdgeHandler(idKey, edge string, defaults []string, action string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		objectID, err := request.RequireString(idKey)
		if err != nil {
			return errorResponse(err.Error()), nil
		}

		args := request.GetArguments()
		fields := argStringSlice(args, "fields")
		if len(fields) == 0 {
			fields = defaults
		}

		params := url.Values{}
		params.Set("fields", strings.Join(fields, ","))
		params.Set("limit", strconv.Itoa(argInt(args, "limit", 25)))
		setIfNotEmpty(params, "after", argString(args, "after"))
		setIfNotEmpty(params, "before", argString(args, "before"))

		data, err := s.graph.Get(ctx, objectID+"/"+edge, params)
		if err != nil {
			return failureResponse(action, err, params), nil
		}
		return jsonResponse(data), nil
	}
}

func (s *Server) handleListCatalogs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	businessID, err := request.RequireString("business_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()
	fields := argStringSlice(args, "fields")
	if len(fields) == 0 {
		fields = defaultCatalogListFields
	}

	params := url.Values{}
	params.Set("fields", strings.Join(fields, ","))
	params.Set("limit", strconv.Itoa(argInt(args, "limit", 25)))
	setIfNotEmpty(params, "after", argString(args, "after"))
	setIfNotEmpty(params, "before", argString(args, "before"))

	data, err := s.graph.Get(ctx, businessID+"/owned_product_catalogs", params)
	if err != nil {
		return failureResponse("Failed to list catalogs", err, params), nil
	}
	return jsonResponse(data), nil
}

func (s *Server) handleFetchProducts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalogID, err := request.RequireString("catalog_id")
	if err != nil {
		return errorResponse(err.Error()), nil
	}

	args := request.GetArguments()
	fields := argStringSlice(args, "fields")
	if len(fields) == 0 {
		fields = defaultProductFields
	}

	params := url.Values{}
	params.Set("fields", strings.Join(fields, ","))
	params.Set("limit", strconv.Itoa(argInt(args, "limit", 25)))
	setIfNotEmpty(params, "after", argString(args, "after"))
	setIfNotEmpty(params, "before", argString(args, "before"))

	// the products edge takes "filter", not "filtering"
	if filtering := argMapSlice(args, "filtering"); filtering != nil {
		params.Set("filter", jsonArg(filtering))
	}

	data, err := s.graph.Get(ctx, catalogID+"/products", params)
	if err != nil {
		return failureResponse("Failed to fetch products", err, params), nil
	}
	return jsonResponse(data), nil
}
