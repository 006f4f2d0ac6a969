package in

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	graphin "flavorlab/internal/modules/graph/port/in"
	apperrors "flavorlab/internal/platform/errors"
)

type SearchIngredientsArgs struct {
	Query string `json:"query" jsonschema:"ingredient name or part of one"`
}

type TopPairingsArgs struct {
	Ingredient string `json:"ingredient" jsonschema:"ingredient id or exact name"`
}

// MCPHandler exposes ingredient search and pairing lookups as MCP tools.
type MCPHandler struct {
	usecase graphin.Usecase
	server  *mcp.Server
}

func NewMCPHandler(usecase graphin.Usecase, version string) *MCPHandler {
	h := &MCPHandler{
		usecase: usecase,
		server:  mcp.NewServer(&mcp.Implementation{Name: "flavorlab", Version: version}, nil),
	}
	h.registerTools()
	return h
}

func (h *MCPHandler) Server() *mcp.Server {
	return h.server
}

// Run serves over stdio until the client disconnects or ctx is done.
func (h *MCPHandler) Run(ctx context.Context) error {
	return h.server.Run(ctx, &mcp.StdioTransport{})
}

func (h *MCPHandler) registerTools() {
	mcp.AddTool(h.server, &mcp.Tool{
		Name:        "search_ingredients",
		Description: "Finds ingredients by exact name, name prefix, then substring",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SearchIngredientsArgs) (*mcp.CallToolResult, any, error) {
		results, err := h.usecase.Search(ctx, args.Query)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return jsonResult(map[string]any{"results": results})
	})

	mcp.AddTool(h.server, &mcp.Tool{
		Name:        "top_pairings",
		Description: "Returns the strongest pairing partners of an ingredient, best first",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args TopPairingsArgs) (*mcp.CallToolResult, any, error) {
		out, err := h.usecase.Pairings(ctx, args.Ingredient)
		if err != nil {
			return errorResult(err), nil, nil
		}
		return jsonResult(out)
	})
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return textResult(string(raw)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errorResult(err error) *mcp.CallToolResult {
	msg := err.Error()
	if errors.Is(err, apperrors.ErrNotFound) {
		msg = "not found: " + msg
	}
	res := textResult(msg)
	res.IsError = true
	return res
}
