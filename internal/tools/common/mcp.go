package common

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailtriage/internal/tools"
)

// RegisterMCPTools adds every tool of r to s.
func RegisterMCPTools(s *mcpserver.MCPServer, r *tools.Registry) {
	for _, t := range r.Tools() {
		s.AddTool(MCPTool(t), MCPHandler(t))
	}
}

// MCPTool builds the MCP definition of t.
func MCPTool(t tools.Tool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(t.Description()),
		mcp.WithReadOnlyHintAnnotation(t.ReadOnly()),
		mcp.WithDestructiveHintAnnotation(false),
	}
	for _, p := range t.Params() {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		switch p.Type {
		case tools.TypeInteger:
			opts = append(opts, mcp.WithNumber(p.Name, propOpts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, propOpts...))
		}
	}
	return mcp.NewTool(t.Name(), opts...)
}

// MCPHandler runs t with the request arguments. Tool failures are returned
// as error results, not protocol errors.
func MCPHandler(t tools.Tool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := normalizeArgs(t.Params(), request.GetArguments())
		params, err := json.Marshal(args)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		out, err := t.Execute(ctx, params)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", t.Name(), err)), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}

// normalizeArgs converts whole float64 values of integer parameters, as
// decoded from JSON numbers, back to int64.
func normalizeArgs(params []tools.Param, args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	for _, p := range params {
		if p.Type != tools.TypeInteger {
			continue
		}
		if f, ok := out[p.Name].(float64); ok && f == float64(int64(f)) {
			out[p.Name] = int64(f)
		}
	}
	return out
}
