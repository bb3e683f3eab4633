package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func analyseImage(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("imagePath")
		if err != nil {
			return toolError("imagePath is required"), nil
		}
		prompt, err := req.RequireString("prompt")
		if err != nil {
			return toolError("prompt is required"), nil
		}

		text, err := deps.Images.Analyze(ctx, path, prompt)
		if err != nil {
			// Every image failure is shown to the caller, including file
			// and network errors.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return toolError("An error occurred: " + err.Error()), nil
		}
		return toolText(text), nil
	}
}
