package tools

import (
	"context"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/firmkit/internal/command"
)

// collector is a Poster that keeps what was posted so a prompt can return it.
type collector struct {
	texts []string
}

func (c *collector) Post(_ context.Context, _ string, text string) error {
	c.texts = append(c.texts, text)
	return nil
}

func commandPrompt(deps Deps, name string) server.PromptHandlerFunc {
	return func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args []string
		for k, v := range req.Params.Arguments {
			args = append(args, k+"="+v)
		}
		sort.Strings(args)

		out := &collector{}
		outcome, err := deps.Commands.Before(ctx, command.Invocation{
			Name:      name,
			SessionID: sessionID(ctx, deps),
			Args:      strings.Join(args, " "),
		}, out)
		if outcome == command.Failed {
			return nil, err
		}

		messages := make([]mcp.PromptMessage, len(out.texts))
		for i, text := range out.texts {
			messages[i] = mcp.NewPromptMessage(mcp.RoleAssistant, mcp.NewTextContent(text))
		}
		return mcp.NewGetPromptResult(name, messages), nil
	}
}
