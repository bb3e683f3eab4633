// Package tools binds the research, quota and image operations to an MCP
// tool registry.
package tools

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/firmkit/internal/command"
	"github.com/kalambet/firmkit/internal/firmware"
)

// Registry is the part of the host runtime that accepts tools and prompts.
// *server.MCPServer satisfies it.
type Registry interface {
	AddTool(tool mcp.Tool, handler server.ToolHandlerFunc)
	AddPrompt(prompt mcp.Prompt, handler server.PromptHandlerFunc)
}

// ResearchAPI is the Firmware research job client.
type ResearchAPI interface {
	Create(ctx context.Context, sessionID, topic string) (firmware.CreateResponse, error)
	Get(ctx context.Context, id string) (firmware.Job, error)
	List(ctx context.Context, filters firmware.ListFilters) (firmware.ListResponse, error)
}

// ImageAnalyzer answers a prompt about a local image.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, imagePath, prompt string) (string, error)
}

// Deps holds what the tool handlers call into.
type Deps struct {
	Research ResearchAPI
	Images   ImageAnalyzer        // optional; analyse_image is not registered when nil
	Commands *command.Interceptor // optional; each command becomes a prompt
	// SessionID names the session a call belongs to.
	SessionID func(ctx context.Context) string
}

// NewServer creates an MCP server with every firmkit tool and prompt
// registered.
func NewServer(version string, deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"firmkit",
		version,
		server.WithToolCapabilities(true),
		server.WithPromptCapabilities(true),
		server.WithInstructions("firmkit: Firmware deep research jobs, quota status and image analysis."),
		server.WithRecovery(),
	)
	Register(s, deps)
	return s
}

// Register adds the tools and prompts to reg.
func Register(reg Registry, deps Deps) {
	reg.AddTool(
		mcp.NewTool("firmware_start_deep_research",
			mcp.WithDescription("Start a deep research job on a topic"),
			mcp.WithString("topic",
				mcp.Description("The research topic or question to investigate. Be specific for better results."),
				mcp.Required()),
		),
		logged("firmware_start_deep_research", startResearch(deps)),
	)

	reg.AddTool(
		mcp.NewTool("firmware_get_deep_research",
			mcp.WithDescription("Get the status and report of a deep research job by ID. Poll this to check if research is complete."),
			mcp.WithString("id", mcp.Description("The research job ID to retrieve"), mcp.Required()),
			mcp.WithString("outputFilePath",
				mcp.Description("The absolute path to the file to save the research content to if it is completed"),
				mcp.Required()),
		),
		logged("firmware_get_deep_research", getResearch(deps)),
	)

	reg.AddTool(
		mcp.NewTool("firmware_list_deep_research",
			mcp.WithDescription("List all deep research jobs with filtering and sorting. Use Payload query syntax for advanced filtering."),
			mcp.WithBoolean("currentSessionOnly",
				mcp.Description("Filter by research that were started in the current session"),
				mcp.DefaultBool(true)),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results to return")),
			mcp.WithString("sort",
				mcp.Description("Field to sort by. Prefix with '-' for descending order. Examples: '-createdAt', 'title', '-updatedAt'")),
			mcp.WithString("where", mcp.Description(whereDescription)),
		),
		logged("firmware_list_deep_research", listResearch(deps)),
	)

	if deps.Images != nil {
		reg.AddTool(
			mcp.NewTool("analyse_image",
				mcp.WithDescription("Analyse the contents of an image. Simply provide the full path to a local image file and the prompt for analysis."),
				mcp.WithString("imagePath",
					mcp.Description("Full path to a local image file (e.g., /Users/username/Pictures/image.jpg)"),
					mcp.Required()),
				mcp.WithString("prompt",
					mcp.Description("Text prompt that would be the query used in analysing the image. (e.g Extract all text from this image and provide a detailed analysis of its contents.)"),
					mcp.Required()),
			),
			logged("analyse_image", analyseImage(deps)),
		)
	}

	if deps.Commands != nil {
		for _, name := range deps.Commands.Names() {
			h, _ := deps.Commands.Lookup(name)
			desc := "Run the " + name + " command"
			if d, ok := h.(command.Describer); ok {
				desc = d.Description()
			}
			reg.AddPrompt(mcp.NewPrompt(name, mcp.WithPromptDescription(desc)), commandPrompt(deps, name))
		}
	}
}

const whereDescription = "JSON-encoded filter query using Payload's query syntax. " +
	"Available fields: 'id' (string), 'metadata.research.status' (queued|running|succeeded|failed), " +
	"'metadata.research.title' (string), 'metadata.research.topic' (string), " +
	"'createdAt' (ISO date string), 'updatedAt' (ISO date string). " +
	"Operators: equals, not_equals, contains, exists, greater_than, less_than, in, not_in. " +
	"Use 'and'/'or' for complex queries. " +
	`Example: {"metadata.research.status":{"equals":"succeeded"},"createdAt":{"greater_than":"2026-01-01T00:00:00.000Z"}}`

// ClientSessionID returns a SessionID func that uses the MCP client session
// when one is attached to the context, and fallback otherwise.
func ClientSessionID(fallback string) func(ctx context.Context) string {
	return func(ctx context.Context) string {
		if cs := server.ClientSessionFromContext(ctx); cs != nil && cs.SessionID() != "" {
			return cs.SessionID()
		}
		return fallback
	}
}

func sessionID(ctx context.Context, deps Deps) string {
	if deps.SessionID == nil {
		return ""
	}
	return deps.SessionID(ctx)
}

// logged wraps a handler with a per-call request id and failure logging.
func logged(name string, h server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		log := slog.With("tool", name, "request_id", uuid.NewString())
		log.Debug("tool call")

		res, err := h(ctx, req)
		switch {
		case err != nil:
			log.Error("tool call failed", "error", err)
		case res != nil && res.IsError:
			log.Warn("tool call reported an error", "result", resultText(res))
		}
		return res, err
	}
}

// reportable reports whether err should be shown to the caller as a tool
// result. Anything else is returned from the handler.
func reportable(err error) bool {
	var re *ReportError
	return firmware.IsReportable(err) ||
		errors.Is(err, firmware.ErrWhereInvalidJSON) ||
		errors.Is(err, firmware.ErrWhereNotObject) ||
		errors.As(err, &re)
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

func resultText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
