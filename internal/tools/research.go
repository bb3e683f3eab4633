package tools

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/firmkit/internal/firmware"
)

func startResearch(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		topic, err := req.RequireString("topic")
		if err != nil {
			return toolError("topic is required"), nil
		}

		out, err := deps.Research.Create(ctx, sessionID(ctx, deps), topic)
		if err != nil {
			if reportable(err) {
				return toolError(err.Error()), nil
			}
			return nil, err
		}
		return toolText("Deep research created with id " + out.ID), nil
	}
}

func getResearch(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return toolError("id is required"), nil
		}
		outputPath, err := req.RequireString("outputFilePath")
		if err != nil {
			return toolError("outputFilePath is required"), nil
		}

		job, err := deps.Research.Get(ctx, id)
		if err != nil {
			if reportable(err) {
				return toolError(fmt.Sprintf("Error getting deep research %s: %s", id, err)), nil
			}
			return nil, err
		}

		text, err := DescribeJob(job, outputPath)
		if err != nil {
			if reportable(err) {
				return toolError(err.Error()), nil
			}
			return nil, err
		}
		return toolText(text), nil
	}
}

// DescribeJob formats a polled job. A succeeded job's report is written to
// outputPath first.
func DescribeJob(job firmware.Job, outputPath string) (string, error) {
	lines := []string{
		"Status: " + string(job.Status),
		"Title: " + job.Title,
		"Topic: " + firmware.Strip(job.Topic),
	}

	switch job.Status {
	case firmware.StatusSucceeded:
		if err := WriteReport(outputPath, job.Report); err != nil {
			return "", err
		}
		lines = append(lines,
			"Report saved to: "+outputPath,
			fmt.Sprintf("Report length: %d characters", textLength(job.Report)),
		)
	case firmware.StatusFailed:
		msg := job.Error
		if msg == "" {
			msg = "Unknown error"
		}
		lines = append(lines, "Error: "+msg)
	default:
		lines = append(lines, "Research is still in progress. Poll again in a few seconds.")
	}
	return strings.Join(lines, "\n"), nil
}

func listResearch(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var user firmware.Where
		if raw := req.GetString("where", ""); raw != "" {
			w, err := firmware.ParseWhere(raw)
			if err != nil {
				return toolError(err.Error()), nil
			}
			user = w
		}

		filters := firmware.ListFilters{
			Where: firmware.BuildWhere(firmware.WhereOptions{
				SessionID:          sessionID(ctx, deps),
				CurrentSessionOnly: req.GetBool("currentSessionOnly", true),
				User:               user,
			}),
			Limit: req.GetInt("limit", 0),
			Sort:  req.GetString("sort", ""),
		}

		out, err := deps.Research.List(ctx, filters)
		if err != nil {
			if reportable(err) {
				return toolError(err.Error()), nil
			}
			return nil, err
		}
		return toolText(DescribeJobs(out)), nil
	}
}

// DescribeJobs formats a list response.
func DescribeJobs(out firmware.ListResponse) string {
	if len(out.Docs) == 0 {
		return "No research jobs found matching the filters."
	}

	jobs := make([]string, len(out.Docs))
	for i, doc := range out.Docs {
		jobs[i] = strings.Join([]string{
			"ID: " + doc.ID,
			"Status: " + string(doc.Status),
			"Title: " + doc.Title,
			"Topic: " + firmware.Strip(doc.Topic),
			"Created: " + doc.CreatedAt,
			"Updated: " + doc.UpdatedAt,
		}, "\n")
	}
	return fmt.Sprintf("Found %d of %d total research jobs:\n\n%s",
		len(out.Docs), out.TotalDocs, strings.Join(jobs, "\n\n---\n\n"))
}

// textLength counts UTF-16 code units, the unit the research API's
// clients report lengths in.
func textLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}
