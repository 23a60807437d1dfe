package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers the sprint tools with the MCP server.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("sprint-status",
			mcp.WithDescription("Show the current sprint: every story with its pass state"),
		),
		s.handleSprintStatus,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("story-get",
			mcp.WithDescription("Get the full detail of one sprint story"),
			mcp.WithString("id", mcp.Required(),
				mcp.Description("Story id, e.g. US-001-01"),
			),
		),
		s.handleStoryGet,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("story-pass",
			mcp.WithDescription("Mark a sprint story as passing. Only call after verifying every acceptance criterion. Cannot be undone."),
			mcp.WithString("id", mcp.Required(),
				mcp.Description("Story id, e.g. US-001-01"),
			),
		),
		s.handleStoryPass,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("learning-add",
			mcp.WithDescription("Record a learning for future iterations (gotchas, decisions, codebase facts)"),
			mcp.WithString("content", mcp.Required(),
				mcp.Description("The learning, one or two sentences"),
			),
		),
		s.handleLearningAdd,
	)
}
