package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// handleSprintStatus renders every sprint story with its pass state.
func (s *Server) handleSprintStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sp, err := s.sprintFile.Load()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load sprint: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Sprint %s: %d/%d stories passing\n", sp.BranchName, len(sp.Stories)-sp.Remaining(), len(sp.Stories))
	for i := range sp.Stories {
		st := &sp.Stories[i]
		mark := " "
		if st.Passes {
			mark = "x"
		}
		fmt.Fprintf(&sb, "[%s] %s %s (%s)\n", mark, st.ID, st.Title, st.Priority)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleStoryGet returns the full story record as JSON.
func (s *Server) handleStoryGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := request.GetArguments()["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("missing 'id' parameter"), nil
	}

	sp, err := s.sprintFile.Load()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load sprint: %v", err)), nil
	}

	st := sp.Find(strings.ToUpper(id))
	if st == nil {
		return mcp.NewToolResultError(fmt.Sprintf("story %s not in current sprint", id)), nil
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render story: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleStoryPass flips a sprint story to passing. Monotonic: a story that
// already passes stays passing and the call reports that instead of erroring.
func (s *Server) handleStoryPass(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := request.GetArguments()["id"].(string)
	if !ok || id == "" {
		return mcp.NewToolResultError("missing 'id' parameter"), nil
	}
	id = strings.ToUpper(id)

	// Serialize read-modify-write of the sprint file against concurrent tool
	// calls from the same agent.
	s.mu.Lock()
	defer s.mu.Unlock()

	sp, err := s.sprintFile.Load()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load sprint: %v", err)), nil
	}

	st := sp.Find(id)
	if st == nil {
		return mcp.NewToolResultError(fmt.Sprintf("story %s not in current sprint", id)), nil
	}
	if st.Passes {
		return mcp.NewToolResultText(fmt.Sprintf("Story %s already passes.", id)), nil
	}

	st.Passes = true
	if err := s.sprintFile.Save(sp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save sprint: %v", err)), nil
	}

	remaining := sp.Remaining()
	if remaining == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Story %s marked passing. All sprint stories pass - wrap up and emit the completion marker.", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Story %s marked passing. %d stories remaining.", id, remaining)), nil
}

// handleLearningAdd appends to the cumulative learnings log.
func (s *Server) handleLearningAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, ok := request.GetArguments()["content"].(string)
	if !ok || strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("missing 'content' parameter"), nil
	}

	if err := s.learnings.Append(content); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record learning: %v", err)), nil
	}
	return mcp.NewToolResultText("Learning recorded."), nil
}
