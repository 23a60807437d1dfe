// Package template builds the per-iteration agent prompt from the current
// sprint, the learnings log and an overridable {{variable}} template.
package template

import (
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/sprintr/internal/agent"
	"github.com/mark3labs/sprintr/internal/sprint"
)

// BuildConfig holds the inputs for one prompt.
type BuildConfig struct {
	Sprint       *sprint.Sprint
	Iteration    int
	MCPURL       string
	TemplatePath string   // Optional custom template file
	Extra        string   // Optional extra operator instructions
	Learnings    []string // Tail of the learnings log
}

// BuildPrompt renders the prompt for one agent iteration.
func BuildPrompt(cfg BuildConfig) (string, error) {
	tmpl := DefaultTemplate
	if cfg.TemplatePath != "" {
		data, err := os.ReadFile(cfg.TemplatePath)
		if err != nil {
			return "", fmt.Errorf("reading template %s: %w", cfg.TemplatePath, err)
		}
		tmpl = string(data)
	}

	extra := ""
	if cfg.Extra != "" {
		extra = "\n## Extra Instructions\n" + cfg.Extra
	}

	vars := map[string]string{
		"project":   cfg.Sprint.Project,
		"branch":    cfg.Sprint.BranchName,
		"iteration": fmt.Sprintf("%d", cfg.Iteration),
		"sprint":    renderSprint(cfg.Sprint),
		"learnings": renderLearnings(cfg.Learnings),
		"mcp_url":   cfg.MCPURL,
		"marker":    agent.CompletionMarker,
		"extra":     extra,
	}

	return Render(tmpl, vars), nil
}

// Render substitutes {{name}} placeholders. Unknown placeholders are left
// untouched so template typos stay visible.
func Render(tmpl string, vars map[string]string) string {
	out := tmpl
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{{"+name+"}}", value)
	}
	return out
}

// renderSprint lists the sprint stories as a checklist with criteria.
func renderSprint(sp *sprint.Sprint) string {
	var sb strings.Builder
	sb.WriteString("## Sprint Stories\n")
	sb.WriteString(sp.Description + "\n\n")
	for i := range sp.Stories {
		s := &sp.Stories[i]
		mark := " "
		if s.Passes {
			mark = "x"
		}
		fmt.Fprintf(&sb, "- [%s] %s %s (%s): %s\n", mark, s.ID, s.Title, s.Priority, s.Statement())
		for _, c := range s.AcceptanceCriteria {
			fmt.Fprintf(&sb, "      - %s\n", c)
		}
		if len(s.Dependencies) > 0 {
			fmt.Fprintf(&sb, "      depends on: %s\n", strings.Join(s.Dependencies, ", "))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderLearnings(learnings []string) string {
	if len(learnings) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("## Learnings From Previous Iterations\n")
	for _, l := range learnings {
		fmt.Fprintf(&sb, "- %s\n", l)
	}
	return strings.TrimRight(sb.String(), "\n")
}
