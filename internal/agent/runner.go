// Package agent invokes the external AI coding agent for one iteration at a
// time and watches its output stream for the completion marker.
package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/mark3labs/sprintr/internal/logger"
)

// CompletionMarker is the literal the agent emits in its text output when it
// considers the current sprint finished. Detection of this marker is the
// only coupling between the loop and the agent's semantics.
const CompletionMarker = "<sprint-complete>"

// Result reports one agent iteration.
type Result struct {
	Completed bool   // Completion marker observed in the output stream
	Output    string // Accumulated text output
}

// Runner is the capability interface the orchestrator depends on. The
// opencode adapter below is the production implementation; tests supply
// their own.
type Runner interface {
	RunIteration(ctx context.Context, prompt string) (Result, error)
}

// OpencodeRunner runs `opencode run` as a subprocess per iteration, feeding
// the prompt over stdin and parsing line-oriented JSON events from stdout.
type OpencodeRunner struct {
	model     string
	workDir   string
	onText    func(text string)
	onToolUse func(name string, input map[string]any)
}

// OpencodeConfig holds configuration for creating an OpencodeRunner.
type OpencodeConfig struct {
	Model     string // LLM model, e.g. "anthropic/claude-sonnet-4-5"
	WorkDir   string // Working directory for the agent
	OnText    func(text string)
	OnToolUse func(name string, input map[string]any)
}

// NewOpencodeRunner creates a runner for the opencode CLI.
func NewOpencodeRunner(cfg OpencodeConfig) *OpencodeRunner {
	return &OpencodeRunner{
		model:     cfg.Model,
		workDir:   cfg.WorkDir,
		onText:    cfg.OnText,
		onToolUse: cfg.OnToolUse,
	}
}

// RunIteration executes a single iteration. The subprocess is killed on
// context cancellation.
func (r *OpencodeRunner) RunIteration(ctx context.Context, prompt string) (Result, error) {
	logger.Debug("Starting opencode run iteration")

	args := []string{"run", "--format", "json"}
	if r.model != "" {
		args = append(args, "--model", r.model)
	}

	cmd := exec.CommandContext(ctx, "opencode", args...)
	cmd.Dir = r.workDir
	cmd.Env = os.Environ()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Result{}, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("failed to start opencode: %w", err)
	}

	// Kill the subprocess if the orchestrator is cancelled mid-iteration.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		case <-done:
		}
	}()

	logger.Debug("Sending prompt to opencode (length: %d)", len(prompt))
	if _, err := io.WriteString(stdin, prompt); err != nil {
		close(done)
		return Result{}, fmt.Errorf("failed to write prompt: %w", err)
	}
	stdin.Close()

	var output strings.Builder
	var agentErr error
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		r.parseEvent(line, &output, &agentErr)
	}
	close(done)

	if ctx.Err() != nil {
		_ = cmd.Wait()
		return Result{}, ctx.Err()
	}
	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("failed to read output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("opencode failed: %w", err)
	}
	if agentErr != nil {
		return Result{}, agentErr
	}

	text := output.String()
	res := Result{
		Completed: strings.Contains(text, CompletionMarker),
		Output:    text,
	}
	logger.Debug("opencode iteration finished (completed=%v, %d bytes output)", res.Completed, len(text))
	return res, nil
}

// parseEvent parses a JSON event line from opencode --format json:
//
//	{"type":"text","part":{"type":"text","text":"..."}}
//	{"type":"tool_use","part":{"type":"tool","tool":"...","state":{...}}}
//	{"type":"error","error":{"name":"...","data":{"message":"..."}}}
func (r *OpencodeRunner) parseEvent(line string, output *strings.Builder, agentErr *error) {
	var event struct {
		Type string `json:"type"`
		Part *struct {
			Type  string         `json:"type"`
			Text  string         `json:"text"`
			Tool  string         `json:"tool"`
			State map[string]any `json:"state"`
		} `json:"part"`
		Error *struct {
			Name string `json:"name"`
			Data *struct {
				Message string `json:"message"`
			} `json:"data"`
		} `json:"error"`
	}

	if err := json.Unmarshal([]byte(line), &event); err != nil {
		logger.Warn("Failed to parse event JSON: %v", err)
		return
	}

	switch event.Type {
	case "text":
		if event.Part != nil && event.Part.Text != "" {
			output.WriteString(event.Part.Text)
			if r.onText != nil {
				r.onText(event.Part.Text)
			}
		}

	case "tool_use":
		if event.Part != nil && event.Part.Tool != "" && r.onToolUse != nil {
			var input map[string]any
			if event.Part.State != nil {
				if i, ok := event.Part.State["input"].(map[string]any); ok {
					input = i
				}
			}
			r.onToolUse(event.Part.Tool, input)
		}

	case "error":
		if event.Error != nil {
			msg := event.Error.Name
			if event.Error.Data != nil && event.Error.Data.Message != "" {
				msg = event.Error.Data.Message
			}
			*agentErr = fmt.Errorf("agent error: %s", msg)
		}

	case "step_start", "step_finish":
		logger.Debug("Step event: %s", event.Type)

	default:
		logger.Debug("Unknown event type: %s", event.Type)
	}
}
