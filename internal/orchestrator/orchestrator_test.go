package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/sprintr/internal/agent"
	"github.com/mark3labs/sprintr/internal/backlog"
	"github.com/mark3labs/sprintr/internal/sprint"
	"github.com/mark3labs/sprintr/internal/story"
)

// passOneRunner simulates an agent that completes one story per iteration by
// flipping the first remaining story in the sprint file.
type passOneRunner struct {
	file       *sprint.File
	iterations int
}

func (r *passOneRunner) RunIteration(ctx context.Context, prompt string) (agent.Result, error) {
	r.iterations++

	sp, err := r.file.Load()
	if err != nil {
		return agent.Result{}, err
	}
	for i := range sp.Stories {
		if !sp.Stories[i].Passes {
			sp.Stories[i].Passes = true
			break
		}
	}
	if err := r.file.Save(sp); err != nil {
		return agent.Result{}, err
	}

	out := "worked on a story"
	if sp.Complete() {
		out += "\n" + agent.CompletionMarker
	}
	return agent.Result{Completed: sp.Complete(), Output: out}, nil
}

// noopRunner never completes anything.
type noopRunner struct{}

func (noopRunner) RunIteration(ctx context.Context, prompt string) (agent.Result, error) {
	return agent.Result{}, nil
}

func writeBacklog(t *testing.T, dir string, stories []story.Story) string {
	t.Helper()
	path := filepath.Join(dir, "backlog.json")
	b := &backlog.Backlog{Project: "Test Project", Stories: stories}
	if err := backlog.NewStore(path).Save(b); err != nil {
		t.Fatalf("failed to seed backlog: %v", err)
	}
	return path
}

func newTestOrchestrator(t *testing.T, cfg Config) *Orchestrator {
	t.Helper()
	orch, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := orch.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = orch.Stop() })
	return orch
}

func TestRunCompletesSingleModule(t *testing.T) {
	dir := t.TempDir()
	backlogPath := writeBacklog(t, dir, []story.Story{
		{ID: "US-001-01", Title: "A", Priority: 2, AcceptanceCriteria: []string{"c"}},
		{ID: "US-001-02", Title: "B", Priority: 2, AcceptanceCriteria: []string{"c"}},
	})
	sprintPath := filepath.Join(dir, "prd.json")
	runner := &passOneRunner{file: sprint.NewFile(sprintPath)}

	orch := newTestOrchestrator(t, Config{
		BacklogPath: backlogPath,
		SprintPath:  sprintPath,
		DataDir:     filepath.Join(dir, ".sprintr"),
		WorkDir:     dir,
		Headless:    true,
		Runner:      runner,
	})

	if err := orch.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if runner.iterations != 2 {
		t.Errorf("expected 2 iterations, got %d", runner.iterations)
	}

	// Completion state is folded into the backlog.
	b, err := backlog.NewStore(backlogPath).Load()
	if err != nil {
		t.Fatal(err)
	}
	if !b.Complete() {
		t.Error("backlog should be complete after the run")
	}

	// The finished sprint is archived, not left in place.
	if _, err := os.Stat(sprintPath); !os.IsNotExist(err) {
		t.Error("sprint file should be archived after completion")
	}
	archives, _ := filepath.Glob(filepath.Join(dir, ".sprintr", "archive", "*.json"))
	if len(archives) != 1 {
		t.Errorf("expected 1 archived sprint, got %d", len(archives))
	}
}

func TestRunStopsAtSprintBoundaryWithoutAutoChain(t *testing.T) {
	dir := t.TempDir()
	backlogPath := writeBacklog(t, dir, []story.Story{
		{ID: "US-001-01", Title: "A", Priority: 2, AcceptanceCriteria: []string{"c"}},
		{ID: "US-002-01", Title: "B", Priority: 2, AcceptanceCriteria: []string{"c"}},
	})
	sprintPath := filepath.Join(dir, "prd.json")
	runner := &passOneRunner{file: sprint.NewFile(sprintPath)}

	orch := newTestOrchestrator(t, Config{
		BacklogPath: backlogPath,
		SprintPath:  sprintPath,
		DataDir:     filepath.Join(dir, ".sprintr"),
		WorkDir:     dir,
		Headless:    true,
		Runner:      runner,
	})

	if err := orch.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Only the first module's sprint ran.
	if runner.iterations != 1 {
		t.Errorf("expected 1 iteration, got %d", runner.iterations)
	}
	b, err := backlog.NewStore(backlogPath).Load()
	if err != nil {
		t.Fatal(err)
	}
	if b.Complete() {
		t.Error("second module should still be open")
	}
	done, _ := b.CompletionStats("US-001")
	if done != 1 {
		t.Errorf("first module should be complete, got %d done", done)
	}
}

func TestRunAutoChainsModules(t *testing.T) {
	dir := t.TempDir()
	backlogPath := writeBacklog(t, dir, []story.Story{
		{ID: "US-001-01", Title: "A", Priority: 2, AcceptanceCriteria: []string{"c"}},
		{ID: "US-002-01", Title: "B", Priority: 2, AcceptanceCriteria: []string{"c"}},
	})
	sprintPath := filepath.Join(dir, "prd.json")
	runner := &passOneRunner{file: sprint.NewFile(sprintPath)}

	orch := newTestOrchestrator(t, Config{
		BacklogPath: backlogPath,
		SprintPath:  sprintPath,
		DataDir:     filepath.Join(dir, ".sprintr"),
		WorkDir:     dir,
		Headless:    true,
		AutoChain:   true,
		Runner:      runner,
	})

	if err := orch.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	b, err := backlog.NewStore(backlogPath).Load()
	if err != nil {
		t.Fatal(err)
	}
	if !b.Complete() {
		t.Error("auto-chain should drive the whole backlog to completion")
	}
	archives, _ := filepath.Glob(filepath.Join(dir, ".sprintr", "archive", "*.json"))
	if len(archives) != 2 {
		t.Errorf("expected 2 archived sprints, got %d", len(archives))
	}
}

func TestRunIterationBudgetExhausted(t *testing.T) {
	dir := t.TempDir()
	backlogPath := writeBacklog(t, dir, []story.Story{
		{ID: "US-001-01", Title: "A", Priority: 2, AcceptanceCriteria: []string{"c"}},
	})

	orch := newTestOrchestrator(t, Config{
		BacklogPath: backlogPath,
		SprintPath:  filepath.Join(dir, "prd.json"),
		DataDir:     filepath.Join(dir, ".sprintr"),
		WorkDir:     dir,
		Headless:    true,
		Iterations:  2,
		Runner:      noopRunner{},
	})

	err := orch.Run()
	if err == nil {
		t.Fatal("expected budget exhaustion error")
	}
	if !strings.Contains(err.Error(), "iteration budget of 2 exhausted") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunNothingToDo(t *testing.T) {
	dir := t.TempDir()
	backlogPath := writeBacklog(t, dir, []story.Story{
		{ID: "US-001-01", Title: "A", Priority: 2, AcceptanceCriteria: []string{"c"}, Passes: true},
	})

	orch := newTestOrchestrator(t, Config{
		BacklogPath: backlogPath,
		SprintPath:  filepath.Join(dir, "prd.json"),
		DataDir:     filepath.Join(dir, ".sprintr"),
		WorkDir:     dir,
		Headless:    true,
		Runner:      noopRunner{},
	})

	if err := orch.Run(); err != nil {
		t.Fatalf("complete backlog should be a clean no-op: %v", err)
	}
}

func TestRunExplicitModules(t *testing.T) {
	dir := t.TempDir()
	backlogPath := writeBacklog(t, dir, []story.Story{
		{ID: "US-001-01", Title: "A", Priority: 2, AcceptanceCriteria: []string{"c"}},
		{ID: "US-002-01", Title: "B", Priority: 2, AcceptanceCriteria: []string{"c"}},
	})
	sprintPath := filepath.Join(dir, "prd.json")
	runner := &passOneRunner{file: sprint.NewFile(sprintPath)}

	orch := newTestOrchestrator(t, Config{
		BacklogPath: backlogPath,
		SprintPath:  sprintPath,
		DataDir:     filepath.Join(dir, ".sprintr"),
		WorkDir:     dir,
		Headless:    true,
		Modules:     []string{"US-002"},
		Runner:      runner,
	})

	if err := orch.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	b, err := backlog.NewStore(backlogPath).Load()
	if err != nil {
		t.Fatal(err)
	}
	done1, _ := b.CompletionStats("US-001")
	done2, _ := b.CompletionStats("US-002")
	if done1 != 0 || done2 != 1 {
		t.Errorf("explicit module selection ignored: US-001=%d US-002=%d", done1, done2)
	}
}
