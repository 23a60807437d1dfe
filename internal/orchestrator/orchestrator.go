// Package orchestrator runs the iterative sprint loop: extract a sprint,
// hand it to the agent one iteration at a time, fold completion state back
// into the backlog, and move on to the next module.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/mark3labs/sprintr/internal/agent"
	"github.com/mark3labs/sprintr/internal/archive"
	"github.com/mark3labs/sprintr/internal/backlog"
	ierr "github.com/mark3labs/sprintr/internal/errors"
	"github.com/mark3labs/sprintr/internal/journal"
	"github.com/mark3labs/sprintr/internal/logger"
	"github.com/mark3labs/sprintr/internal/mcpserver"
	"github.com/mark3labs/sprintr/internal/sprint"
	"github.com/mark3labs/sprintr/internal/template"
	"github.com/mark3labs/sprintr/internal/tui"
)

// learningsTail is how many recent learnings are carried into each prompt.
const learningsTail = 20

// Config holds configuration for the orchestrator.
type Config struct {
	BacklogPath  string
	SprintPath   string
	DataDir      string
	WorkDir      string
	Modules      []string // Explicit modules for the first sprint (empty = auto-select)
	Iterations   int      // Iteration budget (0 = unlimited)
	Headless     bool
	AutoChain    bool // Extract the next module automatically when a sprint completes
	Model        string
	TemplatePath string
	Extra        string

	// Runner overrides the agent implementation; nil means opencode.
	Runner agent.Runner
}

// Orchestrator manages the iteration loop with the journal, MCP tool server
// and TUI.
type Orchestrator struct {
	cfg        Config
	store      *backlog.Store
	sprintFile *sprint.File
	jrnl       *journal.Journal
	mcp        *mcpserver.Server
	learnings  *archive.Learnings
	runner     agent.Runner
	project    string

	tuiProgram *tea.Program
	tuiDone    chan struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
}

// New creates an Orchestrator with the given configuration.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.BacklogPath == "" {
		cfg.BacklogPath = "backlog.json"
	}
	if cfg.SprintPath == "" {
		cfg.SprintPath = "prd.json"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = ".sprintr"
	}
	if cfg.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		cfg.WorkDir = wd
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Orchestrator{
		cfg:        cfg,
		store:      backlog.NewStore(cfg.BacklogPath),
		sprintFile: sprint.NewFile(cfg.SprintPath),
		learnings:  archive.NewLearnings(cfg.DataDir),
		ctx:        ctx,
		cancel:     cancel,
		tuiDone:    make(chan struct{}),
	}, nil
}

// Start initializes all components: journal, MCP tool server, agent runner
// and (unless headless) the TUI.
func (o *Orchestrator) Start() error {
	logger.Info("Starting orchestrator (backlog=%s sprint=%s)", o.cfg.BacklogPath, o.cfg.SprintPath)

	b, err := o.store.Load()
	if err != nil {
		return err
	}
	o.project = b.Project

	if err := os.MkdirAll(o.cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	jrnl, err := journal.Open(o.ctx, filepath.Join(o.cfg.DataDir, "nats"))
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	o.jrnl = jrnl

	o.mcp = mcpserver.New(o.sprintFile, o.learnings)
	if _, err := o.mcp.Start(o.ctx); err != nil {
		return fmt.Errorf("failed to start MCP server: %w", err)
	}

	if !o.cfg.Headless {
		if err := o.startTUI(); err != nil {
			return fmt.Errorf("failed to start TUI: %w", err)
		}
	} else {
		logger.Info("Running in headless mode")
	}

	o.runner = o.cfg.Runner
	if o.runner == nil {
		o.runner = agent.NewOpencodeRunner(agent.OpencodeConfig{
			Model:   o.cfg.Model,
			WorkDir: o.cfg.WorkDir,
			OnText: func(content string) {
				if o.tuiProgram != nil {
					o.tuiProgram.Send(tui.AgentOutputMsg{Content: content})
				} else {
					fmt.Print(content)
				}
			},
			OnToolUse: func(name string, input map[string]any) {
				if o.tuiProgram != nil {
					o.tuiProgram.Send(tui.AgentToolMsg{Tool: name})
				} else {
					fmt.Printf("\n[tool: %s]\n", name)
				}
			},
		})
	}

	logger.Info("Orchestrator started for project '%s'", o.project)
	return nil
}

// Run executes the main iteration loop. Returns nil when the loop stops at
// an operator boundary (sprint done without auto-chain, or backlog
// complete); returns an error when the iteration budget is exhausted or a
// component fails.
func (o *Orchestrator) Run() error {
	b, err := o.store.Load()
	if err != nil {
		return err
	}

	if b.Complete() {
		o.report("Backlog complete: all stories pass. Nothing to do.")
		return nil
	}

	iterations := 0
	for {
		if o.ctx.Err() != nil {
			return o.ctx.Err()
		}

		sp, err := o.ensureSprint(b)
		if err != nil {
			var bc *sprint.BacklogCompleteError
			if errors.As(err, &bc) {
				o.report("Backlog complete: all stories pass.")
				return nil
			}
			return err
		}

		if sp.Complete() {
			if err := o.finishSprint(b, sp); err != nil {
				return err
			}
			b, err = o.store.Load()
			if err != nil {
				return err
			}
			if b.Complete() {
				o.report("Backlog complete: all stories pass.")
				return nil
			}
			if !o.cfg.AutoChain {
				o.report("Sprint %s complete. Run again (or enable auto_chain) for the next module.", sp.BranchName)
				return nil
			}
			continue
		}

		if o.cfg.Iterations > 0 && iterations >= o.cfg.Iterations {
			// Budget exhausted: fold whatever the agent finished, then fail.
			if _, err := o.syncSprint(b); err != nil {
				logger.Error("Final sync failed: %v", err)
			}
			return fmt.Errorf("iteration budget of %d exhausted without sprint completion", o.cfg.Iterations)
		}

		iterations++
		if err := o.runIteration(sp, iterations); err != nil {
			return err
		}

		if _, err := o.syncSprint(b); err != nil {
			return err
		}
		o.sendProgress(b)
	}
}

// ensureSprint returns the current sprint, extracting a fresh one when no
// sprint file exists. Extraction failures on explicitly requested modules
// propagate; auto-selection only fails when the backlog is complete.
func (o *Orchestrator) ensureSprint(b *backlog.Backlog) (*sprint.Sprint, error) {
	if o.sprintFile.Exists() {
		sp, err := o.sprintFile.Load()
		if err != nil {
			return nil, err
		}
		o.sendProgressWith(b, sp)
		return sp, nil
	}

	modules := o.cfg.Modules
	if len(modules) == 0 {
		m, err := sprint.SelectModule(b)
		if err != nil {
			return nil, err
		}
		modules = []string{m}
	}
	// Explicit modules apply to the first extraction only; chained sprints
	// go back to auto-selection.
	o.cfg.Modules = nil

	seq, err := o.jrnl.SprintSeq(o.ctx, o.project, strings.ToUpper(modules[0]))
	if err != nil {
		return nil, err
	}

	sp, err := sprint.Extract(b, seq, modules...)
	if err != nil {
		return nil, err
	}
	if err := o.sprintFile.Save(sp); err != nil {
		return nil, err
	}

	for _, w := range sprint.UnmetDependencies(b, sp) {
		o.report("warning: %s", w)
	}
	if kb := o.sprintFile.Size() / 1024; kb > sprint.MaxSprintKB {
		o.report("warning: sprint file is %d KB (limit %d KB); consider fewer modules", kb, sprint.MaxSprintKB)
	}

	if err := o.jrnl.Record(o.ctx, journal.Event{
		Project: o.project,
		Type:    journal.EventExtract,
		Module:  strings.ToUpper(modules[0]),
		Branch:  sp.BranchName,
		Data:    sp.Description,
	}); err != nil {
		logger.Warn("Failed to record extract event: %v", err)
	}

	o.report("Sprint %s extracted: %d stories, %d remaining", sp.BranchName, len(sp.Stories), sp.Remaining())
	o.sendProgressWith(b, sp)
	return sp, nil
}

// runIteration builds the prompt and runs one agent iteration with panic
// recovery.
func (o *Orchestrator) runIteration(sp *sprint.Sprint, number int) error {
	logger.Info("=== Starting iteration #%d ===", number)
	if o.tuiProgram != nil {
		o.tuiProgram.Send(tui.IterationStartMsg{Number: number})
	} else {
		fmt.Printf("Running iteration #%d...\n", number)
	}

	prompt, err := template.BuildPrompt(template.BuildConfig{
		Sprint:       sp,
		Iteration:    number,
		MCPURL:       o.mcp.URL(),
		TemplatePath: o.cfg.TemplatePath,
		Extra:        o.cfg.Extra,
		Learnings:    o.learnings.Tail(learningsTail),
	})
	if err != nil {
		return err
	}

	var result agent.Result
	err = ierr.Recover(func() error {
		var runErr error
		result, runErr = o.runner.RunIteration(o.ctx, prompt)
		return runErr
	})
	if err != nil {
		var panicErr *ierr.PanicError
		if errors.As(err, &panicErr) {
			logger.Error("Iteration #%d panicked: %s", number, panicErr.StackTrace)
		}
		return fmt.Errorf("iteration #%d failed: %w", number, err)
	}

	if err := o.jrnl.Record(o.ctx, journal.Event{
		Project: o.project,
		Type:    journal.EventIteration,
		Data:    fmt.Sprintf("iteration #%d completed=%v", number, result.Completed),
	}); err != nil {
		logger.Warn("Failed to record iteration event: %v", err)
	}

	logger.Info("=== Iteration #%d finished (completed=%v) ===", number, result.Completed)
	return nil
}

// syncSprint folds sprint completion state into the backlog. Partial-sync
// warnings are surfaced and never abort.
func (o *Orchestrator) syncSprint(b *backlog.Backlog) (sprint.SyncResult, error) {
	res, err := sprint.SyncFiles(o.store, o.sprintFile)
	if err != nil {
		return res, err
	}
	if warn := res.Warning(); warn != nil {
		o.report("warning: %v", warn)
	}
	if res.Updated > 0 {
		if err := o.jrnl.Record(o.ctx, journal.Event{
			Project: o.project,
			Type:    journal.EventSync,
			Data:    fmt.Sprintf("synced %d stories", res.Updated),
		}); err != nil {
			logger.Warn("Failed to record sync event: %v", err)
		}
	}

	// Refresh the in-memory backlog from disk so progress reflects the merge.
	fresh, err := o.store.Load()
	if err != nil {
		return res, err
	}
	*b = *fresh
	return res, nil
}

// finishSprint syncs a completed sprint a final time and archives it with a
// learnings snapshot.
func (o *Orchestrator) finishSprint(b *backlog.Backlog, sp *sprint.Sprint) error {
	if _, err := o.syncSprint(b); err != nil {
		return err
	}

	archived, err := archive.Sprint(o.cfg.DataDir, o.sprintFile.Path(), sp.BranchName)
	if err != nil {
		return err
	}
	if err := o.learnings.Snapshot(archived); err != nil {
		logger.Warn("Failed to snapshot learnings: %v", err)
	}

	o.report("Sprint %s complete and archived", sp.BranchName)
	o.sendProgress(b)
	return nil
}

// Stop gracefully shuts down all components. Safe to call more than once.
func (o *Orchestrator) Stop() error {
	if o.stopped {
		return nil
	}
	o.stopped = true

	logger.Info("Stopping orchestrator")
	multiErr := &ierr.MultiError{}

	if o.cancel != nil {
		o.cancel()
	}

	if o.tuiProgram != nil {
		o.tuiProgram.Quit()
		select {
		case <-o.tuiDone:
		case <-time.After(2 * time.Second):
			logger.Warn("TUI shutdown timed out")
			multiErr.Append(fmt.Errorf("TUI shutdown timed out"))
		}
		o.tuiProgram = nil
	}

	if o.mcp != nil {
		multiErr.Append(o.mcp.Stop())
	}
	if o.jrnl != nil {
		multiErr.Append(o.jrnl.Close())
	}

	logger.Info("Orchestrator stopped")
	return multiErr.ErrorOrNil()
}

// startTUI initializes and starts the Bubbletea dashboard in the
// background.
func (o *Orchestrator) startTUI() error {
	app := tui.NewApp(o.project)
	o.tuiProgram = tea.NewProgram(app)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "TUI panic: %v\n", r)
			}
			close(o.tuiDone)
		}()

		if _, err := o.tuiProgram.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		}
	}()

	// TUI quit cancels the loop.
	go func() {
		<-o.tuiDone
		if o.cancel != nil {
			o.cancel()
		}
	}()

	return nil
}

// report prints operator-facing messages to stdout in headless mode and the
// log otherwise (the TUI renders state from messages, not prints).
func (o *Orchestrator) report(format string, args ...any) {
	logger.Info(format, args...)
	if o.tuiProgram == nil {
		fmt.Printf(format+"\n", args...)
	}
}

// sendProgress pushes a dashboard refresh from the backlog plus the current
// sprint file.
func (o *Orchestrator) sendProgress(b *backlog.Backlog) {
	var sp *sprint.Sprint
	if o.sprintFile.Exists() {
		if loaded, err := o.sprintFile.Load(); err == nil {
			sp = loaded
		}
	}
	o.sendProgressWith(b, sp)
}

func (o *Orchestrator) sendProgressWith(b *backlog.Backlog, sp *sprint.Sprint) {
	if o.tuiProgram == nil {
		return
	}

	msg := tui.ProgressMsg{Project: b.Project}
	for _, m := range b.Modules() {
		complete, total := b.CompletionStats(m)
		msg.Modules = append(msg.Modules, tui.ModuleProgress{Name: m, Complete: complete, Total: total})
	}
	if sp != nil {
		msg.Branch = sp.BranchName
		for i := range sp.Stories {
			s := &sp.Stories[i]
			msg.Stories = append(msg.Stories, tui.StoryLine{ID: s.ID, Title: s.Title, Passes: s.Passes})
		}
	}
	o.tuiProgram.Send(msg)
}
