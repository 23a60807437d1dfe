package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mark3labs/sprintr/internal/config"
	"github.com/mark3labs/sprintr/internal/logger"
	"github.com/mark3labs/sprintr/internal/orchestrator"
)

var runFlags struct {
	iterations        int
	headless          bool
	autoChain         bool
	model             string
	template          string
	extraInstructions string
	backlog           string
	sprintPath        string
	dataDir           string
}

var runCmd = &cobra.Command{
	Use:   "run [module...]",
	Short: "Run the iterative agent loop against the current sprint",
	Long: `Run the iterative agent loop against the current sprint.

If no sprint file exists one is extracted first, either from the modules
given as arguments or from the first incomplete module. Each iteration the
agent receives the sprint as a prompt and reports completed stories through
the MCP tool server; completion state is folded into the backlog after
every iteration. A TUI shows progress unless --headless is set.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVarP(&runFlags.iterations, "iterations", "i", 0, "Max iterations, 0=unlimited (default: config)")
	runCmd.Flags().BoolVar(&runFlags.headless, "headless", false, "Run without TUI (logging only)")
	runCmd.Flags().BoolVar(&runFlags.autoChain, "auto-chain", false, "Extract the next module automatically when a sprint completes")
	runCmd.Flags().StringVarP(&runFlags.model, "model", "m", "", "Model to use (e.g., anthropic/claude-sonnet-4-5)")
	runCmd.Flags().StringVarP(&runFlags.template, "template", "t", "", "Custom prompt template file")
	runCmd.Flags().StringVarP(&runFlags.extraInstructions, "extra-instructions", "e", "", "Extra instructions appended to the prompt")
	runCmd.Flags().StringVar(&runFlags.backlog, "backlog", "", "Backlog file path (default: config)")
	runCmd.Flags().StringVar(&runFlags.sprintPath, "sprint", "", "Sprint file path (default: config)")
	runCmd.Flags().StringVar(&runFlags.dataDir, "data-dir", "", "Data directory for journal and archive (default: config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags beat config, config beats defaults.
	if cmd.Flags().Changed("iterations") {
		cfg.Iterations = runFlags.iterations
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = runFlags.headless
	}
	if cmd.Flags().Changed("auto-chain") {
		cfg.AutoChain = runFlags.autoChain
	}
	if runFlags.model != "" {
		cfg.Model = runFlags.model
	}
	if runFlags.template != "" {
		cfg.Template = runFlags.template
	}
	if runFlags.backlog != "" {
		cfg.Backlog = runFlags.backlog
	}
	if runFlags.sprintPath != "" {
		cfg.Sprint = runFlags.sprintPath
	}
	if runFlags.dataDir != "" {
		cfg.DataDir = runFlags.dataDir
	}

	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}

	if cfg.Iterations < 0 {
		return fmt.Errorf("iterations must be >= 0 (0 means unlimited)")
	}
	if cfg.Model == "" {
		return fmt.Errorf("no model configured, use --model or run 'sprintr setup'")
	}
	if _, err := os.Stat(cfg.Backlog); os.IsNotExist(err) {
		return fmt.Errorf("backlog not found: %s (run 'sprintr import' first)", cfg.Backlog)
	}

	modules := make([]string, 0, len(args))
	for _, a := range args {
		modules = append(modules, strings.ToUpper(a))
	}

	orch, err := orchestrator.New(orchestrator.Config{
		BacklogPath:  cfg.Backlog,
		SprintPath:   cfg.Sprint,
		DataDir:      cfg.DataDir,
		Modules:      modules,
		Iterations:   cfg.Iterations,
		Headless:     cfg.Headless,
		AutoChain:    cfg.AutoChain,
		Model:        cfg.Model,
		TemplatePath: cfg.Template,
		Extra:        runFlags.extraInstructions,
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	if err := orch.Start(); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}

	// Ensure cleanup always runs using defer
	defer func() {
		if err := orch.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down gracefully...")
		if err := orch.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
		}
		os.Exit(0)
	}()

	if err := orch.Run(); err != nil {
		return fmt.Errorf("iteration loop failed: %w", err)
	}

	return nil
}
