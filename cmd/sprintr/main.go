package main

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/mark3labs/sprintr/internal/logger"
	"github.com/mark3labs/sprintr/internal/tui/theme"
)

const (
	logoText1 = "█▀ █▀█ █▀█ █ █▄ █ ▀█▀ █▀█"
	logoText2 = "▄█ █▀▀ █▀▄ █ █ ▀█  █  █▀▄"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sprintr",
	Short: "Backlog-driven sprint orchestrator for AI coding agents",
}

// renderLogo creates the logo with gradient colors
func renderLogo() string {
	t := theme.NewCatppuccinMocha()
	line1 := theme.ApplyGradient(logoText1, t.Primary, t.Secondary)
	line2 := theme.ApplyGradient(logoText2, t.Primary, t.Secondary)
	return strings.Join([]string{line1, line2}, "\n")
}

func init() {
	rootCmd.Long = renderLogo() + `

sprintr manages a large backlog of user stories that cannot fit into a
single agent context window. It partitions the backlog into bounded,
per-module sprints, drives an AI coding agent against the current sprint,
and folds completion state back into the backlog after every iteration.

Workflow: import -> sprint -> run (repeat) -> status.`

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(sprintCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(setupCmd)
}
