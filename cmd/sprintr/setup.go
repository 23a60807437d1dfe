package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mark3labs/sprintr/internal/config"
)

var setupFlags struct {
	project bool
	force   bool
	model   string
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create sprintr configuration file",
	Long: `Create a sprintr configuration file with sensible defaults.

By default, creates a global config at ~/.config/sprintr/sprintr.yml.
Use --project to create a project-local config in the current directory.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
	setupCmd.Flags().StringVarP(&setupFlags.model, "model", "m", "anthropic/claude-sonnet-4-5", "Model stored in the config")
}

func runSetup(cmd *cobra.Command, args []string) error {
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}

	if !setupFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	cfg := &config.Config{
		Backlog:    "backlog.json",
		Sprint:     "prd.json",
		StoriesDir: filepath.Join("docs", "userstories"),
		DataDir:    ".sprintr",
		Model:      setupFlags.model,
		Iterations: 0,
		Headless:   false,
		AutoChain:  false,
		Template:   "",
		LogLevel:   "info",
		LogFile:    "",
	}

	var err error
	if setupFlags.project {
		err = config.WriteProject(cfg)
	} else {
		err = config.WriteGlobal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Config written to: %s\n\n", targetPath)
	fmt.Println("Run 'sprintr import' to build the backlog, then 'sprintr run'.")

	return nil
}

// fileExists checks if a file exists (helper for setup command).
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
