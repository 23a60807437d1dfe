package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mark3labs/sprintr/internal/backlog"
	"github.com/mark3labs/sprintr/internal/config"
	"github.com/mark3labs/sprintr/internal/importer"
)

var importFlags struct {
	dir     string
	project string
	branch  string
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Convert markdown user stories into the backlog",
	Long: `Convert markdown user stories into the backlog file.

Stories are parsed from *.md files in the stories directory. Completion
state of stories already present in the backlog is preserved, so re-import
after editing story documents is safe.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFlags.dir, "dir", "d", "", "Stories directory (default: config stories_dir)")
	importCmd.Flags().StringVarP(&importFlags.project, "project", "p", "MyProject", "Project name stored in the backlog")
	importCmd.Flags().StringVarP(&importFlags.branch, "branch", "b", "", "Display branch label stored in the backlog")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dir := importFlags.dir
	if dir == "" {
		dir = cfg.StoriesDir
	}

	stories, err := importer.ParseDir(dir)
	if err != nil {
		return err
	}

	store := backlog.NewStore(cfg.Backlog)
	var prev *backlog.Backlog
	if store.Exists() {
		prev, err = store.Load()
		if err != nil {
			return err
		}
	}

	project := importFlags.project
	branch := importFlags.branch
	if prev != nil {
		// Keep existing labels unless explicitly overridden.
		if !cmd.Flags().Changed("project") {
			project = prev.Project
		}
		if branch == "" {
			branch = prev.BranchName
		}
	}

	b, err := importer.Build(stories, prev, project, branch)
	if err != nil {
		return err
	}
	if err := store.Save(b); err != nil {
		return err
	}

	fmt.Printf("Imported %d stories across %d modules into %s\n", len(b.Stories), len(b.Modules()), cfg.Backlog)
	return nil
}
