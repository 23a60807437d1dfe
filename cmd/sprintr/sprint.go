package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/sprintr/internal/backlog"
	"github.com/mark3labs/sprintr/internal/config"
	"github.com/mark3labs/sprintr/internal/journal"
	"github.com/mark3labs/sprintr/internal/sprint"
)

var sprintCmd = &cobra.Command{
	Use:   "sprint [module...]",
	Short: "Extract the next sprint from the backlog",
	Long: `Extract a bounded sprint working set from the backlog.

With no arguments the first incomplete module (in import order) is
selected. Explicit modules (e.g. US-001 US-002) override the selection.
Any pending completion state in the current sprint file is synced back to
the backlog before extraction, so repeated extraction never loses work.`,
	RunE: runSprint,
}

func runSprint(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store := backlog.NewStore(cfg.Backlog)
	file := sprint.NewFile(cfg.Sprint)

	// Fold the previous sprint in first: extraction must never discard
	// completed work sitting in the working set.
	if file.Exists() {
		res, err := sprint.SyncFiles(store, file)
		if err != nil {
			return err
		}
		if res.Updated > 0 {
			fmt.Printf("Synced %d newly completed stories to backlog.\n", res.Updated)
		}
		if warn := res.Warning(); warn != nil {
			fmt.Printf("Warning: %v\n", warn)
		}
	}

	b, err := store.Load()
	if err != nil {
		return err
	}

	modules := make([]string, 0, len(args))
	for _, a := range args {
		modules = append(modules, strings.ToUpper(a))
	}
	if len(modules) == 0 {
		m, err := sprint.SelectModule(b)
		if err != nil {
			return err
		}
		modules = []string{m}
	}

	ctx := context.Background()
	jrnl, err := journal.Open(ctx, journalDir(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = jrnl.Close() }()

	seq, err := jrnl.SprintSeq(ctx, b.Project, modules[0])
	if err != nil {
		return err
	}

	sp, err := sprint.Extract(b, seq, modules...)
	if err != nil {
		return err
	}
	if err := file.Save(sp); err != nil {
		return err
	}

	if err := jrnl.Record(ctx, journal.Event{
		Project: b.Project,
		Type:    journal.EventExtract,
		Module:  modules[0],
		Branch:  sp.BranchName,
		Data:    sp.Description,
	}); err != nil {
		return err
	}

	fmt.Printf("Sprint %s created: %s\n", sp.BranchName, cfg.Sprint)
	fmt.Printf("  Stories: %d (%d done, %d remaining)\n", len(sp.Stories), len(sp.Stories)-sp.Remaining(), sp.Remaining())
	fmt.Printf("  File size: %d KB\n", file.Size()/1024)

	for _, w := range sprint.UnmetDependencies(b, sp) {
		fmt.Printf("  Warning: %s\n", w)
	}
	if kb := file.Size() / 1024; kb > sprint.MaxSprintKB {
		fmt.Printf("\n  WARNING: Sprint is %d KB (limit: %d KB).\n", kb, sprint.MaxSprintKB)
		fmt.Println("  Consider loading fewer modules for better agent performance.")
	}

	return nil
}

func journalDir(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "nats")
}
