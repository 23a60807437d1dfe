package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mark3labs/sprintr/internal/backlog"
	"github.com/mark3labs/sprintr/internal/config"
	"github.com/mark3labs/sprintr/internal/journal"
	"github.com/mark3labs/sprintr/internal/sprint"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fold sprint completion state back into the backlog",
	Long: `Fold completion state from the sprint file back into the backlog.

The merge is monotonic and idempotent: it only ever flips stories from
incomplete to complete, and running it twice is the same as running it
once. Sprint entries with no backlog counterpart are skipped with a
warning; the matched subset still commits.`,
	RunE: runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store := backlog.NewStore(cfg.Backlog)
	file := sprint.NewFile(cfg.Sprint)
	if !file.Exists() {
		fmt.Println("No sprint file; nothing to sync.")
		return nil
	}

	res, err := sprint.SyncFiles(store, file)
	if err != nil {
		return err
	}

	if res.Updated > 0 {
		fmt.Printf("Synced %d newly completed stories to backlog.\n", res.Updated)

		b, err := store.Load()
		if err == nil {
			ctx := context.Background()
			if jrnl, jerr := journal.Open(ctx, journalDir(cfg)); jerr == nil {
				defer func() { _ = jrnl.Close() }()
				_ = jrnl.Record(ctx, journal.Event{
					Project: b.Project,
					Type:    journal.EventSync,
					Data:    fmt.Sprintf("synced %d stories", res.Updated),
				})
			}
		}
	} else {
		fmt.Println("Sync complete: backlog already up to date.")
	}

	// Partial matches warn but do not fail: committing the valid subset
	// beats losing completed work.
	if warn := res.Warning(); warn != nil {
		fmt.Printf("Warning: %v\n", warn)
	}

	return nil
}
