package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mark3labs/sprintr/internal/backlog"
	"github.com/mark3labs/sprintr/internal/config"
	"github.com/mark3labs/sprintr/internal/journal"
	"github.com/mark3labs/sprintr/internal/report"
	"github.com/mark3labs/sprintr/internal/sprint"
)

var statusFlags struct {
	history bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backlog progress per module",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.history, "history", false, "Also show the sprint event history")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	b, err := backlog.NewStore(cfg.Backlog).Load()
	if err != nil {
		return err
	}

	fmt.Print(report.Status(b, sprint.NewFile(cfg.Sprint)))

	if statusFlags.history {
		ctx := context.Background()
		jrnl, err := journal.Open(ctx, journalDir(cfg))
		if err != nil {
			return err
		}
		defer func() { _ = jrnl.Close() }()

		events, err := jrnl.Events(ctx, b.Project)
		if err != nil {
			return err
		}
		fmt.Printf("\nHistory (%d events):\n", len(events))
		for _, e := range events {
			fmt.Printf("  %s %-9s %s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Type, e.Data)
		}
	}

	return nil
}
